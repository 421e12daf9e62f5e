package dsx

import (
	"fmt"

	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

// Validate runs structural checks on m. Issues are advisory: an invalid model
// is still a usable model.
func Validate(m *models.JobMetadata) models.Validation {
	issues := make([]string, 0)

	if m.Name == "" {
		issues = append(issues, "Missing job name")
	}
	if m.Type == "" || string(m.Type) == models.UnknownLabel("") {
		issues = append(issues, "Missing job type")
	}
	if len(m.Sources) == 0 && len(m.Targets) == 0 {
		issues = append(issues, "No sources or targets found - possible parsing issue")
	}

	stages := stageNames(m)

	if len(m.Flow) > 0 {
		connected := make(map[string]bool, len(m.Flow)*2)
		for _, e := range m.Flow {
			connected[e.From] = true
			connected[e.To] = true
		}
		for _, name := range stages.order {
			if !connected[name] {
				issues = append(issues, fmt.Sprintf("Stage %q appears disconnected from the flow", name))
			}
		}
	}

	if len(stages.order) > 0 {
		reported := make(map[string]bool)
		for _, e := range m.Flow {
			for _, end := range []string{e.From, e.To} {
				if stages.set[end] || reported[end] {
					continue
				}
				reported[end] = true
				issues = append(issues, fmt.Sprintf("Flow endpoint %q does not match any extracted stage", end))
			}
		}
	}

	return models.Validation{Valid: len(issues) == 0, Issues: issues}
}

type nameSet struct {
	order []string
	set   map[string]bool
}

func (s *nameSet) add(name string) {
	if name == "" || s.set[name] {
		return
	}
	s.set[name] = true
	s.order = append(s.order, name)
}

// stageNames collects every stage named by an extracted entity, in model order.
func stageNames(m *models.JobMetadata) nameSet {
	s := nameSet{set: make(map[string]bool)}
	for _, v := range m.Sources {
		s.add(v.Name)
	}
	for _, v := range m.Targets {
		s.add(v.Name)
	}
	for _, v := range m.Transforms {
		s.add(v.Name)
	}
	for _, v := range m.Lookups {
		s.add(v.Name)
	}
	for _, v := range m.SpecializedStages {
		s.add(v.Name)
	}
	return s
}
