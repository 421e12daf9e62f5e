package dsx

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

// Compiled once at package init.
var (
	reParagraph   = regexp.MustCompile(`\r?\n[ \t]*\r?\n`)
	reNewline     = regexp.MustCompile(`\r?\n`)
	reWhitespace  = regexp.MustCompile(`\s+`)
	reSQLComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reParamToken  = regexp.MustCompile(`#[^#]+#`)
	reWhere       = regexp.MustCompile(`(?i)\bWHERE\b\s+(.*?)(?:\bGROUP BY\b|\bORDER BY\b|\bHAVING\b|$)`)
	reNameField   = regexp.MustCompile(`(?m)^[ \t]*Name "((?:[^"\\]|\\.)*)"`)
	reDatasetMode = regexp.MustCompile(`Name "datasetmode"[\s\S]*?Value "([^"]*)"`)
)

const redactedParam = "[PARAM]"

// Connector contexts in XMLProperties.
const (
	contextSource = 1
	contextTarget = 2
)

// stageTables is the first-pass lookup state: stage IDs to names and stage names
// to internal types. Everything that depends on stage identity is resolved against it.
type stageTables struct {
	names map[string]string
	types map[string]string
	order []string
}

func (t stageTables) typeOf(name, fallback string) string {
	if typ, ok := t.types[name]; ok {
		return typ
	}
	return fallback
}

func (t stageTables) nameOf(id string) string {
	if name, ok := t.names[id]; ok {
		return name
	}
	return id
}

func buildStageTables(doc *Document) stageTables {
	t := stageTables{
		names: make(map[string]string),
		types: make(map[string]string),
	}

	list, okList := doc.Field("StageList")
	names, okNames := doc.Field("StageNames")
	if okList && okNames {
		ids := strings.Split(list, "|")
		labels := strings.Split(names, "|")
		for i, id := range ids {
			if i >= len(labels) {
				break
			}
			if name := strings.TrimSpace(labels[i]); name != "" {
				t.names[strings.TrimSpace(id)] = name
			}
		}
	}

	for _, r := range doc.Records() {
		name, _ := r.TopField("Name")
		typ, _ := r.TopField("StageType")
		name = strings.TrimSpace(name)
		if name == "" || typ == "" {
			continue
		}
		if _, seen := t.types[name]; !seen {
			t.order = append(t.order, name)
		}
		t.types[name] = typ
	}
	return t
}

func extractIdentity(doc *Document, m *models.JobMetadata) {
	if name, ok := doc.Field("Identifier"); ok {
		m.Name = name
	}

	if desc, ok := doc.Field("FullDescription"); ok {
		desc = strings.TrimSpace(desc)
		first := reParagraph.Split(desc, 2)[0]
		m.Description = strings.TrimSpace(reNewline.ReplaceAllString(first, " "))
	} else if desc, ok := doc.Field("Description"); ok {
		m.Description = strings.TrimSpace(desc)
	}

	if code, ok := doc.Field("JobType"); ok {
		m.Type = decode(jobTypes, code)
	}
}

func extractParameters(doc *Document) []models.Parameter {
	params := make([]models.Parameter, 0)
	for _, sub := range doc.SubRecords() {
		name, okName := sub.Field("Name")
		code, okType := sub.Field("ParamType")
		if !okName || !okType {
			continue
		}
		prompt, _ := sub.Field("Prompt")
		def, _ := sub.Field("Default")
		help, _ := sub.Field("HelpTxt")
		params = append(params, models.Parameter{
			Name:    name,
			Prompt:  prompt,
			Default: def,
			Help:    help,
			Type:    decode(paramTypes, code),
		})
	}
	return params
}

// extractConnectors reads every XMLProperties block owned by a named stage record.
func extractConnectors(doc *Document, tables stageTables) ([]models.Source, []models.Target) {
	sources := make([]models.Source, 0)
	targets := make([]models.Target, 0)

	for _, r := range doc.Records() {
		stage, ok := r.TopField("Name")
		if !ok || stage == "" {
			continue
		}
		for _, sub := range r.SubRecords() {
			if name, _ := sub.Field("Name"); name != "XMLProperties" {
				continue
			}
			raw, ok := sub.Field("Value")
			if !ok {
				continue
			}
			props := readProperties(raw)
			kind, err := strconv.Atoi(props["Context"])
			if err != nil {
				continue
			}
			switch kind {
			case contextSource:
				if src, keep := buildSource(stage, tables, props); keep {
					sources = append(sources, src)
				}
			case contextTarget:
				if tgt, keep := buildTarget(stage, tables, props); keep {
					targets = append(targets, tgt)
				}
			}
		}
	}
	return sources, targets
}

func buildSource(stage string, tables stageTables, props map[string]string) (models.Source, bool) {
	src := models.Source{
		Name:       stage,
		Type:       tables.typeOf(stage, "source"),
		Connection: redactConnection(props["Server"]),
		Database:   props["Database"],
	}
	if sql := normalizeSQL(props["SelectStatement"]); sql != "" {
		src.SQL = sql
		src.WhereClauses = WhereClauses(sql)
	} else {
		src.Table = props["TableName"]
	}
	return src, src.SQL != "" || src.Table != ""
}

func buildTarget(stage string, tables stageTables, props map[string]string) (models.Target, bool) {
	tgt := models.Target{
		Name:       stage,
		Type:       tables.typeOf(stage, "target"),
		Table:      props["TableName"],
		Connection: redactConnection(props["Server"]),
		Database:   props["Database"],
	}
	if code, ok := props["WriteMode"]; ok {
		tgt.Mode = decode(writeModes, code)
	}
	return tgt, tgt.Table != "" || tgt.Dataset != ""
}

// normalizeSQL strips block comments and collapses whitespace to single spaces.
func normalizeSQL(sql string) string {
	sql = reSQLComment.ReplaceAllString(sql, " ")
	return strings.TrimSpace(reWhitespace.ReplaceAllString(sql, " "))
}

func redactConnection(server string) string {
	return reParamToken.ReplaceAllString(server, redactedParam)
}

// WhereClauses returns the condition of every WHERE in sql, each ending at the
// next GROUP BY, ORDER BY, HAVING or the end of the statement.
func WhereClauses(sql string) []string {
	var clauses []string
	for _, m := range reWhere.FindAllStringSubmatch(sql, -1) {
		if c := strings.TrimSpace(m[1]); c != "" {
			clauses = append(clauses, c)
		}
	}
	return clauses
}

// extractLookups decodes PxLookup stages. A lookup's configuration is spread over
// the stage record and its pin records (Identifier "<stageID>P<n>").
func extractLookups(doc *Document) []models.Lookup {
	lookups := make([]models.Lookup, 0)

	byID := make(map[string]*Record)
	for _, r := range doc.Records() {
		if id, ok := r.TopField("Identifier"); ok {
			byID[id] = r
		}
	}
	pinName := func(id string) (string, bool) {
		if pin, ok := byID[strings.TrimSpace(id)]; ok {
			return pin.TopField("Name")
		}
		return "", false
	}

	for _, r := range doc.Records() {
		if typ, _ := r.TopField("StageType"); typ != "PxLookup" {
			continue
		}
		name, _ := r.TopField("Name")
		lk := models.Lookup{
			Name:       name,
			Inputs:     make([]string, 0),
			KeyColumns: make([]string, 0),
		}

		scope := []*Record{r}
		id, _ := r.TopField("Identifier")
		var pins []*Record
		if id != "" {
			for _, other := range doc.Records() {
				if pid, ok := other.TopField("Identifier"); ok && pid != id && strings.HasPrefix(pid, id+"P") {
					pins = append(pins, other)
				}
			}
			scope = append(scope, pins...)
		}

		outputs := splitPins(r, "OutputPins")
		if inputs := splitPins(r, "InputPins"); len(inputs) > 0 {
			for _, pid := range inputs {
				if n, ok := pinName(pid); ok {
					lk.Inputs = append(lk.Inputs, n)
				}
			}
		} else {
			for _, pin := range pins {
				pid, _ := pin.TopField("Identifier")
				if _, partnered := pin.TopField("Partner"); !partnered || slices.Contains(outputs, pid) {
					continue
				}
				if n, ok := pin.TopField("Name"); ok {
					lk.Inputs = append(lk.Inputs, n)
				}
			}
		}
		if len(outputs) > 0 {
			lk.Output, _ = pinName(outputs[0])
		}

		seen := make(map[string]bool)
		for _, rec := range scope {
			for _, sub := range rec.SubRecords() {
				pos, ok := sub.Field("KeyPosition")
				pos = strings.TrimSpace(pos)
				if !ok || pos == "" || pos == "0" {
					continue
				}
				col, ok := sub.Field("Name")
				if !ok || seen[col] {
					continue
				}
				seen[col] = true
				lk.KeyColumns = append(lk.KeyColumns, col)
			}
		}

		for _, rec := range scope {
			if v, ok := rec.Field("LookupFail"); ok && lk.FailMode == "" {
				lk.FailMode = v
			}
			if v, ok := rec.Field("LookupType"); ok && lk.LookupType == "" {
				lk.LookupType = decode(lookupTypes, v)
			}
			if v, ok := rec.Field("ResidualHandler"); ok && lk.ResidualHandling == "" {
				lk.ResidualHandling = v
			}
		}

		if len(lk.Inputs) > 0 || len(lk.KeyColumns) > 0 {
			lookups = append(lookups, lk)
		}
	}
	return lookups
}

func splitPins(r *Record, key string) []string {
	v, ok := r.TopField(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(v, "|") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// extractDatasetTargets sweeps for Data Set file paths the connector pass did not
// catch. The owning stage is the first Name field within a fixed window before
// the path. This is a proximity heuristic and can pick the wrong stage in
// densely packed records. Every hit yields a target unless its stage was
// already reported by the connector pass.
func extractDatasetTargets(doc *Document, tables stageTables, opts Options, known []models.Target) []models.Target {
	var out []models.Target
	connector := make(map[string]bool, len(known))
	for _, t := range known {
		connector[t.Name] = true
	}

	for _, sub := range doc.SubRecords() {
		if name, _ := sub.Field("Name"); name != "dataset" {
			continue
		}
		path, ok := sub.Field("Value")
		if !ok || path == "" {
			continue
		}
		pos := sub.Span.Start
		for _, f := range sub.Fields {
			if f.Key == "Name" {
				pos = f.Pos
				break
			}
		}

		stage := "unknown"
		if spans := doc.FindSpans(reNameField, Span{Start: pos - opts.DatasetBackwardWindow, End: pos}); len(spans) > 0 {
			stage = doc.Slice(spans[0])
		}
		if connector[stage] {
			continue
		}

		tgt := models.Target{
			Name:    stage,
			Type:    tables.typeOf(stage, "dataset"),
			Dataset: path[strings.LastIndex(path, "/")+1:],
		}
		modeScope := Span{Start: pos - opts.DatasetModeWindow, End: pos + opts.DatasetModeWindow}
		if spans := doc.FindSpans(reDatasetMode, modeScope); len(spans) > 0 {
			tgt.Mode = decodeDatasetMode(doc.Slice(spans[0]))
		}
		out = append(out, tgt)
	}
	return out
}

func extractTransforms(doc *Document, filter RuleFilter) []models.Transform {
	transforms := make([]models.Transform, 0)
	for _, r := range doc.Records() {
		stage, ok := r.TopField("Name")
		if !ok || stage == "" {
			stage = "unknown"
		}
		for _, sub := range r.SubRecords() {
			if name, _ := sub.Field("Name"); name != "TrxGenCode" {
				continue
			}
			code, ok := sub.Field("Value")
			if !ok {
				continue
			}
			var rules []string
			for _, line := range strings.Split(strings.TrimSpace(code), "\n") {
				if filter.Keep(line) {
					rules = append(rules, reWhitespace.ReplaceAllString(strings.TrimSpace(line), " "))
				}
			}
			if len(rules) > 0 {
				transforms = append(transforms, models.Transform{Name: stage, Rules: rules})
			}
		}
	}
	return transforms
}

func extractFlow(doc *Document, tables stageTables) []models.FlowEdge {
	flow := make([]models.FlowEdge, 0)
	for _, r := range doc.Records() {
		from, okFrom := r.Field("FromStageID")
		to, okTo := r.Field("ToStageID")
		if !okFrom || !okTo {
			continue
		}
		flow = append(flow, models.FlowEdge{From: tables.nameOf(from), To: tables.nameOf(to)})
	}
	return flow
}
