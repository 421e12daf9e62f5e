package dsx

import (
	"strings"
	"time"
)

const (
	DefaultDatasetBackwardWindow = 500
	DefaultDatasetModeWindow     = 200
)

// RuleFilter decides which generated-code lines survive as transform rules.
// It is a denoising heuristic, not a code parser: a line is kept when it
// contains an assignment and matches none of the exclusions. The boilerplate
// vocabulary changes between DataStage releases, so both lists are configurable.
type RuleFilter struct {
	// ExcludePrefixes drop lines whose trimmed text starts with any entry.
	ExcludePrefixes []string
	// ExcludeContains drop lines containing any entry.
	ExcludeContains []string
}

// DefaultRuleFilter returns the exclusions known to appear in transformer generated code.
func DefaultRuleFilter() RuleFilter {
	return RuleFilter{
		ExcludePrefixes: []string{"//", "int"},
		ExcludeContains: []string{
			"RowRejected",
			"NullSet",
			"inputname",
			"outputname",
			"initialize",
			"mainloop",
			"finish",
			"writerecord",
		},
	}
}

// Keep reports whether line is a transform rule.
func (f RuleFilter) Keep(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || !strings.Contains(trimmed, "=") {
		return false
	}
	for _, p := range f.ExcludePrefixes {
		if strings.HasPrefix(trimmed, p) {
			return false
		}
	}
	for _, s := range f.ExcludeContains {
		if strings.Contains(trimmed, s) {
			return false
		}
	}
	return true
}

// Options tunes the heuristic parts of extraction.
type Options struct {
	Rules RuleFilter
	// DatasetBackwardWindow bounds the text searched before a dataset path for its stage name.
	DatasetBackwardWindow int
	// DatasetModeWindow bounds the text searched around a dataset path for its write mode.
	DatasetModeWindow int
	// Clock stamps ExtractionMetadata.ExtractedAt. Defaults to time.Now in UTC.
	Clock func() time.Time
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		Rules:                 DefaultRuleFilter(),
		DatasetBackwardWindow: DefaultDatasetBackwardWindow,
		DatasetModeWindow:     DefaultDatasetModeWindow,
	}
}

func (o *Options) applyDefaults() {
	if o.Rules.ExcludePrefixes == nil && o.Rules.ExcludeContains == nil {
		o.Rules = DefaultRuleFilter()
	}
	if o.DatasetBackwardWindow <= 0 {
		o.DatasetBackwardWindow = DefaultDatasetBackwardWindow
	}
	if o.DatasetModeWindow <= 0 {
		o.DatasetModeWindow = DefaultDatasetModeWindow
	}
	if o.Clock == nil {
		o.Clock = func() time.Time { return time.Now().UTC() }
	}
}
