package models

import "time"

// SchemaVersion is stamped on every extracted model.
const SchemaVersion = "1.1.0"

// UnknownLabel renders an unrecognized enumerated code. The code is preserved verbatim.
func UnknownLabel(code string) string {
	return "Unknown(" + code + ")"
}

// JobType is the decoded DSX JobType code.
type JobType string

const (
	JobTypeServer        JobType = "Server Job"
	JobTypeParallel      JobType = "Parallel Job"
	JobTypeSequence      JobType = "Sequence Job"
	JobTypeServerRoutine JobType = "Server Routine"
)

// ParamType is the decoded DSX ParamType code.
type ParamType string

const (
	ParamTypeString         ParamType = "String"
	ParamTypeInteger        ParamType = "Integer"
	ParamTypeFloat          ParamType = "Float"
	ParamTypePathname       ParamType = "Pathname"
	ParamTypeList           ParamType = "List"
	ParamTypeDate           ParamType = "Date"
	ParamTypeTime           ParamType = "Time"
	ParamTypeTimestamp      ParamType = "Timestamp"
	ParamTypeEnvironmentVar ParamType = "EnvironmentVar"
)

// WriteMode is the target write mode.
type WriteMode string

const (
	WriteModeAppend   WriteMode = "Append"
	WriteModeCreate   WriteMode = "Create"
	WriteModeTruncate WriteMode = "Truncate"
	WriteModeReplace  WriteMode = "Replace"
)

// LookupType is the decoded lookup method.
type LookupType string

const (
	LookupTypeNormal LookupType = "Normal"
	LookupTypeSparse LookupType = "Sparse"
	LookupTypeRange  LookupType = "Range"
)

// JobMetadata is the normalized model recovered from one DSX document.
// It is built once by the parser and never mutated afterwards.
type JobMetadata struct {
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	Type              JobType            `json:"type"`
	Parameters        []Parameter        `json:"parameters"`
	Sources           []Source           `json:"sources"`
	Targets           []Target           `json:"targets"`
	Transforms        []Transform        `json:"transforms"`
	Lookups           []Lookup           `json:"lookups"`
	SpecializedStages []SpecializedStage `json:"specialized_stages"`
	Flow              []FlowEdge         `json:"flow"`
	Metadata          ExtractionMetadata `json:"metadata"`
}

// ExtractionMetadata records when and with which schema a model was extracted.
type ExtractionMetadata struct {
	ExtractedAt   time.Time `json:"extracted_at"`
	SchemaVersion string    `json:"version"`
}

type Parameter struct {
	Name    string    `json:"name"`
	Prompt  string    `json:"prompt"`
	Default string    `json:"default"`
	Help    string    `json:"help"`
	Type    ParamType `json:"type"`
}

type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

type Source struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	SQL          string   `json:"sql,omitempty"`
	Table        string   `json:"table,omitempty"`
	Connection   string   `json:"connection,omitempty"`
	Database     string   `json:"database,omitempty"`
	WhereClauses []string `json:"where_clauses,omitempty"`
	Columns      []Column `json:"columns,omitempty"`
}

type Target struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Table      string    `json:"table,omitempty"`
	Dataset    string    `json:"dataset,omitempty"`
	Mode       WriteMode `json:"mode,omitempty"`
	Connection string    `json:"connection,omitempty"`
	Database   string    `json:"database,omitempty"`
	Columns    []Column  `json:"columns,omitempty"`
}

// Transform holds the assignment-like lines kept from a transformer's generated code.
type Transform struct {
	Name  string   `json:"name"`
	Rules []string `json:"rules"`
}

type Lookup struct {
	Name             string     `json:"name"`
	Inputs           []string   `json:"inputs"`
	Output           string     `json:"output"`
	KeyColumns       []string   `json:"key_columns"`
	FailMode         string     `json:"fail_mode"`
	LookupType       LookupType `json:"lookup_type,omitempty"`
	ResidualHandling string     `json:"residual_handling,omitempty"`
}

// FlowEdge connects two stages by name.
type FlowEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Validation is the advisory result of structural checks on a JobMetadata.
type Validation struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// ParsedDocument pairs a model with its validation, keyed by the source document name.
type ParsedDocument struct {
	DocumentName string       `json:"original_file"`
	Model        *JobMetadata `json:"data"`
	Validation   Validation   `json:"validation"`
}
