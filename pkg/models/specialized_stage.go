package models

// StageKind discriminates the SpecializedStage variants.
type StageKind string

const (
	StageKindSort                  StageKind = "Sort"
	StageKindJoin                  StageKind = "Join"
	StageKindAggregate             StageKind = "Aggregate"
	StageKindSurrogateKeyGenerator StageKind = "Surrogate Key Generator"
	StageKindPeek                  StageKind = "Peek"
	StageKindSCD                   StageKind = "Slowly Changing Dimension"
	StageKindPivot                 StageKind = "Pivot"
	StageKindUnpivot               StageKind = "Unpivot"
	StageKindChangeCapture         StageKind = "Change Capture"
	StageKindChecksum              StageKind = "Checksum"
)

type SortDirection string

const (
	SortAscending  SortDirection = "Ascending"
	SortDescending SortDirection = "Descending"
)

type JoinType string

const (
	JoinInner      JoinType = "Inner"
	JoinLeftOuter  JoinType = "Left Outer"
	JoinRightOuter JoinType = "Right Outer"
	JoinFullOuter  JoinType = "Full Outer"
)

type AggregateFunction string

const (
	AggregateSum      AggregateFunction = "SUM"
	AggregateAvg      AggregateFunction = "AVG"
	AggregateMin      AggregateFunction = "MIN"
	AggregateMax      AggregateFunction = "MAX"
	AggregateCount    AggregateFunction = "COUNT"
	AggregateStdDev   AggregateFunction = "STDDEV"
	AggregateVariance AggregateFunction = "VARIANCE"
	AggregateFirst    AggregateFunction = "FIRST"
	AggregateLast     AggregateFunction = "LAST"
)

// SpecializedStage is a tagged union keyed by Kind. Exactly one of the variant
// pointers is set for Sort, Join, Aggregate and Surrogate Key Generator stages;
// the remaining kinds carry only Name and Kind.
type SpecializedStage struct {
	Name         string              `json:"name"`
	Kind         StageKind           `json:"type"`
	Sort         *SortConfig         `json:"sort,omitempty"`
	Join         *JoinConfig         `json:"join,omitempty"`
	Aggregate    *AggregateConfig    `json:"aggregate,omitempty"`
	SurrogateKey *SurrogateKeyConfig `json:"surrogate_key,omitempty"`
}

type SortKey struct {
	Column    string        `json:"column"`
	Direction SortDirection `json:"direction"`
}

type SortOptions struct {
	Stable *bool `json:"stable,omitempty"`
	Unique *bool `json:"unique,omitempty"`
}

type SortConfig struct {
	SortKeys []SortKey   `json:"sort_keys"`
	Options  SortOptions `json:"options"`
}

type JoinKey struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type JoinConfig struct {
	JoinType JoinType  `json:"join_type"`
	JoinKeys []JoinKey `json:"join_keys"`
}

type Aggregation struct {
	Output   string            `json:"output"`
	Function AggregateFunction `json:"function"`
	Input    string            `json:"input"`
}

type AggregateConfig struct {
	GroupBy      []string      `json:"group_by"`
	Aggregations []Aggregation `json:"aggregations"`
}

type SurrogateKeyConfig struct {
	KeyColumn  string `json:"key_column"`
	StartValue *int   `json:"start_value,omitempty"`
	Increment  *int   `json:"increment,omitempty"`
}
