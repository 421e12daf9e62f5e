package dsx

import (
	"strconv"
	"strings"

	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

// Decoder turns one stage record into its typed configuration. Decoders are
// total: a missing field leaves the corresponding attribute unset.
type Decoder func(name string, rec *Record) models.SpecializedStage

// decoders is keyed by internal StageType. Types not listed here produce no
// specialized entry.
var decoders = map[string]Decoder{
	"PxSort":                  decodeSort,
	"PxJoin":                  decodeJoin,
	"PxAggregate":             decodeAggregate,
	"PxSurrogateKeyGenerator": decodeSurrogateKey,
	"PxPeek":                  stub(models.StageKindPeek),
	"PxSCD":                   stub(models.StageKindSCD),
	"PxPivot":                 stub(models.StageKindPivot),
	"PxUnpivot":               stub(models.StageKindUnpivot),
	"PxChangeCapture":         stub(models.StageKindChangeCapture),
	"PxChecksum":              stub(models.StageKindChecksum),
}

// DecoderFor returns the decoder registered for stageType.
func DecoderFor(stageType string) (Decoder, bool) {
	d, ok := decoders[stageType]
	return d, ok
}

func stub(kind models.StageKind) Decoder {
	return func(name string, _ *Record) models.SpecializedStage {
		return models.SpecializedStage{Name: name, Kind: kind}
	}
}

// decodeSort pairs each Key with the next SortDirection. "0" is ascending.
func decodeSort(name string, rec *Record) models.SpecializedStage {
	cfg := &models.SortConfig{SortKeys: make([]models.SortKey, 0)}

	var pending *string
	for _, f := range rec.Fields() {
		switch f.Key {
		case "Key":
			col := f.Value
			pending = &col
		case "SortDirection":
			if pending == nil {
				continue
			}
			dir := models.SortDescending
			if strings.TrimSpace(f.Value) == "0" {
				dir = models.SortAscending
			}
			cfg.SortKeys = append(cfg.SortKeys, models.SortKey{Column: *pending, Direction: dir})
			pending = nil
		}
	}

	if v, ok := rec.Field("Stable"); ok {
		stable := strings.TrimSpace(v) == "1"
		cfg.Options.Stable = &stable
	}
	if v, ok := rec.Field("Unique"); ok {
		unique := strings.TrimSpace(v) == "1"
		cfg.Options.Unique = &unique
	}

	return models.SpecializedStage{Name: name, Kind: models.StageKindSort, Sort: cfg}
}

func decodeJoin(name string, rec *Record) models.SpecializedStage {
	cfg := &models.JoinConfig{JoinKeys: make([]models.JoinKey, 0)}
	if code, ok := rec.Field("JoinType"); ok {
		cfg.JoinType = decode(joinTypes, code)
	}

	var left *string
	for _, f := range rec.Fields() {
		switch f.Key {
		case "LeftKey":
			v := f.Value
			left = &v
		case "RightKey":
			if left == nil {
				continue
			}
			cfg.JoinKeys = append(cfg.JoinKeys, models.JoinKey{Left: *left, Right: f.Value})
			left = nil
		}
	}

	return models.SpecializedStage{Name: name, Kind: models.StageKindJoin, Join: cfg}
}

// decodeAggregate collects GroupByField columns and AggregateField /
// AggregateFunction / InputField triples in document order.
func decodeAggregate(name string, rec *Record) models.SpecializedStage {
	cfg := &models.AggregateConfig{
		GroupBy:      make([]string, 0),
		Aggregations: make([]models.Aggregation, 0),
	}

	var (
		output   *string
		function *models.AggregateFunction
	)
	for _, f := range rec.Fields() {
		switch f.Key {
		case "GroupByField":
			cfg.GroupBy = append(cfg.GroupBy, f.Value)
		case "AggregateField":
			v := f.Value
			output, function = &v, nil
		case "AggregateFunction":
			if output == nil {
				continue
			}
			fn := decode(aggregateFunctions, f.Value)
			function = &fn
		case "InputField":
			if output == nil || function == nil {
				continue
			}
			cfg.Aggregations = append(cfg.Aggregations, models.Aggregation{
				Output:   *output,
				Function: *function,
				Input:    f.Value,
			})
			output, function = nil, nil
		}
	}

	return models.SpecializedStage{Name: name, Kind: models.StageKindAggregate, Aggregate: cfg}
}

func decodeSurrogateKey(name string, rec *Record) models.SpecializedStage {
	cfg := &models.SurrogateKeyConfig{}
	if v, ok := rec.Field("KeyName"); ok {
		cfg.KeyColumn = v
	}
	cfg.StartValue = intField(rec, "StartValue")
	cfg.Increment = intField(rec, "Increment")

	return models.SpecializedStage{Name: name, Kind: models.StageKindSurrogateKeyGenerator, SurrogateKey: cfg}
}

func intField(rec *Record, key string) *int {
	v, ok := rec.Field(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil
	}
	return &n
}
