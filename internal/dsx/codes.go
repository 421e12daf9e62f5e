package dsx

import (
	"strings"

	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

var jobTypes = map[string]models.JobType{
	"0": models.JobTypeServer,
	"1": models.JobTypeParallel,
	"2": models.JobTypeSequence,
	"3": models.JobTypeServerRoutine,
}

var paramTypes = map[string]models.ParamType{
	"1":  models.ParamTypeString,
	"2":  models.ParamTypeInteger,
	"3":  models.ParamTypeFloat,
	"4":  models.ParamTypePathname,
	"5":  models.ParamTypeList,
	"6":  models.ParamTypeDate,
	"7":  models.ParamTypeTime,
	"8":  models.ParamTypeTimestamp,
	"13": models.ParamTypeEnvironmentVar,
}

// writeModes is indexed by the connector WriteMode property.
var writeModes = map[string]models.WriteMode{
	"0": models.WriteModeAppend,
	"1": models.WriteModeCreate,
	"2": models.WriteModeTruncate,
	"3": models.WriteModeReplace,
}

// datasetModes maps the Data Set stage datasetmode property.
var datasetModes = map[string]models.WriteMode{
	"append":    models.WriteModeAppend,
	"create":    models.WriteModeCreate,
	"truncate":  models.WriteModeTruncate,
	"overwrite": models.WriteModeReplace,
	"replace":   models.WriteModeReplace,
}

var lookupTypes = map[string]models.LookupType{
	"0": models.LookupTypeNormal,
	"1": models.LookupTypeSparse,
	"2": models.LookupTypeRange,
}

var joinTypes = map[string]models.JoinType{
	"0": models.JoinInner,
	"1": models.JoinLeftOuter,
	"2": models.JoinRightOuter,
	"3": models.JoinFullOuter,
}

var aggregateFunctions = map[string]models.AggregateFunction{
	"0": models.AggregateSum,
	"1": models.AggregateAvg,
	"2": models.AggregateMin,
	"3": models.AggregateMax,
	"4": models.AggregateCount,
	"5": models.AggregateStdDev,
	"6": models.AggregateVariance,
	"7": models.AggregateFirst,
	"8": models.AggregateLast,
}

// decode looks up code in table, falling back to the Unknown(code) label.
func decode[T ~string](table map[string]T, code string) T {
	if v, ok := table[strings.TrimSpace(code)]; ok {
		return v
	}
	return T(models.UnknownLabel(code))
}

func decodeDatasetMode(v string) models.WriteMode {
	if m, ok := datasetModes[strings.ToLower(strings.TrimSpace(v))]; ok {
		return m
	}
	return decode(writeModes, v)
}
