package dsx_test

import (
	"testing"

	"github.com/kiranshivaraju/dsxmeta/internal/dsx"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecord(t *testing.T, stageType, text string) models.SpecializedStage {
	t.Helper()
	dec, ok := dsx.DecoderFor(stageType)
	require.True(t, ok, "no decoder for %s", stageType)
	doc := dsx.Scan(text)
	require.Len(t, doc.Records(), 1)
	name, _ := doc.Records()[0].TopField("Name")
	return dec(name, doc.Records()[0])
}

func TestDecodeJoin(t *testing.T) {
	st := decodeRecord(t, "PxJoin", `BEGIN DSRECORD
   Name "JN"
   StageType "PxJoin"
   JoinType "1"
   LeftKey "A"
   RightKey "B"
   LeftKey "C"
   RightKey "D"
   RightKey "ORPHAN"
END DSRECORD
`)
	assert.Equal(t, "JN", st.Name)
	assert.Equal(t, models.StageKindJoin, st.Kind)
	require.NotNil(t, st.Join)
	assert.Equal(t, models.JoinLeftOuter, st.Join.JoinType)
	assert.Equal(t, []models.JoinKey{{Left: "A", Right: "B"}, {Left: "C", Right: "D"}}, st.Join.JoinKeys)
}

func TestDecodeJoin_MissingTypeLeavesItUnset(t *testing.T) {
	st := decodeRecord(t, "PxJoin", "BEGIN DSRECORD\n   Name \"JN\"\nEND DSRECORD\n")
	require.NotNil(t, st.Join)
	assert.Empty(t, st.Join.JoinType)
	assert.Empty(t, st.Join.JoinKeys)
}

func TestDecodeAggregate(t *testing.T) {
	st := decodeRecord(t, "PxAggregate", `BEGIN DSRECORD
   Name "AGG"
   GroupByField "REGION"
   GroupByField "YEAR"
   AggregateField "TOTAL"
   AggregateFunction "0"
   InputField "AMOUNT"
   AggregateField "N"
   AggregateFunction "4"
   InputField "ID"
   AggregateField "ODD"
   AggregateFunction "99"
   InputField "X"
END DSRECORD
`)
	require.NotNil(t, st.Aggregate)
	assert.Equal(t, []string{"REGION", "YEAR"}, st.Aggregate.GroupBy)
	assert.Equal(t, []models.Aggregation{
		{Output: "TOTAL", Function: models.AggregateSum, Input: "AMOUNT"},
		{Output: "N", Function: models.AggregateCount, Input: "ID"},
		{Output: "ODD", Function: models.AggregateFunction("Unknown(99)"), Input: "X"},
	}, st.Aggregate.Aggregations)
}

func TestDecodeSurrogateKey(t *testing.T) {
	st := decodeRecord(t, "PxSurrogateKeyGenerator", `BEGIN DSRECORD
   Name "SKG"
   KeyName "CUST_SK"
   StartValue "100"
   Increment "x"
END DSRECORD
`)
	require.NotNil(t, st.SurrogateKey)
	assert.Equal(t, models.StageKindSurrogateKeyGenerator, st.Kind)
	assert.Equal(t, "CUST_SK", st.SurrogateKey.KeyColumn)
	require.NotNil(t, st.SurrogateKey.StartValue)
	assert.Equal(t, 100, *st.SurrogateKey.StartValue)
	assert.Nil(t, st.SurrogateKey.Increment)
}

func TestDecodeSort_UnpairedDirectionIgnored(t *testing.T) {
	st := decodeRecord(t, "PxSort", `BEGIN DSRECORD
   Name "S"
   SortDirection "0"
   Key "K1"
   Unique "0"
END DSRECORD
`)
	require.NotNil(t, st.Sort)
	assert.Empty(t, st.Sort.SortKeys)
	assert.Nil(t, st.Sort.Options.Stable)
	require.NotNil(t, st.Sort.Options.Unique)
	assert.False(t, *st.Sort.Options.Unique)
}

func TestDecoders_RecognizedOnlyKinds(t *testing.T) {
	tests := []struct {
		stageType string
		kind      models.StageKind
	}{
		{"PxPeek", models.StageKindPeek},
		{"PxSCD", models.StageKindSCD},
		{"PxPivot", models.StageKindPivot},
		{"PxUnpivot", models.StageKindUnpivot},
		{"PxChangeCapture", models.StageKindChangeCapture},
		{"PxChecksum", models.StageKindChecksum},
	}
	for _, tt := range tests {
		t.Run(tt.stageType, func(t *testing.T) {
			st := decodeRecord(t, tt.stageType, "BEGIN DSRECORD\n   Name \"STG\"\nEND DSRECORD\n")
			assert.Equal(t, models.SpecializedStage{Name: "STG", Kind: tt.kind}, st)
		})
	}
}

func TestDecoderFor_Unregistered(t *testing.T) {
	_, ok := dsx.DecoderFor("PxLookup")
	assert.False(t, ok)
}
