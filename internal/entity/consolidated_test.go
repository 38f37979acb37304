package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeWarnings(t *testing.T) {
	rec := ConsolidatedRecord{Meta: ConsolidatedMeta{Warnings: []string{"a", "b"}}}
	rec.MergeWarnings("b", "c", "c", "a", "d")
	assert.Equal(t, []string{"a", "b", "c", "c", "d"}, rec.Meta.Warnings)
}

func TestMergeWarnings_NilBecomesEmpty(t *testing.T) {
	var rec ConsolidatedRecord
	rec.MergeWarnings()
	require.NotNil(t, rec.Meta.Warnings)
	assert.Empty(t, rec.Meta.Warnings)
}

func TestConsolidatedRecord_AbsentValuesAreNull(t *testing.T) {
	rec := ConsolidatedRecord{
		Meta: ConsolidatedMeta{Warnings: []string{}},
		Rows: []ConsolidatedRow{{AccountName: "Revenue", Y2023: FloatPtr(10)}},
	}
	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	row := generic["rows"].([]any)[0].(map[string]any)
	assert.Nil(t, row["y2022"])
	assert.Contains(t, row, "y2022")
	assert.Equal(t, 10.0, row["y2023"])
	assert.Nil(t, generic["meta"].(map[string]any)["units"])
}
