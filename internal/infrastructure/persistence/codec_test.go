package persistence

import (
	"encoding/json"
	"testing"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeSnapshot(t *testing.T) {
	snapshot := sampleSnapshot(t)

	data, err := EncodeSnapshot(snapshot)
	require.NoError(t, err)

	var probe map[string]any
	require.NoError(t, json.Unmarshal(data, &probe))
	assert.Equal(t, SnapshotFormat, probe["format"])

	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.True(t, decoded.SavedAt.Equal(savedAt))
	assert.Equal(t, snapshot.Tables, decoded.Tables)
	assert.Empty(t, decoded.Skipped)
}

func TestDecodeSnapshot_Corrupt(t *testing.T) {
	for _, input := range []string{"", "not json", "[1,2]", `{"format":"other/v9","grids":{}}`} {
		_, err := DecodeSnapshot([]byte(input))
		assert.ErrorIs(t, err, ErrCorruptSnapshot, "input %q", input)
	}
}

func TestDecodeSnapshot_SkipsUnknownGrids(t *testing.T) {
	doc := `{
		"format": "site-progress/v2",
		"saved_at": "2026-10-19T09:30:00Z",
		"grids": {
			"101동/indoor-unit": {"building": "101동", "process": "indoor-unit", "columns": ["층"], "rows": []},
			"bogus": {"building": "", "process": "", "columns": [], "rows": []},
			"x": {"building": "102동", "process": "welding", "columns": [], "rows": []}
		}
	}`
	snapshot, err := DecodeSnapshot([]byte(doc))
	require.NoError(t, err)
	assert.Len(t, snapshot.Tables, 1)
	assert.ElementsMatch(t, []string{"bogus", "x"}, snapshot.Skipped)
}

func TestDecodeSnapshot_LegacySplit(t *testing.T) {
	doc := `{
		"df_101동_실내기": {
			"columns": ["층", "1호", "2호", "비고"],
			"data": [["20F", "V", "", "note"], ["19F", null, "1902", 7]]
		}
	}`
	snapshot, err := DecodeSnapshot([]byte(doc))
	require.NoError(t, err)

	key := progress.NewGridKey(101, progress.ProcessIndoorUnit)
	require.Contains(t, snapshot.Tables, key)
	table := snapshot.Tables[key]
	assert.Equal(t, []string{"층", "1호", "2호", "비고"}, table.Columns)
	assert.Equal(t, [][]string{{"20F", "V", "", "note"}, {"19F", "", "1902", "7"}}, table.Rows)
	assert.True(t, snapshot.SavedAt.IsZero())
}

func TestDecodeSnapshot_LegacyRecords(t *testing.T) {
	doc := `{
		"df_107동_판넬": [
			{"층": "20F", "2호": "2002", "1호": "2001 ✔ 2026-10-01", "비고": ""},
			{"층": "19F", "2호": "1902", "1호": "1901", "비고": "x"}
		],
		"df_107동_용접": [],
		"settings": {"theme": "dark"}
	}`
	snapshot, err := DecodeSnapshot([]byte(doc))
	require.NoError(t, err)

	table := snapshot.Tables[progress.NewGridKey(107, progress.ProcessPanel)]
	assert.Equal(t, []string{"층", "2호", "1호", "비고"}, table.Columns)
	assert.Equal(t, []string{"20F", "2002", "2001 ✔ 2026-10-01", ""}, table.Rows[0])
	assert.Equal(t, []string{"19F", "1902", "1901", "x"}, table.Rows[1])
	assert.ElementsMatch(t, []string{"df_107동_용접", "settings"}, snapshot.Skipped)
}

func TestDecodeSnapshot_LegacyBadTable(t *testing.T) {
	doc := `{
		"df_101동_실내기": {"columns": [], "data": []},
		"df_102동_실외기": [{"층": "20F"}, {"a": "1", "b": "2"}]
	}`
	snapshot, err := DecodeSnapshot([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, snapshot.Tables)
	assert.Len(t, snapshot.Skipped, 2)
}

func TestScalarText(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"abc"`, "abc"},
		{`null`, ""},
		{`12`, "12"},
		{`12.0`, "12"},
		{`1.5`, "1.5"},
		{`true`, "true"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scalarText(json.RawMessage(tt.raw)), tt.raw)
	}
}
