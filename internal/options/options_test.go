package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetemplate/lessonview"
	"github.com/livetemplate/lessonview/internal/cell"
)

func predict(explicit *lessonview.OptionsStyleType, rows [][]string) Style {
	return Predict(explicit, cell.ParseTable(rows), cell.LocationGrid(rows))
}

func TestPredictFullGridIsByColumn(t *testing.T) {
	style := predict(nil, [][]string{
		{"x|a|y", "x|b|y"},
		{"x|c|y", "x|d|y"},
	})

	byCol, ok := style.(ByColumn)
	require.True(t, ok, "expected ByColumn, got %T", style)
	require.Len(t, byCol.Columns, 2)
	assert.ElementsMatch(t, []string{"a", "c"}, byCol.Columns[0])
	assert.ElementsMatch(t, []string{"b", "d"}, byCol.Columns[1])
	assert.ElementsMatch(t, []string{"b", "d"}, style.For(1))
	assert.Nil(t, style.For(2))
}

func TestPredictSingleRowKeepsSingleOptionColumns(t *testing.T) {
	style := predict(nil, [][]string{{"bhav|aami|", "bhav|aama|"}})

	byCol, ok := style.(ByColumn)
	require.True(t, ok, "expected ByColumn, got %T", style)
	assert.Equal(t, [][]string{{"aami"}, {"aama"}}, byCol.Columns)
}

func TestPredictHeaderRowsOutsideGrid(t *testing.T) {
	style := predict(nil, [][]string{
		{"person", "singular", "plural"},
		{"|1st|", "bhav|āmi|", "bhav|āma|"},
		{"|2nd|", "bhav|asi|", "bhav|atha|"},
	})

	byCol, ok := style.(ByColumn)
	require.True(t, ok, "expected ByColumn, got %T", style)
	require.Len(t, byCol.Columns, 3)
	assert.ElementsMatch(t, []string{"1st", "2nd"}, byCol.Columns[0])
	assert.ElementsMatch(t, []string{"āmi", "asi"}, byCol.Columns[1])
}

func TestPredictNotFromFirstColumnDowngrades(t *testing.T) {
	style := predict(nil, [][]string{{"label", "x|ans|y"}})
	assert.Equal(t, Disabled{}, style)
	assert.True(t, IsDisabled(style))
}

func TestPredictNotFromFirstColumnIsAll(t *testing.T) {
	style := predict(nil, [][]string{
		{"body", "|kāya|"},
		{"time", "|kāla|"},
		{"body", "|kāya|"},
	})

	all, ok := style.(All)
	require.True(t, ok, "expected All, got %T", style)
	assert.ElementsMatch(t, []string{"kāya", "kāla"}, all.Options)
	assert.ElementsMatch(t, []string{"kāya", "kāla"}, style.For(7))
}

func TestPredictTriangleIsAll(t *testing.T) {
	style := predict(nil, [][]string{
		{"x|a|", "label"},
		{"x|b|", "x|c|"},
	})

	all, ok := style.(All)
	require.True(t, ok, "expected All, got %T", style)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, all.Options)
}

func TestPredictDisjointBlocksIsAll(t *testing.T) {
	style := predict(nil, [][]string{
		{"|a|", "|b|"},
		{"gap", "gap"},
		{"|c|", "|d|"},
	})

	_, ok := style.(All)
	assert.True(t, ok, "expected All, got %T", style)
}

func TestPredictNoInteractiveCells(t *testing.T) {
	assert.Equal(t, Disabled{}, predict(nil, [][]string{{"a", "b"}, {"c"}}))
	assert.Equal(t, Disabled{}, predict(nil, nil))
}

func TestPredictExplicitOverride(t *testing.T) {
	rows := [][]string{
		{"x|a|y", "x|b|y"},
		{"x|c|y", "x|d|y"},
	}

	tests := []struct {
		name     string
		explicit lessonview.OptionsStyleType
		want     lessonview.OptionsStyleType
	}{
		{"disabled", lessonview.OptionsDisabled, lessonview.OptionsDisabled},
		{"all", lessonview.OptionsAll, lessonview.OptionsAll},
		{"by column", lessonview.OptionsByCol, lessonview.OptionsByCol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			explicit := tt.explicit
			style := predict(&explicit, rows)
			assert.Equal(t, tt.want, style.Type())
		})
	}
}

func TestPredictExplicitAllStillDowngrades(t *testing.T) {
	all := lessonview.OptionsAll
	style := predict(&all, [][]string{{"|same|", "|same|"}})
	assert.Equal(t, Disabled{}, style)
}

func TestPredictExplicitByColOnRaggedTable(t *testing.T) {
	byCol := lessonview.OptionsByCol
	style := predict(&byCol, [][]string{
		{"label", "|a|", "|b|"},
		{"|c|"},
	})

	cols, ok := style.(ByColumn)
	require.True(t, ok)
	require.Len(t, cols.Columns, 3)
	assert.Equal(t, []string{"c"}, cols.Columns[0])
	assert.Equal(t, []string{"a"}, cols.Columns[1])
	assert.Equal(t, []string{"b"}, cols.Columns[2])
}
