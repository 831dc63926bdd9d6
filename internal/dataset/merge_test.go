package dataset

import (
	"StatBoardApi/internal/assert"
	"testing"
)

func row(id int64, fields map[string]any) PlayerRow {
	r := PlayerRow{"player_id": float64(id)}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

func TestMergeWhole(t *testing.T) {
	season := map[int64]PlayerRow{
		1: row(1, map[string]any{"name": "Aaron Judge", "hr": 45.0, "avg": 0.280}),
		2: row(2, map[string]any{"name": "Juan Soto", "hr": 30.0}),
	}
	ranged := map[int64]PlayerRow{
		1: row(1, map[string]any{"name": "Aaron Judge", "hr": 12.0}),
		3: row(3, map[string]any{"name": "Bobby Witt Jr.", "hr": 8.0}),
	}

	got := MergeWhole([]int64{1, 2, 3, 4}, ranged, season)

	assert.Equal(t, len(got), 3)

	// Both rows exist: range value wins, season-only field survives.
	hr, _ := got[0].Num("hr")
	assert.Equal(t, hr, 12.0)
	avg, ok := got[0].Num("avg")
	assert.True(t, ok)
	assert.Equal(t, avg, 0.280)

	// Season only.
	hr, _ = got[1].Num("hr")
	assert.Equal(t, hr, 30.0)

	// Range only.
	assert.Equal(t, got[2].Name(), "Bobby Witt Jr.")

	// Id 4 had neither row and was dropped.
	for _, r := range got {
		id, _ := r.PlayerID()
		if id == 4 {
			t.Error("id with no source row should be dropped")
		}
	}
}

func TestMergeWholeDoesNotMutateInputs(t *testing.T) {
	season := map[int64]PlayerRow{1: row(1, map[string]any{"hr": 10.0})}
	ranged := map[int64]PlayerRow{1: row(1, map[string]any{"hr": 3.0})}

	MergeWhole([]int64{1}, ranged, season)

	hr, _ := season[1].Num("hr")
	assert.Equal(t, hr, 10.0)
}

func TestMergeForKeys(t *testing.T) {
	tests := []struct {
		name       string
		ids        []int64
		season     map[int64]PlayerRow
		ranged     map[int64]PlayerRow
		keys       []string
		wantLen    int
		wantChecks func(t *testing.T, got []PlayerRow)
	}{
		{
			name:    "Overlay Named Key Only",
			ids:     []int64{1},
			season:  map[int64]PlayerRow{1: row(1, map[string]any{"hr": 10.0})},
			ranged:  map[int64]PlayerRow{1: row(1, map[string]any{"hr": 10.0, "barrelpct": 0.12})},
			keys:    []string{"barrelpct"},
			wantLen: 1,
			wantChecks: func(t *testing.T, got []PlayerRow) {
				hr, _ := got[0].Num("hr")
				assert.Equal(t, hr, 10.0)
				barrel, ok := got[0].Num("barrelpct")
				assert.True(t, ok)
				assert.Equal(t, barrel, 0.12)
			},
		},
		{
			name:    "Unnamed Range Keys Ignored",
			ids:     []int64{1},
			season:  map[int64]PlayerRow{1: row(1, map[string]any{"hr": 10.0})},
			ranged:  map[int64]PlayerRow{1: row(1, map[string]any{"hr": 99.0, "barrelpct": 0.12})},
			keys:    []string{"barrelpct"},
			wantLen: 1,
			wantChecks: func(t *testing.T, got []PlayerRow) {
				hr, _ := got[0].Num("hr")
				assert.Equal(t, hr, 10.0)
			},
		},
		{
			name:    "Range Row Fallback When No Season Row",
			ids:     []int64{2},
			season:  map[int64]PlayerRow{},
			ranged:  map[int64]PlayerRow{2: row(2, map[string]any{"barrelpct": 0.08})},
			keys:    []string{"barrelpct"},
			wantLen: 1,
		},
		{
			name:    "Neither Row Drops Id",
			ids:     []int64{5},
			season:  map[int64]PlayerRow{},
			ranged:  map[int64]PlayerRow{},
			keys:    []string{"barrelpct"},
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeForKeys(tt.ids, tt.ranged, tt.season, tt.keys)
			assert.Equal(t, len(got), tt.wantLen)
			if tt.wantChecks != nil {
				tt.wantChecks(t, got)
			}
		})
	}
}

func TestNeedsRangeSource(t *testing.T) {
	rangeOnly := map[string]bool{"barrelpct": true, "evavg": true}

	assert.True(t, NeedsRangeSource([]string{"hr", "barrelpct"}, rangeOnly))
	assert.Equal(t, NeedsRangeSource([]string{"hr", "avg"}, rangeOnly), false)
	assert.Equal(t, NeedsRangeSource(nil, rangeOnly), false)
}
