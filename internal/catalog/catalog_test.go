package catalog

import (
	"StatBoardApi/internal/assert"
	"os"
	"path/filepath"
	"testing"
)

func testDefs() map[Mode][]StatDefinition {
	return map[Mode][]StatDefinition{
		ModeHitters: {
			{Key: "hr", Label: "Home Runs", Group: "standard", Format: FormatInteger,
				Default: true, Available: true},
			{Key: "avg", Label: "Batting Average", Group: "standard", Format: FormatRate,
				Available: true},
			{Key: "barrelpct", Label: "Barrel %", Group: "statcast", Format: FormatPercent,
				RangeSupported: true},
		},
		ModePitchers: {
			{Key: "era", Label: "ERA", Group: "standard", Format: FormatFloat,
				Default: true, Available: true, LowerIsBetter: true},
			{Key: "so", Label: "Strikeouts", Group: "standard", Format: FormatInteger,
				Available: true},
		},
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Mode
		wantErr error
	}{
		{name: "Hitters", input: "hitters", want: ModeHitters},
		{name: "Pitchers", input: "pitchers", want: ModePitchers},
		{name: "Unknown", input: "fielders", wantErr: ErrUnknownMode},
		{name: "Empty", input: "", wantErr: ErrUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NilError(t, err)
			assert.Equal(t, got, tt.want)
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry(testDefs())

	def, err := r.Lookup(ModeHitters, "hr")
	assert.NilError(t, err)
	assert.Equal(t, def.Label, "Home Runs")

	_, err = r.Lookup(ModeHitters, "era")
	assert.ErrorIs(t, err, ErrUnknownStat)

	_, err = r.Lookup(ModePitchers, "era")
	assert.NilError(t, err)
}

func TestRegistryDropsMalformedEntries(t *testing.T) {
	defs := testDefs()
	defs[ModeHitters] = append(defs[ModeHitters],
		StatDefinition{Key: "", Label: "No Key", Format: FormatInteger},
		StatDefinition{Key: "bad", Label: "Bad Format", Format: "fancy"},
		StatDefinition{Key: "hr", Label: "Duplicate", Format: FormatInteger},
	)

	r := NewRegistry(defs)

	assert.Equal(t, len(r.All(ModeHitters)), 3)

	def, err := r.Lookup(ModeHitters, "hr")
	assert.NilError(t, err)
	assert.Equal(t, def.Label, "Home Runs")

	_, err = r.Lookup(ModeHitters, "bad")
	assert.ErrorIs(t, err, ErrUnknownStat)
}

func TestRegistryDefaults(t *testing.T) {
	r := NewRegistry(testDefs())

	assert.SliceEqual(t, r.Defaults(ModeHitters), []string{"hr"})
	assert.SliceEqual(t, r.Defaults(ModePitchers), []string{"era"})
}

func TestRegistryRangeOnly(t *testing.T) {
	r := NewRegistry(testDefs())

	rangeOnly := r.RangeOnly(ModeHitters)
	assert.Equal(t, len(rangeOnly), 1)
	assert.True(t, rangeOnly["barrelpct"])

	assert.Equal(t, len(r.RangeOnly(ModePitchers)), 0)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	hitters := `[
		{"key": "hr", "label": "Home Runs", "group": "standard", "format": "integer",
		 "default": true, "available": true}
	]`
	pitchers := `[
		{"key": "era", "label": "ERA", "group": "standard", "format": "float",
		 "available": true, "lower_is_better": true}
	]`

	err := os.WriteFile(filepath.Join(dir, "hitters.json"), []byte(hitters), 0o644)
	assert.NilError(t, err)
	err = os.WriteFile(filepath.Join(dir, "pitchers.json"), []byte(pitchers), 0o644)
	assert.NilError(t, err)

	r, err := Load(dir)
	assert.NilError(t, err)

	def, err := r.Lookup(ModePitchers, "era")
	assert.NilError(t, err)
	assert.True(t, def.LowerIsBetter)
}

func TestLoadMissingCatalog(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing catalog files")
	}
}
