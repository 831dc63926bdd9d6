package catalog

import (
	"StatBoardApi/internal/validator"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrUnknownMode = errors.New("unknown player mode")
	ErrUnknownStat = errors.New("unknown stat key")
)

// Mode is the player population being queried. Each mode carries its own stat
// catalog and its own selection state.
type Mode string

const (
	ModeHitters  Mode = "hitters"
	ModePitchers Mode = "pitchers"
)

var Modes = []Mode{ModeHitters, ModePitchers}

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeHitters:
		return ModeHitters, nil
	case ModePitchers:
		return ModePitchers, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

type Format string

const (
	FormatInteger Format = "integer"
	FormatFloat   Format = "float"
	FormatRate    Format = "rate"
	FormatPercent Format = "percent"
	FormatRaw     Format = "raw"
)

// StatDefinition describes one selectable statistic. Available reports whether
// the stat is present in the base season snapshot; a stat that is
// range-supported but not available can only be served from the event-level
// range source.
type StatDefinition struct {
	Key            string `json:"key"`
	Label          string `json:"label"`
	Group          string `json:"group"`
	Format         Format `json:"format"`
	Default        bool   `json:"default"`
	Available      bool   `json:"available"`
	RangeSupported bool   `json:"range_supported"`
	LowerIsBetter  bool   `json:"lower_is_better"`
	Description    string `json:"description"`
}

func ValidateStatDefinition(v *validator.Validator, def StatDefinition) {
	v.Check(def.Key != "", "key", "must be provided")
	v.Check(def.Label != "", "label", "must be provided")
	v.Check(validator.PermittedValue(def.Format,
		FormatInteger, FormatFloat, FormatRate, FormatPercent, FormatRaw),
		"format", `must be one of "integer", "float", "rate", "percent", "raw"`)
}

// Registry holds the immutable stat catalogs, one per mode.
type Registry struct {
	defs  map[Mode][]StatDefinition
	byKey map[Mode]map[string]StatDefinition
}

// NewRegistry indexes the given definitions. Entries that fail validation and
// duplicate keys within a mode are dropped rather than propagated; the catalog
// is external input and a malformed entry must not poison formatting logic.
func NewRegistry(defs map[Mode][]StatDefinition) *Registry {
	r := &Registry{
		defs:  make(map[Mode][]StatDefinition),
		byKey: make(map[Mode]map[string]StatDefinition),
	}

	for _, mode := range Modes {
		r.byKey[mode] = make(map[string]StatDefinition)
		for _, def := range defs[mode] {
			v := validator.New()
			if ValidateStatDefinition(v, def); !v.Valid() {
				continue
			}
			if _, dup := r.byKey[mode][def.Key]; dup {
				continue
			}
			r.byKey[mode][def.Key] = def
			r.defs[mode] = append(r.defs[mode], def)
		}
	}

	return r
}

// Load reads one static JSON catalog per mode from dir (hitters.json,
// pitchers.json).
func Load(dir string) (*Registry, error) {
	defs := make(map[Mode][]StatDefinition)

	for _, mode := range Modes {
		path := filepath.Join(dir, string(mode)+".json")
		blob, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s catalog: %w", mode, err)
		}

		var modeDefs []StatDefinition
		if err := json.Unmarshal(blob, &modeDefs); err != nil {
			return nil, fmt.Errorf("parsing %s catalog: %w", mode, err)
		}
		defs[mode] = modeDefs
	}

	return NewRegistry(defs), nil
}

func (r *Registry) Lookup(mode Mode, key string) (StatDefinition, error) {
	byKey, ok := r.byKey[mode]
	if !ok {
		return StatDefinition{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	def, ok := byKey[key]
	if !ok {
		return StatDefinition{}, fmt.Errorf("%w: %q", ErrUnknownStat, key)
	}

	return def, nil
}

func (r *Registry) All(mode Mode) []StatDefinition {
	out := make([]StatDefinition, len(r.defs[mode]))
	copy(out, r.defs[mode])
	return out
}

// Defaults returns the keys selected for a mode before the user has picked any.
func (r *Registry) Defaults(mode Mode) []string {
	keys := make([]string, 0)
	for _, def := range r.defs[mode] {
		if def.Default {
			keys = append(keys, def.Key)
		}
	}
	return keys
}

// RangeOnly returns the keys that require the supplemental event-level source:
// range-supported stats absent from the base season snapshot.
func (r *Registry) RangeOnly(mode Mode) map[string]bool {
	keys := make(map[string]bool)
	for _, def := range r.defs[mode] {
		if def.RangeSupported && !def.Available {
			keys[def.Key] = true
		}
	}
	return keys
}
