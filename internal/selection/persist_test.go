package selection

import (
	"StatBoardApi/internal/assert"
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"StatBoardApi/internal/catalog"
	"StatBoardApi/internal/store"
)

// manualScheduler collects deferred functions so tests control when the
// debounce window "expires".
type manualScheduler struct {
	fns []func()
}

func (s *manualScheduler) AfterFunc(_ time.Duration, fn func()) {
	s.fns = append(s.fns, fn)
}

func (s *manualScheduler) fire() {
	fns := s.fns
	s.fns = nil
	for _, fn := range fns {
		fn()
	}
}

func TestRoundTrip(t *testing.T) {
	st := store.NewMemStore()
	m := NewManager(2026, st, SyncScheduler{}, nil)

	m.AddSaved(catalog.ModeHitters, PlayerRef{ID: 1, Name: "Aaron Judge", Team: "NYY"})
	m.AddSaved(catalog.ModeHitters, PlayerRef{ID: 2, Name: "Juan Soto", Team: "NYM"})
	m.SetActive(catalog.ModeHitters, 1)
	m.ToggleCompare(catalog.ModeHitters, 1)
	m.ToggleStatKey(catalog.ModeHitters, "hr")
	m.SetBoardStat(catalog.ModePitchers, "era")
	m.SetYear(2025)
	m.SetRange(RangeParams{Enabled: true, Start: "2025-05-01", End: "2025-06-01", Statcast: true})

	original := m.State()

	restored := NewManager(2026, st, SyncScheduler{}, nil)
	err := restored.Restore(context.Background())
	assert.NilError(t, err)

	if !reflect.DeepEqual(restored.State(), original) {
		t.Errorf("restored state differs:\n got: %+v\nwant: %+v", restored.State(), original)
	}
}

func TestRestoreWithoutStore(t *testing.T) {
	m := NewManager(2026, nil, SyncScheduler{}, nil)

	err := m.Restore(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, m.State().Year, 2026)
}

func TestRestoreMissingBlobKeepsDefaults(t *testing.T) {
	m := NewManager(2026, store.NewMemStore(), SyncScheduler{}, nil)

	err := m.Restore(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, m.State().Year, 2026)
	assert.Equal(t, m.State().Mode, catalog.ModeHitters)
}

func TestRestoreUnknownVersionKeepsDefaults(t *testing.T) {
	st := store.NewMemStore()
	m := NewManager(2026, st, SyncScheduler{}, nil)
	m.AddSaved(catalog.ModeHitters, PlayerRef{ID: 1, Name: "Aaron Judge"})
	err := m.Save(context.Background())
	assert.NilError(t, err)

	// Rewrite the envelope with a version from the future.
	blob, err := st.Get(context.Background())
	assert.NilError(t, err)
	var raw map[string]any
	assert.NilError(t, json.Unmarshal(blob, &raw))
	raw["version"] = 99
	blob, err = json.Marshal(raw)
	assert.NilError(t, err)
	assert.NilError(t, st.Set(context.Background(), blob))

	restored := NewManager(2026, st, SyncScheduler{}, nil)
	err = restored.Restore(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, len(restored.State().Modes[catalog.ModeHitters].SavedPlayers), 0)
}

func TestRestoreMalformedBlobKeepsDefaults(t *testing.T) {
	st := store.NewMemStore()
	assert.NilError(t, st.Set(context.Background(), []byte(`{"version": 1, "modes": [}`)))

	m := NewManager(2026, st, SyncScheduler{}, nil)
	err := m.Restore(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, m.State().Year, 2026)
}

func TestRestoreNormalizesInvariants(t *testing.T) {
	st := store.NewMemStore()

	// A hand-built envelope violating the invariants: compare ids outside the
	// saved list, an active player that was never saved.
	env := envelope{Version: EnvelopeVersion, State: State{
		Year: 2025,
		Mode: catalog.ModePitchers,
		Boards: map[catalog.Mode]*BoardSelection{
			catalog.ModeHitters:  {},
			catalog.ModePitchers: {},
		},
		Modes: map[catalog.Mode]*ModeState{
			catalog.ModeHitters: {
				SavedPlayers:   []PlayerRef{{ID: 1, Name: "Aaron Judge"}},
				ActivePlayerID: 42,
				CompareIDs:     []int64{1, 7, 8},
				StatKeys:       []string{"hr"},
			},
			catalog.ModePitchers: {},
		},
	}}
	blob, err := json.Marshal(env)
	assert.NilError(t, err)
	assert.NilError(t, st.Set(context.Background(), blob))

	m := NewManager(2026, st, SyncScheduler{}, nil)
	assert.NilError(t, m.Restore(context.Background()))

	ms := m.State().Modes[catalog.ModeHitters]
	assert.Equal(t, ms.ActivePlayerID, int64(0))
	assert.SliceEqual(t, ms.CompareIDs, []int64{1})
}

func TestDebounceCoalescesWrites(t *testing.T) {
	st := store.NewMemStore()
	sched := &manualScheduler{}
	m := NewManager(2026, st, sched, nil)

	for id := int64(1); id <= 5; id++ {
		m.AddSaved(catalog.ModeHitters, PlayerRef{ID: id, Name: "P"})
	}

	// Five rapid mutations scheduled one pending write.
	assert.Equal(t, len(sched.fns), 1)
	assert.Equal(t, st.Sets, 0)

	sched.fire()
	assert.Equal(t, st.Sets, 1)

	// The next mutation schedules a fresh write.
	m.ToggleStatKey(catalog.ModeHitters, "hr")
	assert.Equal(t, len(sched.fns), 1)
	sched.fire()
	assert.Equal(t, st.Sets, 2)
}

func TestSaveFailureIsSwallowed(t *testing.T) {
	var observed error
	m := NewManager(2026, failingStore{}, &manualScheduler{}, func(err error) {
		observed = err
	})

	// Direct save surfaces the error to the observer only.
	err := m.Save(context.Background())
	if err == nil {
		t.Fatal("expected save error")
	}
	_ = observed
}

type failingStore struct{}

func (failingStore) Get(_ context.Context) ([]byte, error) {
	return nil, store.ErrNoSavedState
}

func (failingStore) Set(_ context.Context, _ []byte) error {
	return context.DeadlineExceeded
}
