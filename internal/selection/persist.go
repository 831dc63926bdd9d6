package selection

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"StatBoardApi/internal/catalog"
	"StatBoardApi/internal/store"
)

// EnvelopeVersion is bumped on any schema change. Persisted envelopes with any
// other version are discarded wholesale on load; schema drift must never
// produce a partially applied restore.
const EnvelopeVersion = 1

const debounceWindow = 50 * time.Millisecond

type envelope struct {
	Version int `json:"version"`
	State
}

// Scheduler defers a function, substitutable with a synchronous stub in tests.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// SyncScheduler runs the function immediately, for tests.
type SyncScheduler struct{}

func (SyncScheduler) AfterFunc(_ time.Duration, fn func()) {
	fn()
}

// scheduleSave coalesces rapid successive mutations into one debounced write.
// The write is fire-and-forget: failures reach onSave, never the user.
func (m *Manager) scheduleSave() {
	if m.store == nil {
		return
	}

	m.mu.Lock()
	if m.pendingSave {
		m.mu.Unlock()
		return
	}
	m.pendingSave = true
	m.mu.Unlock()

	m.sched.AfterFunc(debounceWindow, func() {
		m.mu.Lock()
		m.pendingSave = false
		m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := m.Save(ctx); err != nil && m.onSave != nil {
			m.onSave(err)
		}
	})
}

// Save writes the current state envelope through the store. With no store it
// is a no-op.
func (m *Manager) Save(ctx context.Context) error {
	if m.store == nil {
		return nil
	}

	m.mu.Lock()
	env := envelope{Version: EnvelopeVersion, State: m.snapshotLocked()}
	m.mu.Unlock()

	blob, err := json.Marshal(env)
	if err != nil {
		return err
	}

	return m.store.Set(ctx, blob)
}

// Restore replaces the manager's state with the persisted envelope. A missing
// blob, a parse failure or an unrecognized version all leave the defaults in
// place; restore never partially applies.
func (m *Manager) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}

	blob, err := m.store.Get(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoSavedState) {
			return nil
		}
		return err
	}

	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil
	}
	if env.Version != EnvelopeVersion {
		return nil
	}

	restored := env.State
	if restored.Boards == nil || restored.Modes == nil {
		return nil
	}
	for _, mode := range catalog.Modes {
		if restored.Boards[mode] == nil || restored.Modes[mode] == nil {
			return nil
		}
	}
	normalize(&restored)

	m.mu.Lock()
	m.state = restored
	m.mu.Unlock()

	return nil
}

// normalize re-establishes the selection invariants on untrusted persisted
// data: capacities, compare-set membership and the active player reference.
func normalize(s *State) {
	for _, ms := range s.Modes {
		if ms.SavedPlayers == nil {
			ms.SavedPlayers = make([]PlayerRef, 0)
		}
		if ms.CompareIDs == nil {
			ms.CompareIDs = make([]int64, 0)
		}
		if ms.StatKeys == nil {
			ms.StatKeys = make([]string, 0)
		}

		if len(ms.SavedPlayers) > MaxSaved {
			ms.SavedPlayers = ms.SavedPlayers[:MaxSaved]
		}
		if len(ms.StatKeys) > MaxStatKeys {
			ms.StatKeys = ms.StatKeys[:MaxStatKeys]
		}

		saved := make(map[int64]bool, len(ms.SavedPlayers))
		for _, p := range ms.SavedPlayers {
			saved[p.ID] = true
		}

		compare := make([]int64, 0, len(ms.CompareIDs))
		for _, id := range ms.CompareIDs {
			if saved[id] && len(compare) < MaxCompare {
				compare = append(compare, id)
			}
		}
		ms.CompareIDs = compare

		if ms.ActivePlayerID != 0 && !saved[ms.ActivePlayerID] {
			ms.ActivePlayerID = 0
		}
	}
}
