package selection

import (
	"slices"
	"sync"

	"StatBoardApi/internal/catalog"
	"StatBoardApi/internal/leaderboard"
	"StatBoardApi/internal/store"
)

const (
	MaxSaved    = 10
	MaxCompare  = 5
	MaxStatKeys = 10
)

type PlayerRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Team string `json:"team"`
}

// ModeState is one mode's selection state. ActivePlayerID is zero when no
// player is active and otherwise always references an entry in SavedPlayers.
type ModeState struct {
	SavedPlayers   []PlayerRef `json:"saved_players"`
	ActivePlayerID int64       `json:"active_player_id"`
	CompareIDs     []int64     `json:"compare_ids"`
	StatKeys       []string    `json:"stat_keys"`
}

func newModeState() *ModeState {
	return &ModeState{
		SavedPlayers: make([]PlayerRef, 0),
		CompareIDs:   make([]int64, 0),
		StatKeys:     make([]string, 0),
	}
}

func (s *ModeState) clone() *ModeState {
	return &ModeState{
		SavedPlayers:   slices.Clone(s.SavedPlayers),
		ActivePlayerID: s.ActivePlayerID,
		CompareIDs:     slices.Clone(s.CompareIDs),
		StatKeys:       slices.Clone(s.StatKeys),
	}
}

// BoardSelection is the per-mode leaderboard choice. PitcherRole is only
// meaningful for the pitcher mode and stays empty for hitters.
type BoardSelection struct {
	StatKey     string           `json:"stat_key"`
	PitcherRole leaderboard.Role `json:"pitcher_role,omitempty"`
}

type RangeParams struct {
	Enabled  bool   `json:"enabled"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Statcast bool   `json:"include_statcast"`
}

// State is a deep snapshot of the whole selection state, as handed to callers
// and as serialized for persistence.
type State struct {
	Year   int                              `json:"year"`
	Mode   catalog.Mode                     `json:"mode"`
	Range  RangeParams                      `json:"range_params"`
	Boards map[catalog.Mode]*BoardSelection `json:"leaderboard"`
	Modes  map[catalog.Mode]*ModeState      `json:"modes"`
}

// Manager owns the mutable per-mode selection state for both populations and
// schedules debounced writes to an optional store. Both modes live in one
// explicit map so the engine can be instantiated many times without
// cross-contamination.
type Manager struct {
	mu    sync.Mutex
	state State

	store  store.Store
	sched  Scheduler
	onSave func(error)

	pendingSave bool
}

func defaultState(currentYear int) State {
	return State{
		Year: currentYear,
		Mode: catalog.ModeHitters,
		Boards: map[catalog.Mode]*BoardSelection{
			catalog.ModeHitters:  {},
			catalog.ModePitchers: {PitcherRole: leaderboard.RoleStarters},
		},
		Modes: map[catalog.Mode]*ModeState{
			catalog.ModeHitters:  newModeState(),
			catalog.ModePitchers: newModeState(),
		},
	}
}

// NewManager builds a manager with default state. st may be nil, in which case
// every persistence call is a no-op and the manager runs purely in memory.
// onSave observes background save failures and may be nil; save failures are
// never surfaced to users.
func NewManager(currentYear int, st store.Store, sched Scheduler, onSave func(error)) *Manager {
	if sched == nil {
		sched = TimerScheduler{}
	}
	return &Manager{
		state:  defaultState(currentYear),
		store:  st,
		sched:  sched,
		onSave: onSave,
	}
}

// State returns a deep copy of the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() State {
	out := State{
		Year:   m.state.Year,
		Mode:   m.state.Mode,
		Range:  m.state.Range,
		Boards: make(map[catalog.Mode]*BoardSelection, len(m.state.Boards)),
		Modes:  make(map[catalog.Mode]*ModeState, len(m.state.Modes)),
	}
	for mode, board := range m.state.Boards {
		b := *board
		out.Boards[mode] = &b
	}
	for mode, ms := range m.state.Modes {
		out.Modes[mode] = ms.clone()
	}
	return out
}

func (m *Manager) modeState(mode catalog.Mode) *ModeState {
	ms, ok := m.state.Modes[mode]
	if !ok {
		ms = newModeState()
		m.state.Modes[mode] = ms
	}
	return ms
}

// AddSaved appends player to the mode's saved list. Duplicates and additions
// past capacity are no-ops.
func (m *Manager) AddSaved(mode catalog.Mode, player PlayerRef) bool {
	m.mu.Lock()
	ms := m.modeState(mode)

	applied := false
	if len(ms.SavedPlayers) < MaxSaved &&
		!slices.ContainsFunc(ms.SavedPlayers, func(p PlayerRef) bool { return p.ID == player.ID }) {
		ms.SavedPlayers = append(ms.SavedPlayers, player)
		applied = true
	}
	m.mu.Unlock()

	if applied {
		m.scheduleSave()
	}
	return applied
}

// RemoveSaved removes the player and cascades: the id leaves the compare set
// and the active player is cleared when it was the removed one.
func (m *Manager) RemoveSaved(mode catalog.Mode, id int64) bool {
	m.mu.Lock()
	ms := m.modeState(mode)

	before := len(ms.SavedPlayers)
	ms.SavedPlayers = slices.DeleteFunc(ms.SavedPlayers, func(p PlayerRef) bool {
		return p.ID == id
	})
	applied := len(ms.SavedPlayers) != before

	if applied {
		ms.CompareIDs = slices.DeleteFunc(ms.CompareIDs, func(c int64) bool { return c == id })
		if ms.ActivePlayerID == id {
			ms.ActivePlayerID = 0
		}
	}
	m.mu.Unlock()

	if applied {
		m.scheduleSave()
	}
	return applied
}

// SetActive marks a saved player as the single active one. Ids outside the
// saved list are rejected, keeping the active-references-saved invariant.
func (m *Manager) SetActive(mode catalog.Mode, id int64) bool {
	m.mu.Lock()
	ms := m.modeState(mode)

	applied := false
	if id == 0 {
		ms.ActivePlayerID = 0
		applied = true
	} else if slices.ContainsFunc(ms.SavedPlayers, func(p PlayerRef) bool { return p.ID == id }) {
		ms.ActivePlayerID = id
		applied = true
	}
	m.mu.Unlock()

	if applied {
		m.scheduleSave()
	}
	return applied
}

// ToggleCompare adds or removes a saved player's id from the compare set.
// Additions past capacity, and ids not in the saved list, are no-ops.
func (m *Manager) ToggleCompare(mode catalog.Mode, id int64) bool {
	m.mu.Lock()
	ms := m.modeState(mode)

	applied := false
	if i := slices.Index(ms.CompareIDs, id); i >= 0 {
		ms.CompareIDs = slices.Delete(ms.CompareIDs, i, i+1)
		applied = true
	} else if len(ms.CompareIDs) < MaxCompare &&
		slices.ContainsFunc(ms.SavedPlayers, func(p PlayerRef) bool { return p.ID == id }) {
		ms.CompareIDs = append(ms.CompareIDs, id)
		applied = true
	}
	m.mu.Unlock()

	if applied {
		m.scheduleSave()
	}
	return applied
}

// ToggleStatKey adds or removes a stat key from the mode's selected set.
// Additions past capacity are no-ops.
func (m *Manager) ToggleStatKey(mode catalog.Mode, key string) bool {
	m.mu.Lock()
	ms := m.modeState(mode)

	applied := false
	if i := slices.Index(ms.StatKeys, key); i >= 0 {
		ms.StatKeys = slices.Delete(ms.StatKeys, i, i+1)
		applied = true
	} else if len(ms.StatKeys) < MaxStatKeys {
		ms.StatKeys = append(ms.StatKeys, key)
		applied = true
	}
	m.mu.Unlock()

	if applied {
		m.scheduleSave()
	}
	return applied
}

// ClearAll resets one mode's selection state.
func (m *Manager) ClearAll(mode catalog.Mode) {
	m.mu.Lock()
	m.state.Modes[mode] = newModeState()
	m.mu.Unlock()

	m.scheduleSave()
}

func (m *Manager) SetYear(year int) {
	m.mu.Lock()
	m.state.Year = year
	m.mu.Unlock()

	m.scheduleSave()
}

func (m *Manager) SetMode(mode catalog.Mode) {
	m.mu.Lock()
	m.state.Mode = mode
	m.mu.Unlock()

	m.scheduleSave()
}

func (m *Manager) SetRange(p RangeParams) {
	m.mu.Lock()
	m.state.Range = p
	m.mu.Unlock()

	m.scheduleSave()
}

func (m *Manager) SetBoardStat(mode catalog.Mode, key string) {
	m.mu.Lock()
	m.state.Boards[mode].StatKey = key
	m.mu.Unlock()

	m.scheduleSave()
}

func (m *Manager) SetBoardRole(mode catalog.Mode, role leaderboard.Role) {
	m.mu.Lock()
	m.state.Boards[mode].PitcherRole = role
	m.mu.Unlock()

	m.scheduleSave()
}

// CurrentParams reports the request identity of the manager's current view:
// year plus range params. Async results keyed differently are stale and must
// be discarded by callers.
func (m *Manager) CurrentParams() (int, RangeParams) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Year, m.state.Range
}
