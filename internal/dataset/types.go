package dataset

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"StatBoardApi/internal/catalog"
)

// PlayerRow is one player's flat stat mapping as delivered by a source: fixed
// identity fields plus one entry per stat key, numeric or null.
type PlayerRow map[string]any

// PlayerID returns the stable identity shared by season and range datasets.
// Sources are inconsistent about emitting it as a number or a string.
func (r PlayerRow) PlayerID() (int64, bool) {
	switch v := r["player_id"].(type) {
	case float64:
		return int64(v), true
	case json.Number:
		id, err := v.Int64()
		return id, err == nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}

func (r PlayerRow) str(key string) string {
	s, _ := r[key].(string)
	return s
}

func (r PlayerRow) Name() string { return r.str("name") }
func (r PlayerRow) Team() string { return r.str("team") }

// Num returns the numeric value for key. Absent, null and non-numeric values
// all report ok=false.
func (r PlayerRow) Num(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Qualified reports the row's explicit qualification flag. Rows without the
// flag count as qualified; only qual=false or qual=0 excludes a row.
func (r PlayerRow) Qualified() bool {
	switch v := r["qual"].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return true
	}
}

func (r PlayerRow) Clone() PlayerRow {
	out := make(PlayerRow, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

type Meta struct {
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source"`
}

// Snapshot is a precomputed full-season dataset for one mode and year.
type Snapshot struct {
	Players []PlayerRow `json:"players"`
	Meta    *Meta       `json:"meta"`
}

// decodeSnapshot accepts both payload shapes the mirror serves: a bare array
// of rows, or the {players, meta} envelope.
func decodeSnapshot(blob []byte) (Snapshot, error) {
	trimmed := strings.TrimLeftFunc(string(blob), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	if strings.HasPrefix(trimmed, "[") {
		var players []PlayerRow
		if err := json.Unmarshal(blob, &players); err != nil {
			return Snapshot{}, err
		}
		return Snapshot{Players: sanitizeRows(players)}, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return Snapshot{}, err
	}
	snap.Players = sanitizeRows(snap.Players)
	return snap, nil
}

// sanitizeRows drops rows without a usable player_id and keeps the first row
// for a duplicated id, preserving the id-uniqueness invariant at the ingestion
// boundary.
func sanitizeRows(rows []PlayerRow) []PlayerRow {
	out := make([]PlayerRow, 0, len(rows))
	seen := make(map[int64]bool, len(rows))
	for _, row := range rows {
		id, ok := row.PlayerID()
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, row)
	}
	return out
}

// RowsByID indexes rows by player id for merge lookups.
func RowsByID(rows []PlayerRow) map[int64]PlayerRow {
	byID := make(map[int64]PlayerRow, len(rows))
	for _, row := range rows {
		if id, ok := row.PlayerID(); ok {
			byID[id] = row
		}
	}
	return byID
}

// RangeParams is the full identity of one range query. Two parameter sets that
// differ in any field are distinct cache entries.
type RangeParams struct {
	Mode      catalog.Mode
	Year      int
	Start     string // YYYY-MM-DD
	End       string // YYYY-MM-DD
	Statcast  bool
	PlayerIDs []int64
}

func (p RangeParams) key() string {
	ids := make([]int64, len(p.PlayerIDs))
	copy(ids, p.PlayerIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	return fmt.Sprintf("%s|%d|%s|%s|%t|%s",
		p.Mode, p.Year, p.Start, p.End, p.Statcast, strings.Join(parts, ","))
}

// FullSeasonWindow is the fixed in-season window synthesized when a
// statcast-only key needs the range source outside explicit range mode.
func FullSeasonWindow(year int) (start, end string) {
	return fmt.Sprintf("%d-03-01", year), fmt.Sprintf("%d-11-30", year)
}

// RangeFetchError reports a failed range or statcast query. There is no
// fallback source for these, so callers surface it to the user instead of
// degrading.
type RangeFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RangeFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("range fetch %s: %s", e.URL, e.Err)
	}
	return fmt.Sprintf("range fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *RangeFetchError) Unwrap() error { return e.Err }
