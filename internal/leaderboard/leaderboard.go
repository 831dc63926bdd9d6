package leaderboard

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"StatBoardApi/internal/catalog"
	"StatBoardApi/internal/dataset"
)

const BoardSize = 25

var (
	// ErrNoData marks a board computed over an empty dataset.
	ErrNoData = errors.New("no data for leaderboard")
	// ErrNoQualified marks a non-empty dataset in which no row survived the
	// eligibility filters. Distinct from ErrNoData so the caller can render
	// "no qualified players" instead of "no data at all".
	ErrNoQualified = errors.New("no qualified players")
)

// Role is the starter/reliever classification for pitchers. Hitter boards
// leave it empty.
type Role string

const (
	RoleStarters  Role = "starters"
	RoleRelievers Role = "relievers"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStarters, RoleRelievers:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown pitcher role %q", s)
	}
}

type Entry struct {
	Rank      int               `json:"rank"`
	PlayerID  int64             `json:"player_id"`
	Name      string            `json:"name"`
	Team      string            `json:"team"`
	Value     float64           `json:"value"`
	Formatted string            `json:"formatted"`
	Row       dataset.PlayerRow `json:"row"`
}

// Minimum-sample qualification thresholds.
const (
	hitterMinPA  = 150.0
	hitterMinG   = 20.0
	pitcherMinIP = 50.0
	pitcherMinG  = 10.0
)

// Rank builds the top-25 board for statKey over rows. Pitcher boards are
// filtered to role; hitter boards pass an empty role. An unknown stat key is a
// configuration error and no ranking is attempted.
func Rank(registry *catalog.Registry, mode catalog.Mode, statKey string,
	rows []dataset.PlayerRow, role Role) ([]Entry, error) {
	def, err := registry.Lookup(mode, statKey)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrNoData
	}

	eligible := make([]dataset.PlayerRow, 0, len(rows))
	for _, row := range rows {
		if _, ok := row.Num(statKey); !ok {
			continue
		}
		if row.Team() == "" || !row.Qualified() {
			continue
		}
		if mode == catalog.ModePitchers && role != "" {
			r, ok := classifyRole(row)
			if !ok || r != role {
				continue
			}
		}
		eligible = append(eligible, row)
	}

	qualified := applyQualification(mode, rows, eligible)

	// A thin qualified set must not shrink the board below what the dataset
	// can otherwise show.
	board := qualified
	if len(qualified) < BoardSize {
		board = eligible
	}

	if len(board) == 0 {
		return nil, ErrNoQualified
	}

	board = slices.Clone(board)
	slices.SortStableFunc(board, func(a, b dataset.PlayerRow) int {
		av, _ := a.Num(statKey)
		bv, _ := b.Num(statKey)
		switch {
		case av == bv:
			return 0
		case def.LowerIsBetter == (av < bv):
			return -1
		default:
			return 1
		}
	})

	if len(board) > BoardSize {
		board = board[:BoardSize]
	}

	entries := make([]Entry, len(board))
	for i, row := range board {
		id, _ := row.PlayerID()
		value, _ := row.Num(statKey)
		entries[i] = Entry{
			Rank:      i + 1,
			PlayerID:  id,
			Name:      row.Name(),
			Team:      row.Team(),
			Value:     value,
			Formatted: FormatValue(def.Format, value),
			Row:       row,
		}
	}

	return entries, nil
}

// classifyRole infers a pitcher's role from the games-started ratio, falling
// back to innings per game. Rows with neither signal are undetermined and
// excluded from role-filtered boards.
func classifyRole(row dataset.PlayerRow) (Role, bool) {
	g, hasG := row.Num("g")
	gs, hasGS := row.Num("gs")
	ip, hasIP := row.Num("ip")

	switch {
	case hasG && hasGS:
		if g > 0 && gs/g >= 0.5 {
			return RoleStarters, true
		}
		return RoleRelievers, true
	case hasG && hasIP:
		if g > 0 && ip/g >= 3 {
			return RoleStarters, true
		}
		return RoleRelievers, true
	default:
		return "", false
	}
}

// applyQualification filters eligible rows through the population's
// minimum-sample thresholds. A threshold only applies when its field exists
// anywhere in the dataset; partial sources skip the check instead of failing
// everyone.
func applyQualification(mode catalog.Mode, all,
	eligible []dataset.PlayerRow) []dataset.PlayerRow {
	type check struct {
		field string
		min   float64
	}

	var checks []check
	switch mode {
	case catalog.ModePitchers:
		checks = []check{{"ip", pitcherMinIP}, {"g", pitcherMinG}}
	default:
		checks = []check{{"pa", hitterMinPA}, {"g", hitterMinG}}
	}

	active := make([]check, 0, len(checks))
	for _, ch := range checks {
		if fieldPresent(all, ch.field) {
			active = append(active, ch)
		}
	}

	qualified := make([]dataset.PlayerRow, 0, len(eligible))
	for _, row := range eligible {
		ok := true
		for _, ch := range active {
			if v, has := row.Num(ch.field); !has || v < ch.min {
				ok = false
				break
			}
		}
		if ok {
			qualified = append(qualified, row)
		}
	}

	return qualified
}

func fieldPresent(rows []dataset.PlayerRow, field string) bool {
	for _, row := range rows {
		if _, ok := row.Num(field); ok {
			return true
		}
	}
	return false
}

// FormatValue renders a stat value per its catalog format: rates in the
// leading-dot ".300" convention and percents scaled up from fractions.
func FormatValue(format catalog.Format, value float64) string {
	switch format {
	case catalog.FormatInteger:
		return strconv.FormatFloat(value, 'f', 0, 64)
	case catalog.FormatFloat:
		return strconv.FormatFloat(value, 'f', 2, 64)
	case catalog.FormatRate:
		s := strconv.FormatFloat(value, 'f', 3, 64)
		return strings.TrimPrefix(s, "0")
	case catalog.FormatPercent:
		return strconv.FormatFloat(value*100, 'f', 1, 64) + "%"
	default:
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
}
