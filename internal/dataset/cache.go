package dataset

import (
	"context"
	"fmt"
	"sync"

	"StatBoardApi/internal/catalog"
	"StatBoardApi/internal/jsonlog"
)

// Fetcher is the source surface the cache sits on. *Client satisfies it.
type Fetcher interface {
	MirrorSnapshot(ctx context.Context, mode catalog.Mode, year int) (Snapshot, error)
	BundledSnapshot(mode catalog.Mode, year int) (Snapshot, error)
	QuerySnapshot(ctx context.Context, mode catalog.Mode, year int) (Snapshot, error)
	FetchRange(ctx context.Context, p RangeParams) ([]PlayerRow, error)
	FetchStatcastLeaderboard(ctx context.Context, mode catalog.Mode, year int,
		statKey string) ([]PlayerRow, error)
}

type seasonKey struct {
	mode catalog.Mode
	year int
}

type seasonEntry struct {
	done chan struct{}
	snap Snapshot
	ok   bool
}

type rangeEntry struct {
	done chan struct{}
	rows []PlayerRow
	err  error
}

// Cache memoizes season snapshots and range results for the life of the
// session. The in-flight call is cached, not just the resolved value, so an
// already-pending key is never fetched twice.
type Cache struct {
	fetcher     Fetcher
	currentYear int
	logger      *jsonlog.Logger

	mu      sync.Mutex
	seasons map[seasonKey]*seasonEntry
	ranges  map[string]*rangeEntry
	boards  map[string]*rangeEntry
}

func NewCache(fetcher Fetcher, currentYear int, logger *jsonlog.Logger) *Cache {
	return &Cache{
		fetcher:     fetcher,
		currentYear: currentYear,
		logger:      logger,
		seasons:     make(map[seasonKey]*seasonEntry),
		ranges:      make(map[string]*rangeEntry),
		boards:      make(map[string]*rangeEntry),
	}
}

// Season resolves the snapshot for (mode, year) through the fallback chain.
// When every source fails the result is an empty snapshot with nil meta, never
// an error, and the failure is not memoized so a later manual retry can
// re-issue the chain.
func (c *Cache) Season(ctx context.Context, mode catalog.Mode, year int) Snapshot {
	key := seasonKey{mode: mode, year: year}

	c.mu.Lock()
	e, pending := c.seasons[key]
	if !pending {
		e = &seasonEntry{done: make(chan struct{})}
		c.seasons[key] = e
	}
	c.mu.Unlock()

	if pending {
		<-e.done
		return e.snap
	}

	e.snap, e.ok = c.loadSeason(ctx, mode, year)
	if !e.ok {
		c.mu.Lock()
		delete(c.seasons, key)
		c.mu.Unlock()
	}
	close(e.done)

	return e.snap
}

func (c *Cache) loadSeason(ctx context.Context, mode catalog.Mode, year int) (Snapshot, bool) {
	for _, src := range ChooseOrder(year, c.currentYear) {
		var snap Snapshot
		var err error

		switch src {
		case SourceBundled:
			snap, err = c.fetcher.BundledSnapshot(mode, year)
		case SourceMirror:
			snap, err = c.fetcher.MirrorSnapshot(ctx, mode, year)
		case SourceQuery:
			snap, err = c.fetcher.QuerySnapshot(ctx, mode, year)
		}

		if err != nil {
			if c.logger != nil {
				c.logger.PrintError(err, map[string]string{
					"source": string(src),
					"mode":   string(mode),
					"year":   fmt.Sprint(year),
				})
			}
			continue
		}

		return snap, true
	}

	return Snapshot{}, false
}

// Range resolves one range query, memoizing successes by the full parameter
// tuple. Failures propagate as *RangeFetchError and are forgotten, so the only
// retry is the user re-triggering the action.
func (c *Cache) Range(ctx context.Context, p RangeParams) ([]PlayerRow, error) {
	return c.lookupRows(c.ranges, p.key(), func() ([]PlayerRow, error) {
		return c.fetcher.FetchRange(ctx, p)
	})
}

// StatcastBoard resolves the population-wide rows for one statcast-only stat.
func (c *Cache) StatcastBoard(ctx context.Context, mode catalog.Mode, year int,
	statKey string) ([]PlayerRow, error) {
	key := fmt.Sprintf("%s|%d|%s", mode, year, statKey)
	return c.lookupRows(c.boards, key, func() ([]PlayerRow, error) {
		return c.fetcher.FetchStatcastLeaderboard(ctx, mode, year, statKey)
	})
}

func (c *Cache) lookupRows(entries map[string]*rangeEntry, key string,
	fetch func() ([]PlayerRow, error)) ([]PlayerRow, error) {
	c.mu.Lock()
	e, pending := entries[key]
	if !pending {
		e = &rangeEntry{done: make(chan struct{})}
		entries[key] = e
	}
	c.mu.Unlock()

	if pending {
		<-e.done
		return e.rows, e.err
	}

	e.rows, e.err = fetch()
	if e.err != nil {
		c.mu.Lock()
		delete(entries, key)
		c.mu.Unlock()
	}
	close(e.done)

	return e.rows, e.err
}
