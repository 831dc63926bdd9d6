package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"StatBoardApi/internal/catalog"
)

// Client fetches player datasets from the three collaborators: the snapshot
// mirror, the bundled local copies, and the range/statcast query interface.
type Client struct {
	httpClient *http.Client
	mirrorBase string
	bundledDir string
	queryBase  string
}

func NewClient(mirrorBase, bundledDir, queryBase string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		mirrorBase: strings.TrimSuffix(mirrorBase, "/"),
		bundledDir: bundledDir,
		queryBase:  strings.TrimSuffix(queryBase, "/"),
	}
}

func snapshotFile(mode catalog.Mode, year int) string {
	return fmt.Sprintf("%s_%d.json", mode, year)
}

// rangePath maps a mode onto the query interface's route segment.
func rangePath(mode catalog.Mode) string {
	if mode == catalog.ModePitchers {
		return "pitchers"
	}
	return "players"
}

func (c *Client) getJSON(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	return body, resp.StatusCode, nil
}

// MirrorSnapshot fetches one season snapshot from the remote mirror.
func (c *Client) MirrorSnapshot(ctx context.Context, mode catalog.Mode, year int) (Snapshot, error) {
	url := fmt.Sprintf("%s/%s", c.mirrorBase, snapshotFile(mode, year))

	body, status, err := c.getJSON(ctx, url)
	if err != nil {
		return Snapshot{}, err
	}
	if status < 200 || status >= 300 {
		return Snapshot{}, fmt.Errorf("mirror snapshot %s: unexpected status %d", url, status)
	}

	return decodeSnapshot(body)
}

// BundledSnapshot reads the locally bundled season snapshot.
func (c *Client) BundledSnapshot(mode catalog.Mode, year int) (Snapshot, error) {
	blob, err := os.ReadFile(filepath.Join(c.bundledDir, snapshotFile(mode, year)))
	if err != nil {
		return Snapshot{}, err
	}
	return decodeSnapshot(blob)
}

// QuerySnapshot loads a full season straight from the query interface, the
// last-resort season source.
func (c *Client) QuerySnapshot(ctx context.Context, mode catalog.Mode, year int) (Snapshot, error) {
	url := fmt.Sprintf("%s/%s?year=%d", c.queryBase, rangePath(mode), year)

	body, status, err := c.getJSON(ctx, url)
	if err != nil {
		return Snapshot{}, err
	}
	if status < 200 || status >= 300 {
		return Snapshot{}, fmt.Errorf("query snapshot %s: unexpected status %d", url, status)
	}

	return decodeSnapshot(body)
}

// FetchRange issues the single authoritative range query. Any failure is a
// *RangeFetchError; there is no fallback chain for range data.
func (c *Client) FetchRange(ctx context.Context, p RangeParams) ([]PlayerRow, error) {
	ids := make([]string, len(p.PlayerIDs))
	for i, id := range p.PlayerIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	q := url.Values{}
	q.Set("year", strconv.Itoa(p.Year))
	q.Set("start", p.Start)
	q.Set("end", p.End)
	q.Set("player_ids", strings.Join(ids, ","))
	if p.Statcast {
		q.Set("include_statcast", "true")
	}

	reqURL := fmt.Sprintf("%s/%s/range?%s", c.queryBase, rangePath(p.Mode), q.Encode())

	body, status, err := c.getJSON(ctx, reqURL)
	if err != nil {
		return nil, &RangeFetchError{URL: reqURL, StatusCode: status, Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, &RangeFetchError{URL: reqURL, StatusCode: status}
	}

	var rows []PlayerRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &RangeFetchError{URL: reqURL, StatusCode: status, Err: err}
	}

	return sanitizeRows(rows), nil
}

// FetchStatcastLeaderboard pulls the population-wide rows for one statcast-only
// stat, used when the season snapshot lacks the key across the dataset.
func (c *Client) FetchStatcastLeaderboard(ctx context.Context, mode catalog.Mode, year int,
	statKey string) ([]PlayerRow, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("mode", string(mode))
	q.Set("stat_key", statKey)

	reqURL := fmt.Sprintf("%s/leaderboard/statcast?%s", c.queryBase, q.Encode())

	body, status, err := c.getJSON(ctx, reqURL)
	if err != nil {
		return nil, &RangeFetchError{URL: reqURL, StatusCode: status, Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, &RangeFetchError{URL: reqURL, StatusCode: status}
	}

	var rows []PlayerRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &RangeFetchError{URL: reqURL, StatusCode: status, Err: err}
	}

	return sanitizeRows(rows), nil
}
