package sampledata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/athleteprofile/pkg/logger"
)

// Report summarizes a verification run.
type Report struct {
	SnapshotID string
	Rows       int
	Ranked     int
	Top        []Entry
}

// Entry represents a leaderboard entry.
type Entry struct {
	Rank       int     `json:"rank"`
	Athlete    string  `json:"athlete"`
	Session    string  `json:"session"`
	Score      float64 `json:"score"`
	Percentile float64 `json:"percentile"`
}

type reloadResponse struct {
	SnapshotID string `json:"snapshot_id"`
	Rows       int    `json:"rows"`
}

// Verify forces the server at baseURL to reload and checks that it ranked
// every athlete of sheet in score order.
func Verify(ctx context.Context, client *http.Client, baseURL string, sheet Sheet) (Report, error) {
	athletes := sheet.Table().Athletes()

	var reload reloadResponse
	if err := call(ctx, client, http.MethodPost, baseURL+"/reload?force=true", &reload); err != nil {
		return Report{}, fmt.Errorf("reload: %w", err)
	}
	if reload.Rows != len(sheet.Records) {
		return Report{}, fmt.Errorf("server loaded %d rows, sheet has %d", reload.Rows, len(sheet.Records))
	}

	var top []Entry
	url := baseURL + "/leaderboard?limit=" + strconv.Itoa(len(athletes))
	if err := call(ctx, client, http.MethodGet, url, &top); err != nil {
		return Report{}, fmt.Errorf("leaderboard: %w", err)
	}
	if err := verifyLeaderboard(top, len(athletes)); err != nil {
		return Report{}, err
	}

	logger.Get().Info(ctx, "sample data verified",
		logger.String("snapshot_id", reload.SnapshotID),
		logger.Int("rows", reload.Rows),
		logger.Int("ranked", len(top)))
	return Report{SnapshotID: reload.SnapshotID, Rows: reload.Rows, Ranked: len(top), Top: top}, nil
}

// verifyLeaderboard checks count, score order and rank monotonicity.
func verifyLeaderboard(top []Entry, want int) error {
	if len(top) != want {
		return fmt.Errorf("leaderboard has %d entries, want %d", len(top), want)
	}
	for i := 1; i < len(top); i++ {
		prev, cur := top[i-1], top[i]
		if cur.Score > prev.Score {
			return fmt.Errorf("entry %d (%s) outscores entry %d (%s)", i, cur.Athlete, i-1, prev.Athlete)
		}
		if cur.Rank < prev.Rank || (cur.Score == prev.Score && cur.Rank != prev.Rank) {
			return fmt.Errorf("rank of %s inconsistent with score order", cur.Athlete)
		}
	}
	return nil
}

func call(ctx context.Context, client *http.Client, method, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	return json.Unmarshal(body, out)
}
