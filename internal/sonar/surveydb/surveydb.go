// Package surveydb persists processed survey runs to sqlite: the run
// itself, per-channel status, navigated pings with their bed picks, and
// texture window labels.
package surveydb

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/riverbed-data/sidescan.report/internal/monitoring"
	"github.com/riverbed-data/sidescan.report/internal/sonar"
	"github.com/riverbed-data/sidescan.report/internal/sonar/pipeline"
)

//go:embed schema.sql
var schemaSQL string

type SurveyDB struct {
	*sql.DB
}

// Open opens (or creates) the survey database and applies the schema.
func Open(path string) (*SurveyDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open survey db: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply survey schema: %w", err)
	}
	return &SurveyDB{db}, nil
}

// StoreRun writes a completed pipeline result under a fresh run id and
// returns that id. Everything lands in one transaction so a half-written
// run never survives a crash.
func (sdb *SurveyDB) StoreRun(sourceFile string, p sonar.Params, res *pipeline.Result) (string, error) {
	runID := uuid.NewString()

	paramsJSON, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}

	tx, err := sdb.Begin()
	if err != nil {
		return "", fmt.Errorf("begin run transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO survey_runs (run_id, source_file, params_json, notes, channel_count)
		 VALUES (?, ?, ?, ?, ?)`,
		runID, sourceFile, string(paramsJSON), p.Notes, len(res.Channels),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i := range res.Channels {
		if err := storeChannel(tx, runID, &res.Channels[i]); err != nil {
			return "", err
		}
	}
	if res.Merged != nil {
		if err := storeWindows(tx, runID, "merged", res.Merged); err != nil {
			return "", err
		}
	}

	if _, err := tx.Exec(
		`UPDATE survey_runs SET finished_at = UNIXEPOCH('subsec') WHERE run_id = ?`, runID,
	); err != nil {
		return "", fmt.Errorf("finish run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}

	monitoring.Logf("surveydb: stored run %s (%d channels)", runID, len(res.Channels))
	return runID, nil
}

func storeChannel(tx *sql.Tx, runID string, cr *pipeline.ChannelResult) error {
	errText := ""
	if cr.Err != nil {
		errText = cr.Err.Error()
	}
	if _, err := tx.Exec(
		`INSERT INTO channel_status (run_id, channel, ping_count, truncated, fallback_fills, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, cr.Channel.String(), len(cr.Pings), boolInt(cr.Truncated), cr.FallbackFills, errText,
	); err != nil {
		return fmt.Errorf("insert channel status: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO pings (run_id, channel, ping_index, timestamp_ms, easting, northing,
		                    along_track_m, interpolated, depth_m, bed_pick_bin)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare ping insert: %w", err)
	}
	defer stmt.Close()

	for i, ping := range cr.Pings {
		pick := sonar.BedPickUndetected
		if cr.Raw != nil && i < len(cr.Raw.Meta) {
			pick = cr.Raw.Meta[i].BedPickBin
		}
		if _, err := stmt.Exec(
			runID, cr.Channel.String(), i, ping.TimestampMillis,
			ping.Easting, ping.Northing, ping.AlongTrackM,
			boolInt(ping.Interpolated), ping.DepthM, pick,
		); err != nil {
			return fmt.Errorf("insert ping %d: %w", i, err)
		}
	}

	return storeWindows(tx, runID, cr.Channel.String(), cr)
}

func storeWindows(tx *sql.Tx, runID, channel string, cr *pipeline.ChannelResult) error {
	if len(cr.Windows) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(
		`INSERT INTO texture_windows (run_id, channel, row, col, size, scale, mean_intensity, class)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare window insert: %w", err)
	}
	defer stmt.Close()

	for _, w := range cr.Windows {
		if _, err := stmt.Exec(runID, channel, w.Row, w.Col, w.Size, w.Scale, w.MeanIntensity, w.Class); err != nil {
			return fmt.Errorf("insert window (%d,%d): %w", w.Row, w.Col, err)
		}
	}
	return nil
}

// RunSummary is one stored run as listed by Runs.
type RunSummary struct {
	RunID        string
	SourceFile   string
	Notes        string
	ChannelCount int
	WindowCount  int
}

// Runs lists stored runs, most recent first.
func (sdb *SurveyDB) Runs(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := sdb.Query(
		`SELECT r.run_id, r.source_file, r.notes, r.channel_count,
		        (SELECT COUNT(*) FROM texture_windows w WHERE w.run_id = r.run_id)
		 FROM survey_runs r ORDER BY r.started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.RunID, &s.SourceFile, &s.Notes, &s.ChannelCount, &s.WindowCount); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ClassCounts returns how many windows of each class a run produced for
// one channel.
func (sdb *SurveyDB) ClassCounts(runID, channel string) (map[int]int, error) {
	rows, err := sdb.Query(
		`SELECT class, COUNT(*) FROM texture_windows
		 WHERE run_id = ? AND channel = ? GROUP BY class`, runID, channel)
	if err != nil {
		return nil, fmt.Errorf("class counts: %w", err)
	}
	defer rows.Close()

	counts := map[int]int{}
	for rows.Next() {
		var class, n int
		if err := rows.Scan(&class, &n); err != nil {
			return nil, fmt.Errorf("scan class row: %w", err)
		}
		counts[class] = n
	}
	return counts, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
