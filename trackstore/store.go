// Package trackstore persists per-frame predictions and metric snapshots of tracking runs in SQLite.
package trackstore

import (
	"database/sql"
	"fmt"
	"image/color"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/LdDl/mot-regions/mot"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	config TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS frames (
	run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	frame INTEGER NOT NULL,
	predictions INTEGER NOT NULL,
	PRIMARY KEY (run_id, frame)
);
CREATE TABLE IF NOT EXISTS predictions (
	run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	frame INTEGER NOT NULL,
	tracker_id INTEGER NOT NULL,
	x INTEGER NOT NULL,
	y INTEGER NOT NULL,
	w INTEGER NOT NULL,
	h INTEGER NOT NULL,
	color TEXT NOT NULL,
	PRIMARY KEY (run_id, frame, tracker_id)
);
CREATE TABLE IF NOT EXISTS metric_snapshots (
	run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	frame INTEGER NOT NULL,
	fragmentation REAL,
	recall_aor REAL,
	precision_adba REAL,
	assignment_iou REAL,
	PRIMARY KEY (run_id, frame)
);
`

// Store keeps tracking runs in SQLite database
type Store struct {
	db *sql.DB
}

// Open opens (or creates) database at path and applies the schema
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}
	// Single connection: database may be in-memory and the tracker writes sequentially anyway
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to execute %q", pragma)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to apply schema")
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun registers a new tracking run
func (s *Store) BeginRun(runID uuid.UUID, config string) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, created_at, config) VALUES (?, ?, ?)`,
		runID.String(), time.Now().UnixNano(), config,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to insert run %s", runID)
	}
	return nil
}

// SaveFrame stores predictions of a single frame in one transaction.
// Frame is registered even without predictions; storing the same frame twice fails.
func (s *Store) SaveFrame(runID uuid.UUID, frame int, predictions []mot.Prediction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO frames (run_id, frame, predictions) VALUES (?, ?, ?)`, runID.String(), frame, len(predictions))
	if err != nil {
		return errors.Wrapf(err, "failed to insert frame %d", frame)
	}

	stmt, err := tx.Prepare(`INSERT INTO predictions (run_id, frame, tracker_id, x, y, w, h, color) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare insert")
	}
	defer stmt.Close()

	for _, p := range predictions {
		_, err := stmt.Exec(runID.String(), frame, p.TrackerID, p.Region.X, p.Region.Y, p.Region.W, p.Region.H, HexColor(p.Color))
		if err != nil {
			return errors.Wrapf(err, "failed to insert prediction of tracker %d", p.TrackerID)
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit frame")
}

// SaveMetrics stores metrics snapshot taken after the frame
func (s *Store) SaveMetrics(runID uuid.UUID, frame int, result mot.MetricsResult) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO metric_snapshots (run_id, frame, fragmentation, recall_aor, precision_adba, assignment_iou) VALUES (?, ?, ?, ?, ?, ?)`,
		runID.String(), frame,
		nullable(result.Fragmentation), nullable(result.Recall), nullable(result.Precision), nullable(result.AssignmentIoU),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to insert metrics of frame %d", frame)
	}
	return nil
}

// LoadPredictions returns predictions of the frame ordered by tracker identifier
func (s *Store) LoadPredictions(runID uuid.UUID, frame int) ([]mot.Prediction, error) {
	rows, err := s.db.Query(
		`SELECT tracker_id, x, y, w, h, color FROM predictions WHERE run_id = ? AND frame = ? ORDER BY tracker_id`,
		runID.String(), frame,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query predictions")
	}
	defer rows.Close()

	result := make([]mot.Prediction, 0)
	for rows.Next() {
		var (
			p          mot.Prediction
			x, y, w, h int
			hex        string
		)
		if err := rows.Scan(&p.TrackerID, &x, &y, &w, &h, &hex); err != nil {
			return nil, errors.Wrap(err, "failed to scan prediction")
		}
		p.Region = mot.NewRegion(x, y, w, h)
		p.Color, err = ParseHexColor(hex)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, errors.Wrap(rows.Err(), "failed to iterate predictions")
}

// LoadMetrics returns metrics snapshot of the frame
func (s *Store) LoadMetrics(runID uuid.UUID, frame int) (mot.MetricsResult, error) {
	var frag, recall, precision, assignment sql.NullFloat64
	err := s.db.QueryRow(
		`SELECT fragmentation, recall_aor, precision_adba, assignment_iou FROM metric_snapshots WHERE run_id = ? AND frame = ?`,
		runID.String(), frame,
	).Scan(&frag, &recall, &precision, &assignment)
	if err != nil {
		return mot.MetricsResult{}, errors.Wrapf(err, "failed to load metrics of frame %d", frame)
	}
	return mot.MetricsResult{
		Fragmentation: fromNullable(frag),
		Recall:        fromNullable(recall),
		Precision:     fromNullable(precision),
		AssignmentIoU: fromNullable(assignment),
	}, nil
}

// CountFrames returns number of stored frames, including the ones without predictions
func (s *Store) CountFrames(runID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM frames WHERE run_id = ?`, runID.String()).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count frames")
	}
	return n, nil
}

// HasFrame reports whether the frame of the run has been stored
func (s *Store) HasFrame(runID uuid.UUID, frame int) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM frames WHERE run_id = ? AND frame = ?`, runID.String(), frame).Scan(&n)
	if err != nil {
		return false, errors.Wrapf(err, "failed to check frame %d", frame)
	}
	return n > 0, nil
}

func nullable(v mot.MetricValue) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.Value, Valid: v.Valid}
}

func fromNullable(v sql.NullFloat64) mot.MetricValue {
	return mot.MetricValue{Value: v.Float64, Valid: v.Valid}
}

// HexColor formats color as #rrggbb
func HexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHexColor parses #rrggbb color
func ParseHexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 255}
	if len(s) != 7 || s[0] != '#' {
		return c, errors.Errorf("bad color '%s'", s)
	}
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, errors.Wrapf(err, "bad color '%s'", s)
	}
	return c, nil
}
