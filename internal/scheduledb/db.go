// Package scheduledb persists the finished output of a completed
// scheduling run for downstream .vex/.skd writers to consume. It never
// persists mid-run state; the scheduler itself holds no database
// handle.
package scheduledb

import (
	"database/sql"
	"embed"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vlbisched/scheduler/internal/idregistry"
	"github.com/vlbisched/scheduler/internal/scan"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a sqlite connection holding finished scheduling-run output.
type DB struct {
	*sql.DB
}

// Open opens (and, if new, migrates) a sqlite database at path.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("scheduledb: open %s: %w", path, err)
	}
	if _, err := sqlDB.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("scheduledb: set journal mode: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		return nil, err
	}
	return db, nil
}

// SessionResult is the finished output of one scheduling run.
type SessionResult struct {
	SessionID  string
	StartedAt  int64 // unix seconds, wall-clock run start
	FinishedAt int64 // unix seconds, wall-clock run end
	Scans      []*scan.Scan
}

// SaveSession records a completed run's scans, per-station pointings, and
// observations in a single transaction.
func (db *DB) SaveSession(result SessionResult) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("scheduledb: begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO sessions (session_id, started_at, finished_at, scan_count) VALUES (?, ?, ?, ?)`,
		result.SessionID, result.StartedAt, result.FinishedAt, len(result.Scans),
	); err != nil {
		return fmt.Errorf("scheduledb: insert session: %w", err)
	}

	for _, sc := range result.Scans {
		if err := insertScan(tx, result.SessionID, sc); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("scheduledb: commit: %w", err)
	}
	return nil
}

func insertScan(tx *sql.Tx, sessionID string, sc *scan.Scan) error {
	_, err := tx.Exec(
		`INSERT INTO scans (session_id, scan_id, source_id, start_seconds, end_seconds, is_fillin, is_calibrator)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, int64(sc.ID), int64(sc.SourceID), int64(sc.ScanStart()), int64(sc.ScanEnd()),
		boolToInt(sc.IsFillin), boolToInt(sc.IsCalibratorBlock),
	)
	if err != nil {
		return fmt.Errorf("scheduledb: insert scan %v: %w", sc.ID, err)
	}

	for i, stationID := range sc.StationIDs {
		pv := sc.Pointings[i]
		_, err := tx.Exec(
			`INSERT INTO scan_stations (session_id, scan_id, station_id, az_radians, el_radians, observing_start, observing_end)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sessionID, int64(sc.ID), int64(stationID), pv.Az, pv.El,
			int64(sc.Times.ObservingStart(i)), int64(sc.Times.ObservingEnd(i)),
		)
		if err != nil {
			return fmt.Errorf("scheduledb: insert scan_stations %v/%v: %w", sc.ID, stationID, err)
		}
	}

	for _, obs := range sc.Observations {
		_, err := tx.Exec(
			`INSERT INTO observations (session_id, scan_id, baseline_id, station1_id, station2_id, duration_seconds)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			sessionID, int64(sc.ID), int64(obs.BaselineID), int64(obs.Station1), int64(obs.Station2), obs.DurationSeconds,
		)
		if err != nil {
			return fmt.Errorf("scheduledb: insert observation %v/%v: %w", sc.ID, obs.BaselineID, err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ScanRecord is one persisted scan, as read back by ListScans.
type ScanRecord struct {
	ScanID       idregistry.ID
	SourceID     idregistry.ID
	StartSeconds int64
	EndSeconds   int64
	IsFillin     bool
	IsCalibrator bool
}

// ListScans returns all scans recorded for a session, ordered by scan id.
func (db *DB) ListScans(sessionID string) ([]ScanRecord, error) {
	rows, err := db.Query(
		`SELECT scan_id, source_id, start_seconds, end_seconds, is_fillin, is_calibrator
		 FROM scans WHERE session_id = ? ORDER BY scan_id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("scheduledb: list scans: %w", err)
	}
	defer rows.Close()

	var out []ScanRecord
	for rows.Next() {
		var r ScanRecord
		var scanID, sourceID int64
		var isFillin, isCalibrator int
		if err := rows.Scan(&scanID, &sourceID, &r.StartSeconds, &r.EndSeconds, &isFillin, &isCalibrator); err != nil {
			return nil, fmt.Errorf("scheduledb: scan row: %w", err)
		}
		r.ScanID = idregistry.ID(scanID)
		r.SourceID = idregistry.ID(sourceID)
		r.IsFillin = isFillin != 0
		r.IsCalibrator = isCalibrator != 0
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
