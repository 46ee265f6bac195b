// Package stationlog keeps a SQLite record of every station heard, keyed
// by frequency and PI.
package stationlog

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bartgrantham/gofm/receiver"
)

// Station is the latest data heard from one PI on one frequency.
type Station struct {
	Frequency float64
	PI        uint16
	CallSign  string
	PTY       uint8
	PS        string
	PTYN      string
	RadioText string
	FirstSeen time.Time
	LastSeen  time.Time
}

type DB struct {
	db *sql.DB
}

func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one writer at a time, the receiver is the only one anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS stations (
		frequency_khz INTEGER NOT NULL,
		pi INTEGER NOT NULL,
		callsign TEXT NOT NULL,
		pty INTEGER NOT NULL,
		ps TEXT NOT NULL DEFAULT '',
		ptyn TEXT NOT NULL DEFAULT '',
		radiotext TEXT NOT NULL DEFAULT '',
		first_seen TEXT NOT NULL,
		last_seen TEXT NOT NULL,
		PRIMARY KEY (frequency_khz, pi)
	);

	CREATE INDEX IF NOT EXISTS idx_stations_last_seen ON stations(last_seen);
	`
	_, err := db.Exec(schema)
	return err
}

func khz(mhz float64) int64 {
	return int64(math.Round(mhz * 1000))
}

/*
Record upserts the station in s. Snapshots taken before any group arrived
(or with PI 0) are skipped. Text fields that are still blank don't
overwrite what an earlier visit to the station left behind.
*/
func (d *DB) Record(ctx context.Context, s receiver.Snapshot) error {
	if !s.HasRDS() || s.Status.ProgramIdentifier == 0 {
		return nil
	}

	seen := s.At.UTC().Format(time.RFC3339)
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO stations (frequency_khz, pi, callsign, pty, ps, ptyn, radiotext, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (frequency_khz, pi) DO UPDATE SET
			callsign = excluded.callsign,
			pty = excluded.pty,
			ps = CASE WHEN trim(excluded.ps) = '' THEN ps ELSE excluded.ps END,
			ptyn = CASE WHEN trim(excluded.ptyn) = '' THEN ptyn ELSE excluded.ptyn END,
			radiotext = CASE WHEN trim(excluded.radiotext) = '' THEN radiotext ELSE excluded.radiotext END,
			last_seen = excluded.last_seen`,
		khz(s.Frequency), s.Status.ProgramIdentifier, s.CallSign, s.Status.ProgramType,
		s.Status.ProgramService, s.Status.ProgramTypeName, s.Status.RadioText, seen, seen)
	if err != nil {
		return fmt.Errorf("record station %04X: %w", s.Status.ProgramIdentifier, err)
	}
	return nil
}

// Stations lists everything recorded, by frequency.
func (d *DB) Stations(ctx context.Context) ([]Station, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT frequency_khz, pi, callsign, pty, ps, ptyn, radiotext, first_seen, last_seen
		FROM stations ORDER BY frequency_khz, pi`)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	var out []Station
	for rows.Next() {
		var st Station
		var freq int64
		var first, last string
		if err := rows.Scan(&freq, &st.PI, &st.CallSign, &st.PTY, &st.PS, &st.PTYN, &st.RadioText, &first, &last); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		st.Frequency = float64(freq) / 1000
		st.FirstSeen, _ = time.Parse(time.RFC3339, first)
		st.LastSeen, _ = time.Parse(time.RFC3339, last)
		out = append(out, st)
	}
	return out, rows.Err()
}
