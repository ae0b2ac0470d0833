package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/habitloop/backend/internal/progression"
)

// SQLiteStore persists snapshots in a SQLite database with WAL mode. Beyond
// the snapshot itself it keeps a full gain-history table (snapshots only
// retain the 10 most recent gains) and serves the leaderboard query.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at dir/progression.db.
func OpenSQLite(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "progression.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating: %w", err)
	}
	return s, nil
}

// migrate runs idempotent schema migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS progression (
			user_id      TEXT PRIMARY KEY,
			total_points INTEGER NOT NULL,
			level        INTEGER NOT NULL,
			snapshot     TEXT NOT NULL,
			updated_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_progression_points ON progression(total_points)`,
		`CREATE TABLE IF NOT EXISTS gains (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			amount     INTEGER NOT NULL,
			source     TEXT NOT NULL,
			multiplier REAL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_gains_user ON gains(user_id, created_at)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// Load returns the snapshot for userID, or ErrNotFound.
func (s *SQLiteStore) Load(userID string) (*progression.State, error) {
	var raw string
	err := s.db.QueryRow(`SELECT snapshot FROM progression WHERE user_id = ?`, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}

	var st progression.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	st.InitMaps()
	return &st, nil
}

// Save upserts the snapshot and appends any gains not yet in the history
// table. Gain IDs are unique, so re-saving a snapshot never duplicates rows.
func (s *SQLiteStore) Save(state *progression.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO progression (user_id, total_points, level, snapshot, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			total_points = excluded.total_points,
			level        = excluded.level,
			snapshot     = excluded.snapshot,
			updated_at   = excluded.updated_at`,
		state.UserID, state.TotalPoints, state.Level, string(raw), time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("upserting snapshot: %w", err)
	}

	for _, g := range state.RecentGains {
		_, err = tx.Exec(`INSERT OR IGNORE INTO gains (id, user_id, amount, source, multiplier, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			g.ID, state.UserID, g.Amount, g.Source, g.Multiplier, g.Timestamp.UTC().Unix())
		if err != nil {
			return fmt.Errorf("inserting gain: %w", err)
		}
	}

	return tx.Commit()
}

// Delete removes the user's snapshot and gain history.
func (s *SQLiteStore) Delete(userID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM progression WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM gains WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting gains: %w", err)
	}
	return tx.Commit()
}

// Leaderboard returns the top-N users by total points.
func (s *SQLiteStore) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`SELECT user_id, total_points, level FROM progression
		ORDER BY total_points DESC, user_id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardEntry
	rank := 1
	for rows.Next() {
		e := LeaderboardEntry{Rank: rank}
		if err := rows.Scan(&e.UserID, &e.TotalPoints, &e.Level); err != nil {
			return nil, fmt.Errorf("scanning leaderboard row: %w", err)
		}
		out = append(out, e)
		rank++
	}
	return out, rows.Err()
}

// GainHistory returns up to limit gain records for the user, newest first.
// Unlike the snapshot's RecentGains this reads the full history table.
func (s *SQLiteStore) GainHistory(userID string, limit int) ([]progression.GainRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`SELECT id, amount, source, multiplier, created_at FROM gains
		WHERE user_id = ? ORDER BY created_at DESC, id ASC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying gains: %w", err)
	}
	defer rows.Close()

	var out []progression.GainRecord
	for rows.Next() {
		var g progression.GainRecord
		var unix int64
		if err := rows.Scan(&g.ID, &g.Amount, &g.Source, &g.Multiplier, &unix); err != nil {
			return nil, fmt.Errorf("scanning gain row: %w", err)
		}
		g.Timestamp = time.Unix(unix, 0).UTC()
		out = append(out, g)
	}
	return out, rows.Err()
}

// Close shuts down the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
