// Package store persists progression state snapshots. Two backends exist:
// a JSON file per user and a SQLite database. Both hold the same snapshot
// shape; the engine neither knows nor cares which one is configured.
package store

import (
	"errors"

	"github.com/habitloop/backend/internal/progression"
)

// ErrNotFound is returned by Load when no snapshot exists for the user.
var ErrNotFound = errors.New("progression state not found")

// ErrUnsupported is returned for operations a backend does not implement.
var ErrUnsupported = errors.New("operation not supported by this store")

// LeaderboardEntry is one row of the top-N ranking by total points.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	TotalPoints int    `json:"totalPoints"`
	Level       int    `json:"level"`
}

// Store loads and saves per-user progression snapshots. Implementations are
// safe for concurrent use; the service layer still serializes writes per
// user, so a Store never sees two concurrent saves of the same user.
type Store interface {
	// Load returns the snapshot for userID, or ErrNotFound.
	Load(userID string) (*progression.State, error)
	// Save persists the snapshot, replacing any previous one.
	Save(state *progression.State) error
	// Delete removes the snapshot for userID. Deleting an absent user is a
	// no-op.
	Delete(userID string) error
	// Leaderboard returns the top-N users by total points, or ErrUnsupported.
	Leaderboard(limit int) ([]LeaderboardEntry, error)
	// Close releases backend resources.
	Close() error
}
