package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/habitloop/backend/internal/progression"
)

// FileStore keeps one JSON snapshot file per user under a directory,
// written with a temp-file-then-rename so a crash mid-save never corrupts
// the previous snapshot.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir. Pass an empty string to use
// the default XDG state path. The directory is created on first save.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = DefaultDir()
	}
	return &FileStore{dir: dir}
}

// Path returns the snapshot file path for userID.
func (s *FileStore) Path(userID string) string {
	return filepath.Join(s.dir, sanitizeUserID(userID)+".json")
}

// Load reads the snapshot for userID, or ErrNotFound if none exists.
func (s *FileStore) Load(userID string) (*progression.State, error) {
	data, err := os.ReadFile(s.Path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var st progression.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	st.InitMaps()
	return &st, nil
}

// Save writes the snapshot atomically, creating the directory if needed.
func (s *FileStore) Save(state *progression.State) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path(state.UserID)); err != nil {
		return fmt.Errorf("renaming snapshot: %w", err)
	}
	committed = true

	return nil
}

// Delete removes the user's snapshot file if present.
func (s *FileStore) Delete(userID string) error {
	err := os.Remove(s.Path(userID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing snapshot: %w", err)
	}
	return nil
}

// Leaderboard is not supported by the file backend: ranking would mean
// reading every snapshot on every request. Deployments that want the
// leaderboard run the SQLite store.
func (s *FileStore) Leaderboard(int) ([]LeaderboardEntry, error) {
	return nil, ErrUnsupported
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }

// sanitizeUserID maps a user ID to a safe file name. IDs are opaque, so any
// path-hostile byte is replaced rather than rejected.
func sanitizeUserID(userID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, userID)
}

// DefaultDir returns ~/.local/state/habitloop, respecting XDG_STATE_HOME if
// set. Both backends use it when no directory is configured.
func DefaultDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, "habitloop")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", "habitloop")
}
