// Package state manages the bootaudit state directory: a user-scoped
// directory holding snapshots, the latest pointer, and the run journal.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/bootaudit/bootaudit/pkg/errclass"
	"github.com/bootaudit/bootaudit/pkg/fsutil"
)

const (
	FormatVersion     = 1
	FormatVersionFile = "format_version"
	StateIDFile       = "state_id"
	SnapshotsDirName  = "snapshots"
	JournalDirName    = "journal"
	JournalFileName   = "journal.jsonl"
	LatestFileName    = "latest"
)

// State represents an initialized state directory.
type State struct {
	Dir           string
	FormatVersion int
	StateID       string
}

// DefaultDir resolves the state directory: BOOTAUDIT_STATE_DIR, then
// XDG_STATE_HOME/bootaudit, then ~/.local/state/bootaudit.
func DefaultDir() (string, error) {
	if d := os.Getenv("BOOTAUDIT_STATE_DIR"); d != "" {
		return d, nil
	}
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, "bootaudit"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "bootaudit"), nil
}

// Init creates a new state directory at the specified path.
func Init(dir string) (*State, error) {
	dirs := []string{
		dir,
		filepath.Join(dir, SnapshotsDirName),
		filepath.Join(dir, JournalDirName),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", d, err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, FormatVersionFile), []byte("1\n"), 0644); err != nil {
		return nil, fmt.Errorf("write format_version: %w", err)
	}

	stateID := uuid.NewString()
	if err := os.WriteFile(filepath.Join(dir, StateIDFile), []byte(stateID+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("write state_id: %w", err)
	}

	// Fsync parent to ensure durability
	if err := fsutil.FsyncDir(dir); err != nil {
		return nil, fmt.Errorf("fsync state dir: %w", err)
	}

	return &State{
		Dir:           dir,
		FormatVersion: FormatVersion,
		StateID:       stateID,
	}, nil
}

// Open opens an existing state directory.
func Open(dir string) (*State, error) {
	version, err := readFormatVersion(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("no bootaudit state at %s (run an audit or snapshot first)", dir)
	}
	if err != nil {
		return nil, err
	}
	if version > FormatVersion {
		return nil, errclass.ErrFormatUnsupported.WithMessagef(
			"format version %d > supported %d", version, FormatVersion)
	}

	stateID, _ := readStateID(dir)
	return &State{
		Dir:           dir,
		FormatVersion: version,
		StateID:       stateID,
	}, nil
}

// OpenOrInit opens the state directory, initializing it on first use.
func OpenOrInit(dir string) (*State, error) {
	_, err := os.Stat(filepath.Join(dir, FormatVersionFile))
	if os.IsNotExist(err) {
		return Init(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("stat format_version: %w", err)
	}
	return Open(dir)
}

// SnapshotsDir returns the snapshot storage directory.
func (s *State) SnapshotsDir() string {
	return filepath.Join(s.Dir, SnapshotsDirName)
}

// JournalDir returns the journal directory.
func (s *State) JournalDir() string {
	return filepath.Join(s.Dir, JournalDirName)
}

// JournalFile returns the journal file path.
func (s *State) JournalFile() string {
	return filepath.Join(s.Dir, JournalDirName, JournalFileName)
}

// LatestFile returns the latest pointer file path.
func (s *State) LatestFile() string {
	return filepath.Join(s.Dir, LatestFileName)
}

func readFormatVersion(dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, FormatVersionFile))
	if err != nil {
		return 0, err
	}
	var version int
	if _, err := fmt.Sscanf(string(data), "%d", &version); err != nil {
		return 0, fmt.Errorf("parse format_version: %w", err)
	}
	return version, nil
}

func readStateID(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, StateIDFile))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
