// Package store persists snapshots as append-only text files under the
// state directory and maintains the latest pointer. Nothing else in
// the system writes snapshot state.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bootaudit/bootaudit/internal/state"
	"github.com/bootaudit/bootaudit/pkg/errclass"
	"github.com/bootaudit/bootaudit/pkg/fsutil"
	"github.com/bootaudit/bootaudit/pkg/logging"
	"github.com/bootaudit/bootaudit/pkg/model"
)

const snapshotExt = ".snap"

// Store reads and writes snapshots under one state directory.
type Store struct {
	dir        string
	latestPath string
}

// New creates a store over an opened state directory.
func New(st *state.State) *Store {
	return &Store{
		dir:        st.SnapshotsDir(),
		latestPath: st.LatestFile(),
	}
}

// Save writes the snapshot to snapshots/<id>.snap and repoints the
// latest pointer. An existing ID is never overwritten.
func (s *Store) Save(snap *model.Snapshot) (model.SnapshotID, error) {
	if snap.ID == "" {
		snap.ID = model.NewSnapshotID()
	}

	data, err := Encode(snap)
	if err != nil {
		return "", err
	}

	path := s.snapshotPath(snap.ID)
	if err := fsutil.AtomicWriteExcl(path, data, 0644); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", errclass.ErrSnapshotExists.WithMessagef("snapshot %s", snap.ID)
		}
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	if err := s.writeLatest(snap.ID); err != nil {
		return "", fmt.Errorf("repoint latest: %w", err)
	}

	logging.Debugw("snapshot saved", "id", snap.ID, "entries", snap.EntryCount())
	return snap.ID, nil
}

// Load reads and decodes one snapshot by exact ID.
func (s *Store) Load(id model.SnapshotID) (*model.Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath(id))
	if os.IsNotExist(err) {
		return nil, errclass.ErrSnapshotNotFound.WithMessagef("snapshot %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", id, err)
	}
	return snap, nil
}

// LoadLatest loads the snapshot the latest pointer names. It returns
// (nil, nil) when no pointer exists yet, so callers can distinguish
// first-run bootstrap from failure. A dangling pointer is store
// corruption.
func (s *Store) LoadLatest() (*model.Snapshot, error) {
	ptr, err := s.Latest()
	if err != nil {
		return nil, err
	}
	if ptr == nil {
		return nil, nil
	}
	snap, err := s.Load(ptr.TargetID)
	if errors.Is(err, errclass.ErrSnapshotNotFound) {
		return nil, errclass.ErrStoreCorrupt.WithMessagef(
			"latest pointer names missing snapshot %s", ptr.TargetID)
	}
	return snap, err
}

// Latest reads the latest pointer, (nil, nil) when absent.
func (s *Store) Latest() (*model.LatestPointer, error) {
	data, err := os.ReadFile(s.latestPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read latest pointer: %w", err)
	}
	var ptr model.LatestPointer
	if err := json.Unmarshal(data, &ptr); err != nil {
		return nil, errclass.ErrStoreCorrupt.WithMessagef("latest pointer unparseable: %v", err)
	}
	if ptr.TargetID == "" {
		return nil, errclass.ErrStoreCorrupt.WithMessage("latest pointer has empty target")
	}
	return &ptr, nil
}

// writeLatest atomically repoints the latest pointer. Readers see the
// old target or the new one, never a partial file.
func (s *Store) writeLatest(id model.SnapshotID) error {
	ptr := model.LatestPointer{
		TargetID:  id,
		UpdatedAt: time.Now().UTC(),
	}
	data, err := json.MarshalIndent(ptr, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.AtomicWrite(s.latestPath, data, 0644)
}

func (s *Store) snapshotPath(id model.SnapshotID) string {
	return filepath.Join(s.dir, string(id)+snapshotExt)
}
