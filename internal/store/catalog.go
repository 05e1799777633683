package store

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bootaudit/bootaudit/pkg/errclass"
	"github.com/bootaudit/bootaudit/pkg/model"
	"github.com/bootaudit/bootaudit/pkg/pathutil"
)

// ListIDs returns all stored snapshot IDs, newest first. IDs embed a
// millisecond timestamp prefix, so byte order is chronological order.
func (s *Store) ListIDs() ([]model.SnapshotID, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshots directory: %w", err)
	}

	var ids []model.SnapshotID
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		ids = append(ids, model.SnapshotID(strings.TrimSuffix(name, snapshotExt)))
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids, nil
}

// List loads all snapshots, newest first. Unparseable files are
// skipped so one corrupt snapshot cannot hide the rest of the history;
// doctor and verify surface them.
func (s *Store) List() ([]*model.Snapshot, error) {
	ids, err := s.ListIDs()
	if err != nil {
		return nil, err
	}

	var snaps []*model.Snapshot
	for _, id := range ids {
		snap, err := s.Load(id)
		if err != nil {
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// Resolve maps a user-supplied ref to a stored snapshot ID. Accepted
// forms: exact ID, "latest", or a unique ID prefix.
func (s *Store) Resolve(ref string) (model.SnapshotID, error) {
	if err := pathutil.ValidateRef(ref); err != nil {
		return "", err
	}

	if ref == "latest" {
		ptr, err := s.Latest()
		if err != nil {
			return "", err
		}
		if ptr == nil {
			return "", errclass.ErrSnapshotNotFound.WithMessage("no snapshots yet")
		}
		return ptr.TargetID, nil
	}

	if _, err := os.Stat(s.snapshotPath(model.SnapshotID(ref))); err == nil {
		return model.SnapshotID(ref), nil
	}

	ids, err := s.ListIDs()
	if err != nil {
		return "", err
	}

	// Prefix matches win over substring matches, so typing the hex
	// suffix of an ID still works.
	var prefix, substr []model.SnapshotID
	for _, id := range ids {
		switch {
		case strings.HasPrefix(string(id), ref):
			prefix = append(prefix, id)
		case strings.Contains(string(id), ref):
			substr = append(substr, id)
		}
	}

	matches := prefix
	if len(matches) == 0 {
		matches = substr
	}

	switch len(matches) {
	case 0:
		return "", errclass.ErrSnapshotNotFound.WithMessagef("no snapshot matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return "", errclass.ErrAmbiguousRef.WithMessagef(
			"%q matches %d snapshots, give more characters", ref, len(matches))
	}
}
