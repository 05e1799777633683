package store

import (
	"fmt"
	"os"

	"github.com/bootaudit/bootaudit/pkg/fsutil"
	"github.com/bootaudit/bootaudit/pkg/logging"
	"github.com/bootaudit/bootaudit/pkg/model"
)

// Prune removes snapshot files beyond the newest keep. The latest
// pointer target always survives, even when retention says otherwise.
// With dryRun the victims are returned without touching the store.
func (s *Store) Prune(keep int, dryRun bool) ([]model.SnapshotID, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep must not be negative")
	}

	ids, err := s.ListIDs()
	if err != nil {
		return nil, err
	}
	if len(ids) <= keep {
		return nil, nil
	}

	var protected model.SnapshotID
	if ptr, err := s.Latest(); err == nil && ptr != nil {
		protected = ptr.TargetID
	}

	var victims []model.SnapshotID
	for _, id := range ids[keep:] {
		if id == protected {
			continue
		}
		victims = append(victims, id)
	}

	if dryRun || len(victims) == 0 {
		return victims, nil
	}

	for _, id := range victims {
		if err := os.Remove(s.snapshotPath(id)); err != nil {
			return nil, fmt.Errorf("remove snapshot %s: %w", id, err)
		}
		logging.Debugw("pruned snapshot", "id", id)
	}
	if err := fsutil.FsyncDir(s.dir); err != nil {
		return nil, fmt.Errorf("fsync snapshots dir: %w", err)
	}

	return victims, nil
}
