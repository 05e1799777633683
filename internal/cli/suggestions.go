package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bootaudit/bootaudit/internal/store"
	"github.com/bootaudit/bootaudit/pkg/color"
	"github.com/bootaudit/bootaudit/pkg/errclass"
)

// suggestSnapshots provides helpful suggestions when a snapshot ref is
// not found. Returns a formatted suggestion string.
func suggestSnapshots(s *store.Store, query string) string {
	ids, err := s.ListIDs()
	if err != nil || len(ids) == 0 {
		return fmt.Sprintf("Run %s to record a first snapshot.", color.Code("bootaudit snapshot"))
	}

	// Near misses: IDs containing the query anywhere
	var matches []string
	for _, id := range ids {
		if strings.Contains(string(id), query) {
			matches = append(matches, color.SnapshotID(id.ShortID()))
		}
		if len(matches) == 3 {
			break
		}
	}

	if len(matches) > 0 {
		hint := "Did you mean"
		if len(matches) > 1 {
			hint += " one of"
		}
		return fmt.Sprintf("%s: %s?", hint, strings.Join(matches, ", "))
	}

	return fmt.Sprintf("Run %s to see stored snapshots.", color.Code("bootaudit history"))
}

// formatSnapshotNotFoundError formats a snapshot not found error with
// suggestions.
func formatSnapshotNotFoundError(s *store.Store, ref string) string {
	var sb strings.Builder

	sb.WriteString(color.Error(fmt.Sprintf("snapshot %q not found", ref)))
	sb.WriteString("\n")
	sb.WriteString(color.Dim("  " + suggestSnapshots(s, ref)))

	return sb.String()
}

// formatNoStateError formats an error for a missing or unusable state
// directory.
func formatNoStateError(dir string, err error) string {
	var sb strings.Builder

	if errors.Is(err, errclass.ErrFormatUnsupported) {
		sb.WriteString(color.Error(err.Error()))
		sb.WriteString("\n")
		sb.WriteString(color.Dim("  The state directory was written by a newer bootaudit release."))
		return sb.String()
	}

	sb.WriteString(color.Error(fmt.Sprintf("no audit state at %s", dir)))
	sb.WriteString("\n")
	sb.WriteString(color.Dim(fmt.Sprintf("  Run %s or %s to create it.",
		color.Code("bootaudit audit"), color.Code("bootaudit snapshot"))))

	return sb.String()
}
