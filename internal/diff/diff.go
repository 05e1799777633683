// Package diff classifies changes between two snapshots.
package diff

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bootaudit/bootaudit/pkg/errclass"
	"github.com/bootaudit/bootaudit/pkg/model"
)

// Reasons a section was left out of a comparison.
const (
	SkipUnmountedNow      = "unmounted at audit time"
	SkipUnmountedBaseline = "unmounted when baseline was taken"
	SkipNotInBaseline     = "section missing from baseline"
	SkipNotInCurrent      = "section missing from current snapshot"
)

// Compare classifies every path in the symmetric difference of the two
// snapshots as added, removed, or modified. Paths inside each section
// are compared relative to the section root, so a remounted ESP does
// not report every file changed; reported paths are joined back onto
// the current root for display and attribution.
//
// A section is compared only when present on both sides. Anything else
// lands in SkippedSections with the reason, so an unmounted ESP reads
// as "not checked", never as "hundreds of files deleted".
func Compare(baseline, current *model.Snapshot) (*model.DiffResult, error) {
	if baseline == nil {
		return nil, fmt.Errorf("compare: no baseline snapshot")
	}
	if current == nil {
		return nil, fmt.Errorf("compare: no current snapshot")
	}
	if baseline.Algorithm != current.Algorithm {
		return nil, errclass.ErrAlgorithmMismatch.WithMessagef(
			"baseline uses %s, current uses %s", baseline.Algorithm, current.Algorithm)
	}

	result := &model.DiffResult{
		BaselineID: baseline.ID,
		CurrentID:  current.ID,
	}

	for i := range current.Sections {
		cur := &current.Sections[i]
		base := baseline.Section(cur.Label)

		switch {
		case base == nil:
			result.SkipSection(cur.Label, SkipNotInBaseline)
			continue
		case !cur.Present:
			result.SkipSection(cur.Label, SkipUnmountedNow)
			continue
		case !base.Present:
			result.SkipSection(cur.Label, SkipUnmountedBaseline)
			continue
		}

		compareSection(base, cur, result)
	}

	for i := range baseline.Sections {
		if current.Section(baseline.Sections[i].Label) == nil {
			result.SkipSection(baseline.Sections[i].Label, SkipNotInCurrent)
		}
	}

	sort.Strings(result.Added)
	sort.Strings(result.Removed)
	sort.Strings(result.Modified)

	return result, nil
}

func compareSection(base, cur *model.SnapshotSection, result *model.DiffResult) {
	baseIdx := make(map[string]string, len(base.Entries))
	for _, e := range base.Entries {
		baseIdx[e.Path] = string(e.Digest)
	}

	curSeen := make(map[string]struct{}, len(cur.Entries))
	for _, e := range cur.Entries {
		curSeen[e.Path] = struct{}{}
		old, existed := baseIdx[e.Path]
		switch {
		case !existed:
			result.Added = append(result.Added, displayPath(cur.Root, e.Path))
		case old != string(e.Digest):
			result.Modified = append(result.Modified, displayPath(cur.Root, e.Path))
		}
	}

	for _, e := range base.Entries {
		if _, exists := curSeen[e.Path]; !exists {
			result.Removed = append(result.Removed, displayPath(cur.Root, e.Path))
		}
	}
}

// displayPath joins a section-relative path back onto the current
// root. Removed files no longer exist, but the result is still where
// an operator would go looking.
func displayPath(root, rel string) string {
	return filepath.ToSlash(filepath.Join(root, filepath.FromSlash(rel)))
}
