package model

import "time"

// DiffResult classifies the paths that changed between two snapshots.
// It is recomputed each run and never persisted.
type DiffResult struct {
	BaselineID SnapshotID `json:"baseline_id"`
	CurrentID  SnapshotID `json:"current_id"`
	Added      []string   `json:"added"`
	Removed    []string   `json:"removed"`
	Modified   []string   `json:"modified"`
	// SkippedSections maps a section to the reason it was not compared
	// (a root unmounted on either side).
	SkippedSections map[Section]string `json:"skipped_sections,omitempty"`
}

// SkipSection records that a section was not compared and why.
func (r *DiffResult) SkipSection(label Section, reason string) {
	if r.SkippedSections == nil {
		r.SkippedSections = make(map[Section]string)
	}
	r.SkippedSections[label] = reason
}

// Empty reports whether the diff found no changes.
func (r *DiffResult) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Modified) == 0
}

// Total returns the number of changed paths.
func (r *DiffResult) Total() int {
	return len(r.Added) + len(r.Removed) + len(r.Modified)
}

// AttributedChange ties a changed path to the package that owns it.
// An empty OwningPackage means the path is not tracked by the package
// manager, which is the higher-risk condition.
type AttributedChange struct {
	Path          string     `json:"path"`
	Kind          ChangeKind `json:"kind"`
	OwningPackage string     `json:"owning_package,omitempty"`
}

// Managed reports whether a package claimed the path.
func (c AttributedChange) Managed() bool {
	return c.OwningPackage != ""
}

// ServiceRecord is the classification of one boot-enabled service.
type ServiceRecord struct {
	Name     string          `json:"name"`
	Category ServiceCategory `json:"category"`
}

// ModuleFinding is the triage result for one loaded kernel module.
// Reasons holds every independent reason the module was flagged; an
// empty Reasons slice means the module is clean.
type ModuleFinding struct {
	Name        string       `json:"name"`
	BackingFile string       `json:"backing_file,omitempty"`
	TaintFlags  string       `json:"taint_flags,omitempty"`
	Signer      string       `json:"signer,omitempty"`
	Reasons     []FlagReason `json:"reasons,omitempty"`
}

// Flagged reports whether the module was flagged for any reason.
func (f ModuleFinding) Flagged() bool {
	return len(f.Reasons) > 0
}

// Report is the aggregate outcome of one audit run. Sub-checks that
// could not run leave their sections empty and add a note; a report is
// always produced.
type Report struct {
	Mode          Mode      `json:"mode"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Hostname      string    `json:"hostname"`
	KernelVersion string    `json:"kernel_version"`

	SnapshotID SnapshotID `json:"snapshot_id,omitempty"`
	BaselineID SnapshotID `json:"baseline_id,omitempty"`
	// Bootstrap is set when no baseline existed and a first snapshot
	// was created instead of a comparison.
	Bootstrap bool `json:"bootstrap"`

	Diff    *DiffResult        `json:"diff,omitempty"`
	Changes []AttributedChange `json:"changes,omitempty"`

	Services        []ServiceRecord `json:"services"`
	ServicesChecked int             `json:"services_checked"`

	Modules        []ModuleFinding `json:"modules"`
	ModulesChecked int             `json:"modules_checked"`

	Notes []string `json:"notes,omitempty"`
}

// ServiceCount returns how many services fall into the category.
func (r *Report) ServiceCount(cat ServiceCategory) int {
	n := 0
	for _, s := range r.Services {
		if s.Category == cat {
			n++
		}
	}
	return n
}

// Unmanaged returns the attributed changes with no owning package.
func (r *Report) Unmanaged() []AttributedChange {
	var out []AttributedChange
	for _, c := range r.Changes {
		if !c.Managed() && c.Kind != ChangeRemoved {
			out = append(out, c)
		}
	}
	return out
}

// AddNote records a sub-check condition worth surfacing in the report.
func (r *Report) AddNote(note string) {
	r.Notes = append(r.Notes, note)
}
