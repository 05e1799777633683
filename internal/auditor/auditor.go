// Package auditor orchestrates one audit run: capture the boot
// surface, compare it with history, attribute the drift, and classify
// the live boot configuration. Sub-checks that cannot run become
// report notes; the run itself only fails when no report could be
// assembled at all.
package auditor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/bootaudit/bootaudit/internal/attribution"
	"github.com/bootaudit/bootaudit/internal/diff"
	"github.com/bootaudit/bootaudit/internal/hashtree"
	"github.com/bootaudit/bootaudit/internal/journal"
	"github.com/bootaudit/bootaudit/internal/kmod"
	"github.com/bootaudit/bootaudit/internal/mounts"
	"github.com/bootaudit/bootaudit/internal/platform"
	"github.com/bootaudit/bootaudit/internal/services"
	"github.com/bootaudit/bootaudit/internal/store"
	"github.com/bootaudit/bootaudit/pkg/config"
	"github.com/bootaudit/bootaudit/pkg/logging"
	"github.com/bootaudit/bootaudit/pkg/model"
	"github.com/bootaudit/bootaudit/pkg/progress"
	"github.com/bootaudit/bootaudit/pkg/template"
)

// HostInfoFunc reports the hostname and kernel release for snapshot
// headers.
type HostInfoFunc func(ctx context.Context) (hostname, kernel string)

// Auditor wires the audit pipeline. New fills in live collaborators;
// tests replace individual fields with fakes.
type Auditor struct {
	Config  *config.Config
	Store   *store.Store
	Journal *journal.Journal

	Mounts   *mounts.Discoverer
	Resolver *attribution.Resolver
	Services *services.Collector
	Modules  *kmod.Triage
	HostInfo HostInfoFunc
	Progress progress.Callback

	rulesetNote string
}

// New builds an auditor against the live host.
func New(cfg *config.Config, st *store.Store, jrnl *journal.Journal) *Auditor {
	runner := &platform.ExecRunner{
		Timeout: time.Duration(cfg.Attribution.TimeoutSeconds) * time.Second,
	}

	a := &Auditor{
		Config:  cfg,
		Store:   st,
		Journal: jrnl,
		Mounts: &mounts.Discoverer{
			ESPRoot:  cfg.ESPRoot,
			BootRoot: cfg.BootRoot,
		},
		Resolver: attribution.New(
			platform.DetectOwner(runner),
			cfg.Attribution.RateLimit,
			time.Duration(cfg.Attribution.TimeoutSeconds)*time.Second,
		),
		Services: &services.Collector{
			Lister: &platform.SystemdLister{Runner: runner},
		},
		Modules: &kmod.Triage{
			Lister:           &platform.ProcModules{},
			Taints:           &platform.SysfsTaint{},
			Info:             &platform.Modinfo{Runner: runner},
			SuspiciousTaints: cfg.Modules.SuspiciousTaints,
			TrustedSigners:   cfg.Modules.TrustedSigners,
		},
		HostInfo: systemHostInfo,
	}

	rules, err := services.FromConfig(cfg.Services.SafePatterns, cfg.Services.UnsafePatterns)
	if err != nil {
		a.rulesetNote = fmt.Sprintf("service patterns rejected, using built-in tables: %v", err)
		rules = services.DefaultRuleset()
	}
	a.Services.Rules = rules

	return a
}

// Run executes one audit in the given mode. The note, if any, is
// template-expanded and stored in the snapshot header when a snapshot
// is saved.
func (a *Auditor) Run(ctx context.Context, mode model.Mode, note string) (*model.Report, error) {
	rep := &model.Report{Mode: mode, StartedAt: time.Now().UTC()}
	if a.rulesetNote != "" {
		rep.AddNote(a.rulesetNote)
	}

	hostInfo := a.HostInfo
	if hostInfo == nil {
		hostInfo = systemHostInfo
	}
	rep.Hostname, rep.KernelVersion = hostInfo(ctx)

	disc := a.Mounts.Discover(ctx)
	snap, err := a.capture(ctx, rep, disc, note)
	if err != nil {
		return nil, err
	}

	if err := a.applyMode(ctx, rep, mode, snap); err != nil {
		return nil, err
	}

	a.runServices(ctx, rep)
	a.runModules(ctx, rep)
	a.appendJournal(rep, mode, snap.Note)

	rep.FinishedAt = time.Now().UTC()
	return rep, nil
}

// capture hashes both audit roots into an unsaved snapshot.
func (a *Auditor) capture(ctx context.Context, rep *model.Report, disc mounts.Discovery, note string) (*model.Snapshot, error) {
	alg, err := hashtree.ParseAlgorithm(a.Config.Algorithm)
	if err != nil {
		return nil, err
	}

	opts := hashtree.Options{
		Algorithm: alg,
		Workers:   a.Config.EffectiveWorkers(),
		Progress:  a.Progress,
	}

	var espTree *hashtree.Tree
	if disc.ESPMounted {
		espTree, err = hashtree.Build(ctx, disc.ESPRoot, opts)
		if err != nil {
			return nil, fmt.Errorf("hash ESP: %w", err)
		}
	} else {
		espTree = &hashtree.Tree{Root: disc.ESPRoot}
		rep.AddNote("ESP not mounted; ESP section recorded as absent")
	}

	bootOpts := opts
	bootOpts.Exclude = nestedExclude(disc.BootRoot, disc.ESPRoot)
	bootTree, err := hashtree.Build(ctx, disc.BootRoot, bootOpts)
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", disc.BootRoot, err)
	}
	if !bootTree.Present {
		rep.AddNote(fmt.Sprintf("%s missing; section recorded as absent", disc.BootRoot))
	}

	for _, tree := range []*hashtree.Tree{espTree, bootTree} {
		if len(tree.Skipped) > 0 {
			rep.AddNote(fmt.Sprintf("%d unreadable files skipped under %s", len(tree.Skipped), tree.Root))
		}
	}

	return &model.Snapshot{
		ID:            model.NewSnapshotID(),
		CreatedAt:     time.Now().UTC(),
		Hostname:      rep.Hostname,
		KernelVersion: rep.KernelVersion,
		Algorithm:     string(alg),
		Note:          template.ExpandNote(note, rep.KernelVersion),
		Sections: []model.SnapshotSection{
			{Label: model.SectionESP, Root: espTree.Root, Present: espTree.Present, Entries: espTree.Entries, Skipped: espTree.Skipped},
			{Label: model.SectionBoot, Root: bootTree.Root, Present: bootTree.Present, Entries: bootTree.Entries, Skipped: bootTree.Skipped},
		},
	}, nil
}

// applyMode runs the snapshot/compare decision. Compare runs are
// read-only: the captured state is reported, not stored, and the
// baseline stays pinned until the operator records a new snapshot.
func (a *Auditor) applyMode(ctx context.Context, rep *model.Report, mode model.Mode, snap *model.Snapshot) error {
	if mode == model.ModeSnapshot {
		a.save(rep, snap)
		return nil
	}

	baseline, err := a.Store.LoadLatest()
	if err != nil {
		rep.AddNote(fmt.Sprintf("baseline unavailable: %v", err))
		baseline = nil
	}

	if baseline == nil {
		rep.Bootstrap = true
		if mode == model.ModeCompare {
			rep.AddNote("no baseline for comparison; recorded the first snapshot instead")
		}
		a.save(rep, snap)
		return nil
	}

	result, err := diff.Compare(baseline, snap)
	if err != nil {
		rep.AddNote(fmt.Sprintf("cannot compare with baseline %s: %v; recorded a fresh baseline", baseline.ID.ShortID(), err))
		rep.Bootstrap = true
		a.save(rep, snap)
		return nil
	}

	rep.BaselineID = baseline.ID
	rep.Diff = result

	changes, note := a.Resolver.Resolve(ctx, result)
	rep.Changes = changes
	if note != "" {
		rep.AddNote(note)
	}
	return nil
}

func (a *Auditor) save(rep *model.Report, snap *model.Snapshot) {
	id, err := a.Store.Save(snap)
	if err != nil {
		logging.Warnw("snapshot not saved", "error", err)
		rep.AddNote(fmt.Sprintf("snapshot not saved: %v", err))
		return
	}
	rep.SnapshotID = id
}

func (a *Auditor) runServices(ctx context.Context, rep *model.Report) {
	records, err := a.Services.Collect(ctx)
	if err != nil {
		logging.Warnw("service check unavailable", "error", err)
		rep.AddNote(fmt.Sprintf("service check unavailable: %v", err))
		return
	}
	if records == nil {
		records = []model.ServiceRecord{}
	}
	rep.Services = records
	rep.ServicesChecked = len(records)
}

func (a *Auditor) runModules(ctx context.Context, rep *model.Report) {
	findings, err := a.Modules.Run(ctx)
	if err != nil {
		logging.Warnw("module check unavailable", "error", err)
		rep.AddNote(fmt.Sprintf("module check unavailable: %v", err))
		return
	}
	if findings == nil {
		findings = []model.ModuleFinding{}
	}
	rep.Modules = findings
	rep.ModulesChecked = len(findings)
}

func (a *Auditor) appendJournal(rep *model.Report, mode model.Mode, note string) {
	rec := model.RunRecord{
		Event:          eventFor(mode),
		Mode:           mode,
		SnapshotID:     rep.SnapshotID,
		BaselineID:     rep.BaselineID,
		Unmanaged:      len(rep.Unmanaged()),
		ServicesUnsafe: rep.ServiceCount(model.CategoryUnsafe),
		ServicesReview: rep.ServiceCount(model.CategoryReview),
	}
	if rep.Diff != nil {
		rec.Added = len(rep.Diff.Added)
		rec.Removed = len(rep.Diff.Removed)
		rec.Modified = len(rep.Diff.Modified)
	}
	for _, f := range rep.Modules {
		if f.Flagged() {
			rec.ModulesFlagged++
		}
	}
	if note != "" {
		rec.Details = map[string]any{"note": note}
	}

	if err := a.Journal.Append(rec); err != nil {
		logging.Warnw("journal append failed", "error", err)
		rep.AddNote(fmt.Sprintf("journal append failed: %v", err))
	}
}

func eventFor(mode model.Mode) model.EventType {
	switch mode {
	case model.ModeSnapshot:
		return model.EventSnapshot
	case model.ModeCompare:
		return model.EventCompare
	default:
		return model.EventAudit
	}
}

// nestedExclude keeps a mounted ESP out of the boot section when it
// lives underneath the boot root, so the two sections stay disjoint.
func nestedExclude(bootRoot, espRoot string) []string {
	rel, err := filepath.Rel(bootRoot, espRoot)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return nil
	}
	return []string{filepath.ToSlash(rel)}
}

func systemHostInfo(ctx context.Context) (string, string) {
	info, err := host.InfoWithContext(ctx)
	if err == nil {
		return info.Hostname, info.KernelVersion
	}
	logging.Debugw("host info unavailable", "error", err)
	name, _ := os.Hostname()
	return name, "unknown"
}
