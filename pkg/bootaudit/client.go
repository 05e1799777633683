package bootaudit

import (
	"context"
	"fmt"

	"github.com/bootaudit/bootaudit/internal/auditor"
	"github.com/bootaudit/bootaudit/internal/doctor"
	"github.com/bootaudit/bootaudit/internal/journal"
	"github.com/bootaudit/bootaudit/internal/state"
	"github.com/bootaudit/bootaudit/internal/store"
	"github.com/bootaudit/bootaudit/pkg/config"
	"github.com/bootaudit/bootaudit/pkg/logging"
	"github.com/bootaudit/bootaudit/pkg/model"
	"github.com/bootaudit/bootaudit/pkg/progress"
)

// Client provides high-level audit operations against one state
// directory.
type Client struct {
	cfg     *config.Config
	state   *state.State
	store   *store.Store
	journal *journal.Journal

	// Progress, when set, receives hashing progress during audit runs.
	Progress progress.Callback
}

// Options configures Open and OpenOrInit.
type Options struct {
	// Config for audit runs; nil loads the default config file.
	Config *config.Config
	// StateDir overrides the state directory from config and XDG.
	StateDir string
}

// VerifyResult reports the integrity checks for one stored snapshot.
type VerifyResult struct {
	ID             model.SnapshotID
	ChecksumValid  bool
	StructureValid bool
	EntriesSorted  bool
	TamperDetected bool
	Findings       []string
}

// HealthFinding is one problem or observation the health checks made.
type HealthFinding struct {
	Category    string
	Severity    string
	Description string
	Path        string
}

// Health is the outcome of the environment and state checks.
type Health struct {
	Healthy  bool
	Findings []HealthFinding
}

func (o Options) resolve() (*config.Config, string, error) {
	cfg := o.Config
	if cfg == nil {
		loaded, err := config.Load("")
		if err != nil {
			return nil, "", fmt.Errorf("bootaudit config: %w", err)
		}
		cfg = loaded
	}

	dir := o.StateDir
	if dir == "" {
		dir = cfg.StateDir
	}
	if dir == "" {
		d, err := state.DefaultDir()
		if err != nil {
			return nil, "", fmt.Errorf("bootaudit state dir: %w", err)
		}
		dir = d
	}
	return cfg, dir, nil
}

// Open opens existing audit state. It fails when no state directory
// exists; use OpenOrInit for first-run flows.
func Open(opts Options) (*Client, error) {
	cfg, dir, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	st, err := state.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("bootaudit open: %w", err)
	}
	return newClient(cfg, st), nil
}

// OpenOrInit opens the state directory, creating it on first use.
// This is the recommended entry point for monitoring agents.
func OpenOrInit(opts Options) (*Client, error) {
	cfg, dir, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	st, err := state.OpenOrInit(dir)
	if err != nil {
		return nil, fmt.Errorf("bootaudit open: %w", err)
	}
	return newClient(cfg, st), nil
}

func newClient(cfg *config.Config, st *state.State) *Client {
	return &Client{
		cfg:     cfg,
		state:   st,
		store:   store.New(st),
		journal: journal.New(st.JournalFile()),
	}
}

// Audit captures the boot surface and compares it against the pinned
// baseline. On a first run the captured snapshot becomes the baseline
// instead. Sub-checks that cannot run degrade to report notes.
func (c *Client) Audit(ctx context.Context) (*model.Report, error) {
	return c.run(ctx, model.ModeAuto, "")
}

// Snapshot records a fresh baseline snapshot. Future audits compare
// against it. The note supports the same placeholders as the CLI.
func (c *Client) Snapshot(ctx context.Context, note string) (*model.Report, error) {
	return c.run(ctx, model.ModeSnapshot, note)
}

// Compare reports drift against the pinned baseline without storing
// the captured state. With no baseline recorded yet it records a
// first snapshot instead.
func (c *Client) Compare(ctx context.Context) (*model.Report, error) {
	return c.run(ctx, model.ModeCompare, "")
}

func (c *Client) run(ctx context.Context, mode model.Mode, note string) (*model.Report, error) {
	a := auditor.New(c.cfg, c.store, c.journal)
	a.Progress = c.Progress
	return a.Run(ctx, mode, note)
}

// History returns stored snapshots, newest first. Pass limit <= 0 for
// all snapshots.
func (c *Client) History(limit int) ([]*model.Snapshot, error) {
	list, err := c.store.List()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// LoadSnapshot loads one stored snapshot by full ID, unique prefix or
// "latest".
func (c *Client) LoadSnapshot(ref string) (*model.Snapshot, error) {
	id, err := c.store.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return c.store.Load(id)
}

// Baseline returns the snapshot the next audit compares against.
// Returns nil, nil when none is recorded yet.
func (c *Client) Baseline() (*model.Snapshot, error) {
	return c.store.LoadLatest()
}

// Verify checks the structural integrity of one stored snapshot.
func (c *Client) Verify(ref string) (VerifyResult, error) {
	id, err := c.store.Resolve(ref)
	if err != nil {
		return VerifyResult{}, err
	}
	res, err := c.store.Verify(id)
	if err != nil {
		return VerifyResult{}, err
	}
	return fromStoreResult(res), nil
}

// VerifyAll verifies every stored snapshot.
func (c *Client) VerifyAll() ([]VerifyResult, error) {
	results, err := c.store.VerifyAll()
	if err != nil {
		return nil, err
	}
	out := make([]VerifyResult, 0, len(results))
	for _, res := range results {
		out = append(out, fromStoreResult(res))
	}
	return out, nil
}

func fromStoreResult(r *store.VerifyResult) VerifyResult {
	return VerifyResult{
		ID:             r.ID,
		ChecksumValid:  r.ChecksumValid,
		StructureValid: r.StructureValid,
		EntriesSorted:  r.EntriesSorted,
		TamperDetected: r.TamperDetected,
		Findings:       r.Findings,
	}
}

// Prune deletes the oldest snapshots beyond keep, newest first kept.
// The baseline is never deleted. Returns the deleted IDs; with dryRun
// set they are only reported.
func (c *Client) Prune(keep int, dryRun bool) ([]model.SnapshotID, error) {
	victims, err := c.store.Prune(keep, dryRun)
	if err != nil {
		return nil, err
	}

	if !dryRun && len(victims) > 0 {
		rec := model.RunRecord{
			Event:   model.EventPrune,
			Details: map[string]any{"deleted": len(victims), "keep": keep},
		}
		if err := c.journal.Append(rec); err != nil {
			logging.Warnw("journal append failed", "error", err)
		}
	}
	return victims, nil
}

// Journal returns past run records, newest first. Pass limit <= 0 for
// all records.
func (c *Client) Journal(limit int) ([]model.RunRecord, error) {
	return c.journal.List(limit)
}

// VerifyJournal walks the journal hash chain from the start and
// returns the number of intact records.
func (c *Client) VerifyJournal() (int, error) {
	return c.journal.VerifyChain()
}

// CheckHealth runs the environment and state health checks. Strict
// adds full verification of every stored snapshot.
func (c *Client) CheckHealth(ctx context.Context, strict bool) *Health {
	res := doctor.New(c.cfg, c.state.Dir).Check(ctx, strict)

	out := &Health{Healthy: res.Healthy}
	for _, f := range res.Findings {
		out.Findings = append(out.Findings, HealthFinding{
			Category:    f.Category,
			Severity:    f.Severity,
			Description: f.Description,
			Path:        f.Path,
		})
	}
	return out
}

// StateDir returns the absolute path of the state directory.
func (c *Client) StateDir() string {
	return c.state.Dir
}

// StateID returns the unique identifier of the state directory.
func (c *Client) StateID() string {
	return c.state.StateID
}

// Config returns the configuration audit runs use.
func (c *Client) Config() *config.Config {
	return c.cfg
}
