// Package doctor checks the health of the bootaudit state and of the
// host tools the audit depends on.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bootaudit/bootaudit/internal/journal"
	"github.com/bootaudit/bootaudit/internal/mounts"
	"github.com/bootaudit/bootaudit/internal/platform"
	"github.com/bootaudit/bootaudit/internal/state"
	"github.com/bootaudit/bootaudit/internal/store"
	"github.com/bootaudit/bootaudit/pkg/config"
	"github.com/bootaudit/bootaudit/pkg/errclass"
	"github.com/bootaudit/bootaudit/pkg/fsutil"
)

// Finding is one detected issue.
type Finding struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Path        string `json:"path,omitempty"`
}

// Result holds all doctor findings. Only critical findings make the
// state unhealthy; warnings describe degraded audits, not broken ones.
type Result struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
}

func (r *Result) add(f Finding) {
	r.Findings = append(r.Findings, f)
	if f.Severity == "critical" {
		r.Healthy = false
	}
}

// Doctor performs state and environment health checks.
type Doctor struct {
	Dir    string
	Runner platform.Runner
	Mounts *mounts.Discoverer
}

// New builds a doctor for the given state directory.
func New(cfg *config.Config, dir string) *Doctor {
	return &Doctor{
		Dir:    dir,
		Runner: &platform.ExecRunner{},
		Mounts: &mounts.Discoverer{
			ESPRoot:  cfg.ESPRoot,
			BootRoot: cfg.BootRoot,
		},
	}
}

// Check runs every diagnostic. Strict additionally verifies the
// structure and checksum of every stored snapshot.
func (d *Doctor) Check(ctx context.Context, strict bool) *Result {
	result := &Result{Healthy: true}

	st := d.checkState(result)
	if st != nil {
		s := store.New(st)
		d.checkLatestPointer(result, s)
		if strict {
			d.checkSnapshots(result, s)
		}
		d.checkJournal(result, journal.New(st.JournalFile()))
		d.checkOrphanTmp(result, st.Dir)
	}

	d.checkTools(result)
	d.checkMounts(ctx, result)

	return result
}

func (d *Doctor) checkState(result *Result) *state.State {
	if _, err := os.Stat(d.Dir); os.IsNotExist(err) {
		result.add(Finding{
			Category:    "state",
			Description: "no state directory yet; the first audit will create it",
			Severity:    "info",
			Path:        d.Dir,
		})
		return nil
	}

	st, err := state.Open(d.Dir)
	if err != nil {
		severity := "critical"
		desc := fmt.Sprintf("state directory unusable: %v", err)
		if errors.Is(err, errclass.ErrFormatUnsupported) {
			desc = fmt.Sprintf("state format newer than this build supports: %v", err)
		}
		result.add(Finding{
			Category:    "state",
			Description: desc,
			Severity:    severity,
			Path:        d.Dir,
		})
		return nil
	}
	return st
}

func (d *Doctor) checkLatestPointer(result *Result, s *store.Store) {
	ptr, err := s.Latest()
	if err != nil {
		result.add(Finding{
			Category:    "store",
			Description: fmt.Sprintf("latest pointer unreadable: %v", err),
			Severity:    "critical",
		})
		return
	}
	if ptr == nil {
		ids, err := s.ListIDs()
		if err == nil && len(ids) > 0 {
			result.add(Finding{
				Category:    "store",
				Description: fmt.Sprintf("%d snapshots exist but no latest pointer; the next audit will bootstrap", len(ids)),
				Severity:    "warning",
			})
		}
		return
	}
	if _, err := s.Load(ptr.TargetID); err != nil {
		result.add(Finding{
			Category:    "store",
			Description: fmt.Sprintf("latest pointer names snapshot %s which cannot be loaded: %v", ptr.TargetID.ShortID(), err),
			Severity:    "critical",
		})
	}
}

func (d *Doctor) checkSnapshots(result *Result, s *store.Store) {
	results, err := s.VerifyAll()
	if err != nil {
		result.add(Finding{
			Category:    "integrity",
			Description: fmt.Sprintf("snapshot verification failed: %v", err),
			Severity:    "critical",
		})
		return
	}
	for _, r := range results {
		if !r.TamperDetected {
			continue
		}
		result.add(Finding{
			Category:    "integrity",
			Description: fmt.Sprintf("snapshot %s: %s", r.ID.ShortID(), strings.Join(r.Findings, "; ")),
			Severity:    "critical",
		})
	}
}

func (d *Doctor) checkJournal(result *Result, j *journal.Journal) {
	count, err := j.VerifyChain()
	if err != nil {
		result.add(Finding{
			Category:    "journal",
			Description: fmt.Sprintf("run journal broken after %d records: %v", count, err),
			Severity:    "critical",
		})
	}
}

func (d *Doctor) checkOrphanTmp(result *Result, dir string) {
	filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if strings.HasPrefix(entry.Name(), fsutil.TmpPrefix) {
			result.add(Finding{
				Category:    "tmp",
				Description: fmt.Sprintf("orphan temp file from an interrupted write: %s", entry.Name()),
				Severity:    "info",
				Path:        path,
			})
		}
		return nil
	})
}

func (d *Doctor) checkTools(result *Result) {
	_, dpkgErr := d.Runner.LookPath("dpkg")
	_, rpmErr := d.Runner.LookPath("rpm")
	if dpkgErr != nil && rpmErr != nil {
		result.add(Finding{
			Category:    "tools",
			Description: "neither dpkg nor rpm found; every change will report as unmanaged",
			Severity:    "warning",
		})
	}
	if _, err := d.Runner.LookPath("systemctl"); err != nil {
		result.add(Finding{
			Category:    "tools",
			Description: "systemctl not found; the service check will be skipped",
			Severity:    "warning",
		})
	}
	if _, err := d.Runner.LookPath("modinfo"); err != nil {
		result.add(Finding{
			Category:    "tools",
			Description: "modinfo not found; module signers will read as unknown",
			Severity:    "warning",
		})
	}
}

func (d *Doctor) checkMounts(ctx context.Context, result *Result) {
	disc := d.Mounts.Discover(ctx)
	if !disc.ESPMounted {
		result.add(Finding{
			Category:    "mounts",
			Description: fmt.Sprintf("no ESP mounted at %s; the ESP section will be recorded as absent", disc.ESPRoot),
			Severity:    "warning",
			Path:        disc.ESPRoot,
		})
	}
	if _, err := os.Stat(disc.BootRoot); os.IsNotExist(err) {
		result.add(Finding{
			Category:    "mounts",
			Description: fmt.Sprintf("boot tree %s does not exist", disc.BootRoot),
			Severity:    "warning",
			Path:        disc.BootRoot,
		})
	}
}
