// Package attribution resolves changed boot files to the packages that
// own them. Changes nobody owns are the interesting ones.
package attribution

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/bootaudit/bootaudit/internal/platform"
	"github.com/bootaudit/bootaudit/pkg/logging"
	"github.com/bootaudit/bootaudit/pkg/model"
)

const (
	defaultPerSecond = 20
	defaultTimeout   = 5 * time.Second
)

// Resolver attributes filesystem changes to packages through the host
// package manager, pacing lookups so a large diff does not hammer it.
type Resolver struct {
	owner   platform.PackageOwner
	limiter *rate.Limiter
	timeout time.Duration
}

// New builds a resolver over the given ownership collaborator. A nil
// owner (host without dpkg or rpm) is accepted and marks every change
// unmanaged.
func New(owner platform.PackageOwner, perSecond int, timeout time.Duration) *Resolver {
	if perSecond <= 0 {
		perSecond = defaultPerSecond
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Resolver{
		owner:   owner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
		timeout: timeout,
	}
}

// Resolve attributes the added and modified paths of a diff. Removed
// paths are never queried: the file is gone, so the package manager
// cannot say anything useful about it. Lookup failures degrade to
// unmanaged, and the returned note is non-empty when no ownership tool
// was available for lookups that needed one.
func (r *Resolver) Resolve(ctx context.Context, diff *model.DiffResult) ([]model.AttributedChange, string) {
	if diff == nil {
		return nil, ""
	}

	changes := make([]model.AttributedChange, 0, diff.Total())
	for _, p := range diff.Added {
		changes = append(changes, r.lookup(ctx, p, model.ChangeAdded))
	}
	for _, p := range diff.Modified {
		changes = append(changes, r.lookup(ctx, p, model.ChangeModified))
	}
	for _, p := range diff.Removed {
		changes = append(changes, model.AttributedChange{Path: p, Kind: model.ChangeRemoved})
	}

	note := ""
	if r.owner == nil && len(diff.Added)+len(diff.Modified) > 0 {
		note = "package attribution unavailable: no dpkg or rpm on this host"
	}
	return changes, note
}

func (r *Resolver) lookup(ctx context.Context, path string, kind model.ChangeKind) model.AttributedChange {
	change := model.AttributedChange{Path: path, Kind: kind}
	if r.owner == nil {
		return change
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return change
	}

	lctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	pkg, err := r.owner.Owner(lctx, path)
	if err != nil {
		logging.Debugw("ownership lookup failed", "path", path, "error", err)
		return change
	}
	change.OwningPackage = pkg
	return change
}
