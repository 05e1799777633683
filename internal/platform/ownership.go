package platform

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// PackageOwner resolves which package a file belongs to. A nil owner
// returned by Owner with a nil error means no package claims the path.
type PackageOwner interface {
	// Name identifies the backing tool, for notes and logs.
	Name() string
	Owner(ctx context.Context, path string) (string, error)
}

// DetectOwner picks the package ownership collaborator for this host:
// dpkg on Debian-family systems, rpm on RPM systems, nil when neither
// tool exists.
func DetectOwner(r Runner) PackageOwner {
	if _, err := r.LookPath("dpkg"); err == nil {
		return &DpkgOwner{Runner: r}
	}
	if _, err := r.LookPath("rpm"); err == nil {
		return &RpmOwner{Runner: r}
	}
	return nil
}

// DpkgOwner answers ownership queries with dpkg -S.
type DpkgOwner struct {
	Runner Runner
}

func (o *DpkgOwner) Name() string { return "dpkg" }

func (o *DpkgOwner) Owner(ctx context.Context, path string) (string, error) {
	out, err := o.Runner.Run(ctx, "dpkg", "-S", path)
	if err != nil {
		// dpkg exits 1 when no package owns the path. That is an
		// answer, not a failure.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", nil
		}
		return "", err
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "diversion by ") {
			continue
		}
		pkgs, _, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		// Shared paths list several owners. The first is as good an
		// answer as any for attribution.
		name, _, _ := strings.Cut(pkgs, ",")
		return strings.TrimSpace(name), nil
	}
	return "", nil
}

// RpmOwner answers ownership queries with rpm -qf.
type RpmOwner struct {
	Runner Runner
}

func (o *RpmOwner) Name() string { return "rpm" }

func (o *RpmOwner) Owner(ctx context.Context, path string) (string, error) {
	out, err := o.Runner.Run(ctx, "rpm", "-qf", "--qf", "%{NAME}\\n", path)
	if err != nil {
		// rpm exits 1 for files outside any package.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", nil
		}
		return "", err
	}
	name := strings.TrimSpace(out)
	if strings.Contains(name, "is not owned by any package") {
		return "", nil
	}
	return name, nil
}
