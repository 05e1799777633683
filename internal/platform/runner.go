// Package platform isolates host-facing collaborators (package
// managers, systemd, kernel module interfaces) behind small interfaces
// so audits can run against fakes in tests.
package platform

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// sbinDirs are searched in addition to PATH. Admin tools like modinfo
// live in sbin, which non-root sessions often do not have on PATH.
var sbinDirs = []string{"/usr/sbin", "/sbin", "/usr/bin", "/bin"}

// Runner executes host commands.
type Runner interface {
	// Run executes the command and returns its stdout.
	Run(ctx context.Context, name string, args ...string) (string, error)
	// LookPath reports where the named tool lives, or an error when
	// the host does not have it.
	LookPath(name string) (string, error)
}

// ExecRunner runs real subprocesses with a per-command timeout and a
// PATH that includes the sbin directories. Output parsing expects the
// C locale, so the child runs with LC_ALL=C.
type ExecRunner struct {
	// Timeout bounds one command. Zero means 5 seconds.
	Timeout time.Duration
}

func (r *ExecRunner) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return 5 * time.Second
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(),
		"PATH="+os.Getenv("PATH")+":"+strings.Join(sbinDirs, ":"),
		"LC_ALL=C",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%s timed out: %w", name, ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}

	return stdout.String(), nil
}

func (r *ExecRunner) LookPath(name string) (string, error) {
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	for _, dir := range sbinDirs {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() && info.Mode()&0111 != 0 {
			return p, nil
		}
	}
	return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
}
