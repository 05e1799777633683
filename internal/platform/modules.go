package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ModuleLister enumerates loaded kernel modules.
type ModuleLister interface {
	LoadedModules() ([]string, error)
}

// ModuleTaintReader reports the per-module taint flags, for example
// "OE" for an out-of-tree unsigned module.
type ModuleTaintReader interface {
	Taint(name string) (string, error)
}

// ModuleInfo is the subset of modinfo output the audit needs.
type ModuleInfo struct {
	Filename string
	Signer   string
}

// ModuleInfoReader resolves signature metadata for a loaded module.
type ModuleInfoReader interface {
	Info(ctx context.Context, name string) (*ModuleInfo, error)
}

// ProcModules lists modules from /proc/modules.
type ProcModules struct {
	// Path overrides the proc file, for tests. Empty means the real one.
	Path string
}

func (p *ProcModules) path() string {
	if p.Path != "" {
		return p.Path
	}
	return "/proc/modules"
}

func (p *ProcModules) LoadedModules() ([]string, error) {
	data, err := os.ReadFile(p.path())
	if err != nil {
		return nil, fmt.Errorf("list kernel modules: %w", err)
	}
	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		names = append(names, fields[0])
	}
	return names, nil
}

// SysfsTaint reads per-module taint flags from /sys/module.
type SysfsTaint struct {
	// Root overrides the sysfs module directory, for tests.
	Root string
}

func (s *SysfsTaint) root() string {
	if s.Root != "" {
		return s.Root
	}
	return "/sys/module"
}

func (s *SysfsTaint) Taint(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root(), name, "taint"))
	if err != nil {
		return "", fmt.Errorf("read taint for %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Modinfo resolves module metadata with the modinfo tool.
type Modinfo struct {
	Runner Runner
}

func (m *Modinfo) Info(ctx context.Context, name string) (*ModuleInfo, error) {
	out, err := m.Runner.Run(ctx, "modinfo", name)
	if err != nil {
		return nil, err
	}
	info := &ModuleInfo{}
	for _, line := range strings.Split(out, "\n") {
		// Continuation lines belong to multi-line fields like the
		// signature blob.
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch key {
		case "filename":
			info.Filename = strings.TrimSpace(value)
		case "signer":
			info.Signer = strings.TrimSpace(value)
		}
	}
	return info, nil
}
