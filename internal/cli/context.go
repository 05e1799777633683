package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/bootaudit/bootaudit/internal/journal"
	"github.com/bootaudit/bootaudit/internal/state"
	"github.com/bootaudit/bootaudit/internal/store"
	"github.com/bootaudit/bootaudit/pkg/color"
	"github.com/bootaudit/bootaudit/pkg/config"
)

// loadConfig reads the config file named by --config (or the default
// location) and applies flag overrides, or exits with error.
func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmtErr("load config: %v", err)
		os.Exit(1)
	}
	if stateDirFlag != "" {
		cfg.StateDir = stateDirFlag
	}
	return cfg
}

// resolveStateDir picks the state directory: --state-dir flag (already
// folded into cfg), then config, then the XDG default.
func resolveStateDir(cfg *config.Config) string {
	if cfg.StateDir != "" {
		return cfg.StateDir
	}
	dir, err := state.DefaultDir()
	if err != nil {
		fmtErr("resolve state directory: %v", err)
		os.Exit(1)
	}
	return dir
}

// openStore opens an existing state directory, or exits with error.
// Inspection commands use this so they never create state by accident.
func openStore(cfg *config.Config) (*state.State, *store.Store, *journal.Journal) {
	dir := resolveStateDir(cfg)
	st, err := state.Open(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, formatNoStateError(dir, err))
		os.Exit(1)
	}
	return st, store.New(st), journal.New(st.JournalFile())
}

// openOrInitStore opens the state directory, creating it on first use.
// Audit commands use this.
func openOrInitStore(cfg *config.Config) (*state.State, *store.Store, *journal.Journal) {
	dir := resolveStateDir(cfg)
	st, err := state.OpenOrInit(dir)
	if err != nil {
		fmtErr("open state directory: %v", err)
		os.Exit(1)
	}
	return st, store.New(st), journal.New(st.JournalFile())
}

func fmtErr(format string, args ...any) {
	prefix := "bootaudit: "
	if color.Enabled() {
		prefix = color.Error("bootaudit:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}

// progressEnabled reports whether a progress bar should draw: only on
// an interactive terminal, and never under --json.
func progressEnabled() bool {
	if jsonOutput {
		return false
	}
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}
