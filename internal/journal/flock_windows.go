//go:build windows

package journal

import "os"

// The in-process mutex is sufficient protection for a single-user CLI
// tool on Windows.
func lockFile(_ *os.File) error   { return nil }
func unlockFile(_ *os.File) error { return nil }
