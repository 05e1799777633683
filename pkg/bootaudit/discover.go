package bootaudit

import (
	"context"

	"github.com/bootaudit/bootaudit/internal/hashtree"
	"github.com/bootaudit/bootaudit/internal/mounts"
	"github.com/bootaudit/bootaudit/pkg/config"
)

// Roots names the two trees an audit would hash on this host.
type Roots struct {
	ESPRoot    string
	ESPMounted bool
	BootRoot   string
}

// DiscoverRoots reports where the ESP and the boot tree live,
// honoring the configured overrides. Pass a nil config for pure mount
// table discovery.
func DiscoverRoots(ctx context.Context, cfg *config.Config) Roots {
	d := &mounts.Discoverer{}
	if cfg != nil {
		d.ESPRoot = cfg.ESPRoot
		d.BootRoot = cfg.BootRoot
	}

	disc := d.Discover(ctx)
	return Roots{
		ESPRoot:    disc.ESPRoot,
		ESPMounted: disc.ESPMounted,
		BootRoot:   disc.BootRoot,
	}
}

// ValidateAlgorithm checks whether the given digest algorithm name is
// supported. Returns nil for sha256 and blake3.
func ValidateAlgorithm(name string) error {
	_, err := hashtree.ParseAlgorithm(name)
	return err
}
