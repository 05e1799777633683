// Package mounts locates the EFI system partition and the boot tree on
// the running host.
package mounts

import (
	"context"
	"os"

	"github.com/shirou/gopsutil/v4/disk"

	"github.com/bootaudit/bootaudit/pkg/logging"
)

// DefaultESPRoot is where the ESP lives on almost every Linux install.
const DefaultESPRoot = "/boot/efi"

// DefaultBootRoot is the kernel and bootloader tree.
const DefaultBootRoot = "/boot"

// espCandidates in preference order. Some distributions mount the ESP
// directly at /efi.
var espCandidates = []string{DefaultESPRoot, "/efi"}

// PartitionLister reports the mounted filesystems.
type PartitionLister func(ctx context.Context) ([]disk.PartitionStat, error)

func systemPartitions(ctx context.Context) ([]disk.PartitionStat, error) {
	return disk.PartitionsWithContext(ctx, true)
}

// Discovery names the two audit roots. ESPMounted distinguishes a live
// ESP from a bare mountpoint directory: an unmounted ESP leaves an
// empty /boot/efi behind, and hashing that as "present, zero files"
// would misread every baseline entry as removed.
type Discovery struct {
	ESPRoot    string
	ESPMounted bool
	BootRoot   string
}

// Discoverer resolves audit roots from the mount table, honoring the
// configured overrides.
type Discoverer struct {
	// ESPRoot, when set, pins the ESP location instead of scanning the
	// mount table.
	ESPRoot string
	// BootRoot defaults to /boot.
	BootRoot string
	// List defaults to the live mount table.
	List PartitionLister
}

// Discover never fails: when the mount table cannot be read the ESP is
// reported unmounted and the audit carries on without it.
func (d *Discoverer) Discover(ctx context.Context) Discovery {
	boot := d.BootRoot
	if boot == "" {
		boot = DefaultBootRoot
	}
	disc := Discovery{ESPRoot: DefaultESPRoot, BootRoot: boot}

	if d.ESPRoot != "" {
		disc.ESPRoot = d.ESPRoot
		if info, err := os.Stat(d.ESPRoot); err == nil && info.IsDir() {
			disc.ESPMounted = true
		}
		return disc
	}

	list := d.List
	if list == nil {
		list = systemPartitions
	}
	parts, err := list(ctx)
	if err != nil {
		logging.Warnw("mount table unreadable, treating ESP as unmounted", "error", err)
		return disc
	}

	for _, candidate := range espCandidates {
		for _, part := range parts {
			if part.Mountpoint == candidate && part.Fstype == "vfat" {
				disc.ESPRoot = candidate
				disc.ESPMounted = true
				return disc
			}
		}
	}
	return disc
}
