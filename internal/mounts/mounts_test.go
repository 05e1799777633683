package mounts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/stretchr/testify/assert"

	"github.com/bootaudit/bootaudit/internal/mounts"
)

func listerWith(parts ...disk.PartitionStat) mounts.PartitionLister {
	return func(context.Context) ([]disk.PartitionStat, error) {
		return parts, nil
	}
}

func TestDiscover_ESPAtBootEFI(t *testing.T) {
	d := &mounts.Discoverer{List: listerWith(
		disk.PartitionStat{Device: "/dev/sda2", Mountpoint: "/", Fstype: "ext4"},
		disk.PartitionStat{Device: "/dev/sda1", Mountpoint: "/boot/efi", Fstype: "vfat"},
	)}

	disc := d.Discover(context.Background())
	assert.Equal(t, "/boot/efi", disc.ESPRoot)
	assert.True(t, disc.ESPMounted)
	assert.Equal(t, "/boot", disc.BootRoot)
}

func TestDiscover_ESPAtEFI(t *testing.T) {
	d := &mounts.Discoverer{List: listerWith(
		disk.PartitionStat{Device: "/dev/nvme0n1p1", Mountpoint: "/efi", Fstype: "vfat"},
	)}

	disc := d.Discover(context.Background())
	assert.Equal(t, "/efi", disc.ESPRoot)
	assert.True(t, disc.ESPMounted)
}

func TestDiscover_PrefersBootEFI(t *testing.T) {
	d := &mounts.Discoverer{List: listerWith(
		disk.PartitionStat{Device: "/dev/sdb1", Mountpoint: "/efi", Fstype: "vfat"},
		disk.PartitionStat{Device: "/dev/sda1", Mountpoint: "/boot/efi", Fstype: "vfat"},
	)}

	disc := d.Discover(context.Background())
	assert.Equal(t, "/boot/efi", disc.ESPRoot)
}

func TestDiscover_IgnoresNonVfatMountpoint(t *testing.T) {
	d := &mounts.Discoverer{List: listerWith(
		disk.PartitionStat{Device: "/dev/sda3", Mountpoint: "/boot/efi", Fstype: "ext4"},
	)}

	disc := d.Discover(context.Background())
	assert.Equal(t, "/boot/efi", disc.ESPRoot)
	assert.False(t, disc.ESPMounted)
}

func TestDiscover_NoESP(t *testing.T) {
	d := &mounts.Discoverer{List: listerWith(
		disk.PartitionStat{Device: "/dev/sda2", Mountpoint: "/", Fstype: "ext4"},
	)}

	disc := d.Discover(context.Background())
	assert.Equal(t, "/boot/efi", disc.ESPRoot)
	assert.False(t, disc.ESPMounted)
}

func TestDiscover_MountTableError(t *testing.T) {
	d := &mounts.Discoverer{List: func(context.Context) ([]disk.PartitionStat, error) {
		return nil, errors.New("proc not mounted")
	}}

	disc := d.Discover(context.Background())
	assert.Equal(t, "/boot/efi", disc.ESPRoot)
	assert.False(t, disc.ESPMounted)
	assert.Equal(t, "/boot", disc.BootRoot)
}

func TestDiscover_Override(t *testing.T) {
	root := t.TempDir()
	d := &mounts.Discoverer{ESPRoot: root}

	disc := d.Discover(context.Background())
	assert.Equal(t, root, disc.ESPRoot)
	assert.True(t, disc.ESPMounted)
}

func TestDiscover_OverrideMissingDir(t *testing.T) {
	d := &mounts.Discoverer{ESPRoot: "/no/such/esp"}

	disc := d.Discover(context.Background())
	assert.Equal(t, "/no/such/esp", disc.ESPRoot)
	assert.False(t, disc.ESPMounted)
}

func TestDiscover_BootRootOverride(t *testing.T) {
	d := &mounts.Discoverer{BootRoot: "/mnt/sysroot/boot", List: listerWith()}

	disc := d.Discover(context.Background())
	assert.Equal(t, "/mnt/sysroot/boot", disc.BootRoot)
}
