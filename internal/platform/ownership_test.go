package platform_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bootaudit/bootaudit/internal/platform"
)

func TestDpkgOwner_Owner(t *testing.T) {
	runner := &fakeRunner{out: map[string]string{
		"dpkg -S /boot/vmlinuz-6.8.0": "linux-image-6.8.0-generic: /boot/vmlinuz-6.8.0\n",
	}}
	owner := &platform.DpkgOwner{Runner: runner}

	pkg, err := owner.Owner(context.Background(), "/boot/vmlinuz-6.8.0")
	require.NoError(t, err)
	assert.Equal(t, "linux-image-6.8.0-generic", pkg)
}

func TestDpkgOwner_SkipsDiversions(t *testing.T) {
	runner := &fakeRunner{out: map[string]string{
		"dpkg -S /bin/sh": "diversion by dash from: /bin/sh\n" +
			"diversion by dash to: /bin/sh.distrib\n" +
			"dash: /bin/sh\n",
	}}
	owner := &platform.DpkgOwner{Runner: runner}

	pkg, err := owner.Owner(context.Background(), "/bin/sh")
	require.NoError(t, err)
	assert.Equal(t, "dash", pkg)
}

func TestDpkgOwner_MultipleOwnersTakesFirst(t *testing.T) {
	runner := &fakeRunner{out: map[string]string{
		"dpkg -S /boot/grub/grub.cfg": "grub-common, grub2-common: /boot/grub/grub.cfg\n",
	}}
	owner := &platform.DpkgOwner{Runner: runner}

	pkg, err := owner.Owner(context.Background(), "/boot/grub/grub.cfg")
	require.NoError(t, err)
	assert.Equal(t, "grub-common", pkg)
}

func TestDpkgOwner_NoOwnerOnExitError(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{
		"dpkg -S /boot/evil.efi": exitError(t),
	}}
	owner := &platform.DpkgOwner{Runner: runner}

	pkg, err := owner.Owner(context.Background(), "/boot/evil.efi")
	require.NoError(t, err)
	assert.Empty(t, pkg)
}

func TestDpkgOwner_PropagatesOtherErrors(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{
		"dpkg -S /boot/x": errors.New("dpkg timed out: context deadline exceeded"),
	}}
	owner := &platform.DpkgOwner{Runner: runner}

	_, err := owner.Owner(context.Background(), "/boot/x")
	assert.Error(t, err)
}

func TestRpmOwner_Owner(t *testing.T) {
	runner := &fakeRunner{out: map[string]string{
		"rpm -qf --qf %{NAME}\\n /boot/vmlinuz": "kernel-core\n",
	}}
	owner := &platform.RpmOwner{Runner: runner}

	pkg, err := owner.Owner(context.Background(), "/boot/vmlinuz")
	require.NoError(t, err)
	assert.Equal(t, "kernel-core", pkg)
}

func TestRpmOwner_NoOwner(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{
		"rpm -qf --qf %{NAME}\\n /boot/stray": exitError(t),
	}}
	owner := &platform.RpmOwner{Runner: runner}

	pkg, err := owner.Owner(context.Background(), "/boot/stray")
	require.NoError(t, err)
	assert.Empty(t, pkg)
}

func TestDetectOwner(t *testing.T) {
	t.Run("prefers dpkg", func(t *testing.T) {
		runner := &fakeRunner{tools: map[string]bool{"dpkg": true, "rpm": true}}
		owner := platform.DetectOwner(runner)
		require.NotNil(t, owner)
		assert.Equal(t, "dpkg", owner.Name())
	})

	t.Run("falls back to rpm", func(t *testing.T) {
		runner := &fakeRunner{tools: map[string]bool{"rpm": true}}
		owner := platform.DetectOwner(runner)
		require.NotNil(t, owner)
		assert.Equal(t, "rpm", owner.Name())
	})

	t.Run("nil without a package manager", func(t *testing.T) {
		runner := &fakeRunner{}
		assert.Nil(t, platform.DetectOwner(runner))
	})
}
