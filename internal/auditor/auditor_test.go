package auditor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bootaudit/bootaudit/internal/attribution"
	"github.com/bootaudit/bootaudit/internal/auditor"
	"github.com/bootaudit/bootaudit/internal/journal"
	"github.com/bootaudit/bootaudit/internal/kmod"
	"github.com/bootaudit/bootaudit/internal/platform"
	"github.com/bootaudit/bootaudit/internal/services"
	"github.com/bootaudit/bootaudit/internal/state"
	"github.com/bootaudit/bootaudit/internal/store"
	"github.com/bootaudit/bootaudit/pkg/config"
	"github.com/bootaudit/bootaudit/pkg/model"
)

type fakeOwner struct {
	owners map[string]string
}

func (f *fakeOwner) Name() string { return "fake" }

func (f *fakeOwner) Owner(_ context.Context, path string) (string, error) {
	return f.owners[path], nil
}

type fakeLister struct {
	units []string
	err   error
}

func (f *fakeLister) EnabledServices(context.Context) ([]string, error) {
	return f.units, f.err
}

type fakeModules struct {
	names   []string
	listErr error
	taints  map[string]string
	signers map[string]string
}

func (f *fakeModules) LoadedModules() ([]string, error) { return f.names, f.listErr }

func (f *fakeModules) Taint(name string) (string, error) { return f.taints[name], nil }

func (f *fakeModules) Info(_ context.Context, name string) (*platform.ModuleInfo, error) {
	return &platform.ModuleInfo{Signer: f.signers[name]}, nil
}

func noteContaining(notes []string, substr string) bool {
	for _, n := range notes {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}

type fixture struct {
	a       *auditor.Auditor
	store   *store.Store
	journal *journal.Journal
	cfg     *config.Config
	owner   *fakeOwner
	espDir  string
	bootDir string
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := state.Init(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	s := store.New(st)
	j := journal.New(st.JournalFile())

	espDir := t.TempDir()
	bootDir := t.TempDir()
	writeFile(t, espDir, "EFI/BOOT/BOOTX64.EFI", "shim v1")
	writeFile(t, bootDir, "vmlinuz-6.8.0", "kernel image")
	writeFile(t, bootDir, "grub/grub.cfg", "menuentry linux")

	cfg := config.Default()
	cfg.ESPRoot = espDir
	cfg.BootRoot = bootDir

	owner := &fakeOwner{owners: map[string]string{
		filepath.Join(bootDir, "grub/grub.cfg"): "grub-common",
	}}
	mods := &fakeModules{
		names:   []string{"ext4"},
		taints:  map[string]string{"ext4": ""},
		signers: map[string]string{"ext4": "Ubuntu Secure Boot Module signing key"},
	}

	a := auditor.New(cfg, s, j)
	a.HostInfo = func(context.Context) (string, string) { return "testhost", "6.8.0-test" }
	a.Resolver = attribution.New(owner, 10000, time.Second)
	a.Services = &services.Collector{
		Lister: &fakeLister{units: []string{"sshd.service", "telnetd.service"}},
	}
	a.Modules = &kmod.Triage{Lister: mods, Taints: mods, Info: mods}

	return &fixture{a: a, store: s, journal: j, cfg: cfg, owner: owner, espDir: espDir, bootDir: bootDir}
}

func (f *fixture) snapshotCount(t *testing.T) int {
	t.Helper()
	ids, err := f.store.ListIDs()
	require.NoError(t, err)
	return len(ids)
}

func TestRun_BootstrapOnFirstRun(t *testing.T) {
	f := newFixture(t)

	rep, err := f.a.Run(context.Background(), model.ModeAuto, "")
	require.NoError(t, err)

	assert.True(t, rep.Bootstrap)
	assert.NotEmpty(t, rep.SnapshotID)
	assert.Nil(t, rep.Diff)
	assert.Equal(t, "testhost", rep.Hostname)
	assert.Equal(t, 1, f.snapshotCount(t))

	snap, err := f.store.Load(rep.SnapshotID)
	require.NoError(t, err)
	esp := snap.Section(model.SectionESP)
	require.NotNil(t, esp)
	assert.True(t, esp.Present)
	assert.Len(t, esp.Entries, 1)
	boot := snap.Section(model.SectionBoot)
	require.NotNil(t, boot)
	assert.Len(t, boot.Entries, 2)

	records, err := f.journal.List(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.EventAudit, records[0].Event)
	assert.Equal(t, rep.SnapshotID, records[0].SnapshotID)
}

func TestRun_ClassifiersRunInEveryMode(t *testing.T) {
	f := newFixture(t)

	for _, mode := range []model.Mode{model.ModeSnapshot, model.ModeAuto, model.ModeCompare} {
		rep, err := f.a.Run(context.Background(), mode, "")
		require.NoError(t, err)
		assert.Equal(t, 2, rep.ServicesChecked, "mode %s", mode)
		assert.Equal(t, model.CategoryUnsafe, rep.Services[1].Category, "mode %s", mode)
		assert.Equal(t, 1, rep.ModulesChecked, "mode %s", mode)
	}
}

func TestRun_AutoComparesAgainstBaseline(t *testing.T) {
	f := newFixture(t)

	first, err := f.a.Run(context.Background(), model.ModeAuto, "")
	require.NoError(t, err)

	writeFile(t, f.bootDir, "grub/grub.cfg", "menuentry linux hardened")
	writeFile(t, f.bootDir, "System.map-6.8.0", "symbols")
	require.NoError(t, os.Remove(filepath.Join(f.bootDir, "vmlinuz-6.8.0")))

	second, err := f.a.Run(context.Background(), model.ModeAuto, "")
	require.NoError(t, err)

	assert.False(t, second.Bootstrap)
	assert.Equal(t, first.SnapshotID, second.BaselineID)
	require.NotNil(t, second.Diff)
	assert.Equal(t, []string{filepath.Join(f.bootDir, "System.map-6.8.0")}, second.Diff.Added)
	assert.Equal(t, []string{filepath.Join(f.bootDir, "vmlinuz-6.8.0")}, second.Diff.Removed)
	assert.Equal(t, []string{filepath.Join(f.bootDir, "grub/grub.cfg")}, second.Diff.Modified)

	// Compare runs are read-only: the baseline stays pinned.
	assert.Empty(t, second.SnapshotID)
	assert.Equal(t, 1, f.snapshotCount(t))

	require.Len(t, second.Changes, 3)
	unmanaged := second.Unmanaged()
	require.Len(t, unmanaged, 1)
	assert.Equal(t, filepath.Join(f.bootDir, "System.map-6.8.0"), unmanaged[0].Path)
	for _, c := range second.Changes {
		if c.Path == filepath.Join(f.bootDir, "grub/grub.cfg") {
			assert.Equal(t, "grub-common", c.OwningPackage)
		}
	}
}

func TestRun_NoChangesBetweenIdenticalRuns(t *testing.T) {
	f := newFixture(t)

	_, err := f.a.Run(context.Background(), model.ModeAuto, "")
	require.NoError(t, err)

	rep, err := f.a.Run(context.Background(), model.ModeAuto, "")
	require.NoError(t, err)
	require.NotNil(t, rep.Diff)
	assert.True(t, rep.Diff.Empty())
	assert.Empty(t, rep.Unmanaged())
}

func TestRun_SnapshotModeAlwaysSaves(t *testing.T) {
	f := newFixture(t)

	first, err := f.a.Run(context.Background(), model.ModeSnapshot, "")
	require.NoError(t, err)
	second, err := f.a.Run(context.Background(), model.ModeSnapshot, "")
	require.NoError(t, err)

	assert.Nil(t, first.Diff)
	assert.Nil(t, second.Diff)
	assert.False(t, second.Bootstrap)
	assert.Equal(t, 2, f.snapshotCount(t))

	ptr, err := f.store.Latest()
	require.NoError(t, err)
	require.NotNil(t, ptr)
	assert.Equal(t, second.SnapshotID, ptr.TargetID)
}

func TestRun_CompareWithoutBaselineBootstraps(t *testing.T) {
	f := newFixture(t)

	rep, err := f.a.Run(context.Background(), model.ModeCompare, "")
	require.NoError(t, err)

	assert.True(t, rep.Bootstrap)
	assert.NotEmpty(t, rep.SnapshotID)
	assert.Contains(t, rep.Notes, "no baseline for comparison; recorded the first snapshot instead")
	assert.Equal(t, 1, f.snapshotCount(t))
}

func TestRun_SubCheckFailuresBecomeNotes(t *testing.T) {
	f := newFixture(t)
	f.a.Services = &services.Collector{Lister: &fakeLister{err: errors.New("systemctl missing")}}
	f.a.Modules.Lister = &fakeModules{listErr: errors.New("proc unavailable")}
	f.a.Resolver = attribution.New(nil, 0, 0)

	rep, err := f.a.Run(context.Background(), model.ModeAuto, "")
	require.NoError(t, err)

	assert.Nil(t, rep.Services)
	assert.Nil(t, rep.Modules)
	assert.True(t, noteContaining(rep.Notes, "service check unavailable: systemctl missing"))
	assert.True(t, noteContaining(rep.Notes, "module check unavailable: proc unavailable"))
}

func TestRun_UnmountedESPSkipsSection(t *testing.T) {
	f := newFixture(t)

	_, err := f.a.Run(context.Background(), model.ModeAuto, "")
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(f.espDir))

	rep, err := f.a.Run(context.Background(), model.ModeAuto, "")
	require.NoError(t, err)

	require.NotNil(t, rep.Diff)
	assert.Equal(t, "unmounted at audit time", rep.Diff.SkippedSections[model.SectionESP])
	assert.Empty(t, rep.Diff.Removed)
	assert.Contains(t, rep.Notes, "ESP not mounted; ESP section recorded as absent")
}

func TestRun_AlgorithmChangeRecordsFreshBaseline(t *testing.T) {
	f := newFixture(t)

	_, err := f.a.Run(context.Background(), model.ModeAuto, "")
	require.NoError(t, err)

	f.cfg.Algorithm = "blake3"
	rep, err := f.a.Run(context.Background(), model.ModeAuto, "")
	require.NoError(t, err)

	assert.True(t, rep.Bootstrap)
	assert.NotEmpty(t, rep.SnapshotID)
	assert.Equal(t, 2, f.snapshotCount(t))
	assert.True(t, noteContaining(rep.Notes, "cannot compare with baseline"))
}

func TestRun_JournalFailureIsANote(t *testing.T) {
	f := newFixture(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	f.a.Journal = journal.New(filepath.Join(blocker, "nested", "journal.jsonl"))

	rep, err := f.a.Run(context.Background(), model.ModeAuto, "")
	require.NoError(t, err)
	assert.True(t, noteContaining(rep.Notes, "journal append failed"))
}

func TestRun_NoteIsExpandedAndStored(t *testing.T) {
	f := newFixture(t)

	rep, err := f.a.Run(context.Background(), model.ModeSnapshot, "pre-upgrade {kernel}")
	require.NoError(t, err)

	snap, err := f.store.Load(rep.SnapshotID)
	require.NoError(t, err)
	assert.Equal(t, "pre-upgrade 6.8.0-test", snap.Note)

	records, err := f.journal.List(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "pre-upgrade 6.8.0-test", records[0].Details["note"])
}

func TestRun_NestedESPExcludedFromBootSection(t *testing.T) {
	f := newFixture(t)
	nested := filepath.Join(f.bootDir, "efi")
	writeFile(t, nested, "EFI/BOOT/BOOTX64.EFI", "shim v1")
	f.cfg.ESPRoot = nested
	f.a.Mounts.ESPRoot = nested

	rep, err := f.a.Run(context.Background(), model.ModeSnapshot, "")
	require.NoError(t, err)

	snap, err := f.store.Load(rep.SnapshotID)
	require.NoError(t, err)

	esp := snap.Section(model.SectionESP)
	require.Len(t, esp.Entries, 1)
	assert.Equal(t, "EFI/BOOT/BOOTX64.EFI", esp.Entries[0].Path)

	boot := snap.Section(model.SectionBoot)
	for _, e := range boot.Entries {
		assert.NotContains(t, e.Path, "efi/")
	}
	assert.Len(t, boot.Entries, 2)
}

func TestRun_BadServicePatternsFallBack(t *testing.T) {
	f := newFixture(t)
	f.cfg.Services.SafePatterns = []string{"broken("}

	st, err := state.Init(filepath.Join(t.TempDir(), "state2"))
	require.NoError(t, err)
	a := auditor.New(f.cfg, store.New(st), journal.New(st.JournalFile()))
	a.HostInfo = func(context.Context) (string, string) { return "testhost", "6.8.0-test" }
	a.Services.Lister = &fakeLister{units: []string{"sshd.service"}}
	mods := &fakeModules{names: nil}
	a.Modules = &kmod.Triage{Lister: mods, Taints: mods, Info: mods}
	a.Resolver = attribution.New(nil, 0, 0)

	rep, err := a.Run(context.Background(), model.ModeSnapshot, "")
	require.NoError(t, err)

	assert.True(t, noteContaining(rep.Notes, "service patterns rejected"))
	// Built-in tables still classify.
	require.Len(t, rep.Services, 1)
	assert.Equal(t, model.CategorySafe, rep.Services[0].Category)
}
