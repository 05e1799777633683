// Package kmod triages loaded kernel modules by taint state and
// signature identity.
package kmod

import (
	"context"
	"strings"

	"github.com/bootaudit/bootaudit/internal/platform"
	"github.com/bootaudit/bootaudit/pkg/logging"
	"github.com/bootaudit/bootaudit/pkg/model"
)

// DefaultSuspiciousTaints are the kernel taint characters worth
// flagging: O out-of-tree, E unsigned, P proprietary, F force-loaded.
const DefaultSuspiciousTaints = "OEPF"

// DefaultTrustedSigners are signer substrings for the common distro
// secure-boot and build-time module signing keys.
var DefaultTrustedSigners = []string{
	"Build time autogenerated kernel key",
	"Ubuntu Secure Boot Module signing key",
	"Debian Secure Boot Signer",
	"Fedora kernel signing key",
	"CentOS kernel signing key",
	"Red Hat Enterprise Linux kernel signing key",
	"SUSE Linux Enterprise Secure Boot Signkey",
	"openSUSE Secure Boot Signkey",
}

// Triage flags loaded modules that a boot-surface audit should surface.
// Taint and signer retrievals may each be unavailable per module;
// unknown never aborts the pass, it only feeds the no-signer reasoning.
type Triage struct {
	Lister platform.ModuleLister
	Taints platform.ModuleTaintReader
	Info   platform.ModuleInfoReader

	// SuspiciousTaints defaults to DefaultSuspiciousTaints.
	SuspiciousTaints string
	// TrustedSigners defaults to DefaultTrustedSigners.
	TrustedSigners []string
}

func (t *Triage) suspicious() string {
	if t.SuspiciousTaints != "" {
		return t.SuspiciousTaints
	}
	return DefaultSuspiciousTaints
}

func (t *Triage) trusted() []string {
	if len(t.TrustedSigners) > 0 {
		return t.TrustedSigners
	}
	return DefaultTrustedSigners
}

// Run triages every loaded module, in enumeration order. The only
// error is a failed module listing; everything per-module degrades to
// unknown.
func (t *Triage) Run(ctx context.Context) ([]model.ModuleFinding, error) {
	names, err := t.Lister.LoadedModules()
	if err != nil {
		return nil, err
	}
	findings := make([]model.ModuleFinding, 0, len(names))
	for _, name := range names {
		findings = append(findings, t.triageOne(ctx, name))
	}
	return findings, nil
}

func (t *Triage) triageOne(ctx context.Context, name string) model.ModuleFinding {
	finding := model.ModuleFinding{Name: name}

	if taint, err := t.Taints.Taint(name); err == nil {
		finding.TaintFlags = taint
	} else {
		logging.Debugw("module taint unreadable", "module", name, "error", err)
	}

	if info, err := t.Info.Info(ctx, name); err == nil {
		finding.BackingFile = info.Filename
		finding.Signer = info.Signer
	} else {
		logging.Debugw("module metadata unreadable", "module", name, "error", err)
	}

	finding.Reasons = t.reasons(finding)
	return finding
}

func (t *Triage) reasons(f model.ModuleFinding) []model.FlagReason {
	var reasons []model.FlagReason
	if strings.ContainsAny(f.TaintFlags, t.suspicious()) {
		reasons = append(reasons, model.ReasonTainted)
	}
	switch {
	case f.Signer == "":
		reasons = append(reasons, model.ReasonNoSigner)
	case !t.signerTrusted(f.Signer):
		reasons = append(reasons, model.ReasonUnknownSigner)
	}
	return reasons
}

func (t *Triage) signerTrusted(signer string) bool {
	for _, trusted := range t.trusted() {
		if strings.Contains(signer, trusted) {
			return true
		}
	}
	return false
}
