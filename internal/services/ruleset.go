// Package services collects boot-enabled service units and classifies
// them against ordered pattern tables.
package services

import (
	"fmt"
	"regexp"

	"github.com/bootaudit/bootaudit/pkg/errclass"
	"github.com/bootaudit/bootaudit/pkg/model"
)

// DefaultSafePatterns matches the services a stock Linux install
// enables at boot. The tables are data: site policy replaces them
// through config without touching the classifier.
var DefaultSafePatterns = []string{
	`(serial-)?getty@.*`,
	`systemd-.*`,
	`dbus(-broker)?`,
	`NetworkManager(-wait-online|-dispatcher)?`,
	`sshd?`,
	`crond?`,
	`r?syslogd?`,
	`auditd`,
	`chronyd?`,
	`polkitd?`,
	`accounts-daemon`,
	`udisks2`,
	`upower`,
	`wpa_supplicant`,
	`ModemManager`,
	`apparmor`,
	`ufw`,
	`firewalld`,
	`unattended-upgrades`,
}

// DefaultUnsafePatterns matches services that have no business starting
// at boot on an audited host: cleartext remote access, legacy r-tools,
// and the systemd root shell.
var DefaultUnsafePatterns = []string{
	`debug-shell`,
	`.*telnet.*`,
	`r(sh|login|exec)d`,
	`.*tftpd.*`,
	`vsftpd|proftpd|pure-ftpd`,
}

// Ruleset is a compiled pair of classification tables. SAFE is checked
// before UNSAFE, so a name matching both classifies SAFE.
type Ruleset struct {
	safe   []*regexp.Regexp
	unsafe []*regexp.Regexp
}

// Compile builds a ruleset from pattern tables. Patterns are anchored
// to the full service name and matched case-sensitively. An invalid
// pattern yields ErrBadPattern.
func Compile(safe, unsafe []string) (*Ruleset, error) {
	rs := &Ruleset{}
	var err error
	if rs.safe, err = compileTable(safe); err != nil {
		return nil, err
	}
	if rs.unsafe, err = compileTable(unsafe); err != nil {
		return nil, err
	}
	return rs, nil
}

func compileTable(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("^(?:" + p + ")$")
		if err != nil {
			return nil, errclass.ErrBadPattern.WithMessagef("service pattern %q: %v", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// FromConfig compiles the configured tables. An empty table keeps its
// built-in default.
func FromConfig(safe, unsafe []string) (*Ruleset, error) {
	if len(safe) == 0 {
		safe = DefaultSafePatterns
	}
	if len(unsafe) == 0 {
		unsafe = DefaultUnsafePatterns
	}
	return Compile(safe, unsafe)
}

// DefaultRuleset compiles the built-in tables.
func DefaultRuleset() *Ruleset {
	rs, err := Compile(DefaultSafePatterns, DefaultUnsafePatterns)
	if err != nil {
		panic(fmt.Sprintf("built-in service pattern: %v", err))
	}
	return rs
}

// Classify maps one service name to exactly one category.
func (r *Ruleset) Classify(name string) model.ServiceCategory {
	for _, re := range r.safe {
		if re.MatchString(name) {
			return model.CategorySafe
		}
	}
	for _, re := range r.unsafe {
		if re.MatchString(name) {
			return model.CategoryUnsafe
		}
	}
	return model.CategoryReview
}

// ClassifyAll classifies every name, preserving input order and
// dropping duplicates.
func (r *Ruleset) ClassifyAll(names []string) []model.ServiceRecord {
	records := make([]model.ServiceRecord, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		records = append(records, model.ServiceRecord{
			Name:     name,
			Category: r.Classify(name),
		})
	}
	return records
}
