// Package bootaudit provides a high-level library API for boot
// surface auditing.
//
// This package is the primary integration point for external consumers
// such as fleet monitoring agents. It wraps the internal packages into
// a clean, stable public API.
//
// # Concurrency Safety
//
// Audit state is filesystem-based and follows these concurrency rules:
//
//   - Audit(), Snapshot() and Compare() hash live boot files. They are
//     read-only toward the audited trees and safe to run while the
//     system is up; they must not run concurrently against the same
//     state directory.
//
//   - Inspection calls (History, LoadSnapshot, Verify, Journal) are
//     safe alongside a running audit. The journal file is flocked for
//     the short append window.
//
//   - Multiple Client instances for DIFFERENT state directories are
//     fully independent and safe to use concurrently.
//
//   - Multiple Client instances for the SAME state directory must NOT
//     call mutating operations (Audit, Snapshot, Prune) concurrently.
//
// # Recommended Usage Pattern (monitoring agent)
//
//	client, err := bootaudit.OpenOrInit(bootaudit.Options{})
//	if err != nil {
//	    return err
//	}
//
//	// Periodic check: compare against the pinned baseline
//	report, err := client.Audit(ctx)
//	if err != nil {
//	    return err
//	}
//	if len(report.Unmanaged()) > 0 {
//	    alert(report)
//	}
//
//	// After a planned update: accept the new state as baseline
//	client.Snapshot(ctx, "post-upgrade {kernel}")
package bootaudit
