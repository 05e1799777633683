package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/opencontainers/go-digest"
)

// SnapshotID is the unique identifier for a snapshot: <unix_ms>-<rand8hex>
type SnapshotID string

// NewSnapshotID generates a new unique snapshot ID.
func NewSnapshotID() SnapshotID {
	ts := time.Now().UnixMilli()
	var randBytes [4]byte
	if _, err := rand.Read(randBytes[:]); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return SnapshotID(fmt.Sprintf("%013d-%s", ts, hex.EncodeToString(randBytes[:])))
}

// ShortID returns the first 8 characters for display.
func (id SnapshotID) ShortID() string {
	s := string(id)
	if len(s) >= 8 {
		return s[:8]
	}
	return s
}

// String returns the full snapshot ID as string.
func (id SnapshotID) String() string {
	return string(id)
}

// HashEntry records the content digest of one regular file.
type HashEntry struct {
	Path   string        `json:"path"`
	Digest digest.Digest `json:"digest"`
}

// SnapshotSection holds the hash entries for one logical root.
//
// Present records whether the root existed (was mounted) at capture
// time, so a later diff can tell "section absent" from "section
// emptied". Skipped lists files the capture could not read.
type SnapshotSection struct {
	Label   Section     `json:"label"`
	Root    string      `json:"root"`
	Present bool        `json:"present"`
	Entries []HashEntry `json:"entries"`
	Skipped []string    `json:"skipped,omitempty"`
}

// Snapshot is one immutable capture of the boot surface. It is created
// by the store, never mutated, and superseded (not edited) by later
// snapshots.
type Snapshot struct {
	ID            SnapshotID        `json:"id"`
	CreatedAt     time.Time         `json:"created_at"`
	Hostname      string            `json:"hostname"`
	KernelVersion string            `json:"kernel_version"`
	Algorithm     string            `json:"algorithm"`
	Note          string            `json:"note,omitempty"`
	Sections      []SnapshotSection `json:"sections"`
}

// Section returns the section with the given label, or nil.
func (s *Snapshot) Section(label Section) *SnapshotSection {
	for i := range s.Sections {
		if s.Sections[i].Label == label {
			return &s.Sections[i]
		}
	}
	return nil
}

// EntryCount returns the total number of hash entries across sections.
func (s *Snapshot) EntryCount() int {
	n := 0
	for i := range s.Sections {
		n += len(s.Sections[i].Entries)
	}
	return n
}

// LatestPointer is the single mutable reference in the store, written
// atomically so it never names a partially written snapshot.
type LatestPointer struct {
	TargetID  SnapshotID `json:"target_id"`
	UpdatedAt time.Time  `json:"updated_at"`
}
