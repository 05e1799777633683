package model

// Section labels a logical snapshot root.
type Section string

const (
	SectionESP  Section = "ESP"
	SectionBoot Section = "/boot"
)

// Sections lists all snapshot sections in serialization order.
var Sections = []Section{SectionESP, SectionBoot}

// Mode selects how a run treats snapshot history.
type Mode string

const (
	// ModeAuto compares against the latest snapshot when one exists,
	// otherwise bootstraps a first snapshot.
	ModeAuto Mode = "auto"
	// ModeSnapshot always saves a fresh snapshot and never diffs.
	ModeSnapshot Mode = "snapshot"
	// ModeCompare requires a baseline; without one it falls back to
	// bootstrap and says so.
	ModeCompare Mode = "compare"
)

// ChangeKind classifies a path in a diff.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
)

// ServiceCategory is the classification of a boot-enabled service.
type ServiceCategory string

const (
	CategorySafe   ServiceCategory = "SAFE"
	CategoryUnsafe ServiceCategory = "UNSAFE"
	CategoryReview ServiceCategory = "REVIEW"
)

// FlagReason is one independent reason a kernel module was flagged.
type FlagReason string

const (
	ReasonTainted       FlagReason = "TAINTED"
	ReasonNoSigner      FlagReason = "NO_SIGNER"
	ReasonUnknownSigner FlagReason = "UNKNOWN_SIGNER"
)

// HashValue is a SHA-256 hash stored as hex string.
type HashValue string
