package model

import "time"

// EventType identifies the kind of run recorded in the journal.
type EventType string

const (
	EventAudit    EventType = "audit"
	EventSnapshot EventType = "snapshot"
	EventCompare  EventType = "compare"
	EventPrune    EventType = "prune"
)

// RunRecord is a single line in the run journal (JSONL format). Records
// form a hash chain: each carries the hash of its predecessor.
type RunRecord struct {
	Timestamp  time.Time  `json:"timestamp"`
	Event      EventType  `json:"event"`
	Mode       Mode       `json:"mode,omitempty"`
	SnapshotID SnapshotID `json:"snapshot_id,omitempty"`
	BaselineID SnapshotID `json:"baseline_id,omitempty"`

	Added          int `json:"added"`
	Removed        int `json:"removed"`
	Modified       int `json:"modified"`
	Unmanaged      int `json:"unmanaged"`
	ServicesUnsafe int `json:"services_unsafe"`
	ServicesReview int `json:"services_review"`
	ModulesFlagged int `json:"modules_flagged"`

	Details map[string]any `json:"details,omitempty"`

	PrevHash   HashValue `json:"prev_hash"`
	RecordHash HashValue `json:"record_hash"`
}
