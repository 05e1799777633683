package errclass

import "fmt"

// AuditError is a stable, machine-readable error class.
type AuditError struct {
	Code    string
	Message string
}

func (e *AuditError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AuditError) Is(target error) bool {
	t, ok := target.(*AuditError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new AuditError with the same Code but a specific message.
func (e *AuditError) WithMessage(msg string) *AuditError {
	return &AuditError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new AuditError with a formatted message.
func (e *AuditError) WithMessagef(format string, args ...any) *AuditError {
	return &AuditError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// All stable error classes for v0.x.
var (
	ErrNameInvalid        = &AuditError{Code: "E_NAME_INVALID"}
	ErrSnapshotNotFound   = &AuditError{Code: "E_SNAPSHOT_NOT_FOUND"}
	ErrSnapshotExists     = &AuditError{Code: "E_SNAPSHOT_EXISTS"}
	ErrSnapshotCorrupt    = &AuditError{Code: "E_SNAPSHOT_CORRUPT"}
	ErrStoreCorrupt       = &AuditError{Code: "E_STORE_CORRUPT"}
	ErrAmbiguousRef       = &AuditError{Code: "E_AMBIGUOUS_REF"}
	ErrAlgorithmMismatch  = &AuditError{Code: "E_ALGORITHM_MISMATCH"}
	ErrAlgorithmUnknown   = &AuditError{Code: "E_ALGORITHM_UNKNOWN"}
	ErrBadPattern         = &AuditError{Code: "E_BAD_PATTERN"}
	ErrToolUnavailable    = &AuditError{Code: "E_TOOL_UNAVAILABLE"}
	ErrFormatUnsupported  = &AuditError{Code: "E_FORMAT_UNSUPPORTED"}
	ErrJournalChainBroken = &AuditError{Code: "E_JOURNAL_CHAIN_BROKEN"}
)
