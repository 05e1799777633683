// Package pathutil provides input validation for names that end up in
// store paths or snapshot headers.
package pathutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/bootaudit/bootaudit/pkg/errclass"
)

var refRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// MaxNoteLen bounds a snapshot note so the header stays one line of
// reasonable length.
const MaxNoteLen = 256

// ValidateRef checks a user-supplied snapshot reference (ID, ID prefix,
// or "latest") before it is joined into a store path.
func ValidateRef(ref string) error {
	if ref == "" {
		return errclass.ErrNameInvalid.WithMessage("ref must not be empty")
	}

	// NFC normalize
	ref = norm.NFC.String(ref)

	if ref == ".." || strings.Contains(ref, "..") {
		return errclass.ErrNameInvalid.WithMessagef("ref must not contain '..': %s", ref)
	}
	if strings.ContainsAny(ref, "/\\") {
		return errclass.ErrNameInvalid.WithMessagef("ref must not contain separators: %s", ref)
	}
	for _, r := range ref {
		if unicode.IsControl(r) {
			return errclass.ErrNameInvalid.WithMessagef("ref must not contain control characters: %q", ref)
		}
	}
	if !refRegex.MatchString(ref) {
		return errclass.ErrNameInvalid.WithMessagef("ref must match [a-zA-Z0-9._-]+: %s", ref)
	}

	return nil
}

// ValidateNote checks a snapshot note. Notes are embedded in the
// line-oriented snapshot header, so they must stay on one line.
func ValidateNote(note string) error {
	if len(note) > MaxNoteLen {
		return errclass.ErrNameInvalid.WithMessagef("note exceeds %d characters", MaxNoteLen)
	}
	for _, r := range note {
		if r == '\n' || r == '\r' {
			return errclass.ErrNameInvalid.WithMessage("note must not contain line breaks")
		}
		if unicode.IsControl(r) && r != '\t' {
			return errclass.ErrNameInvalid.WithMessagef("note must not contain control characters: %q", note)
		}
	}
	return nil
}
