package pathutil_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bootaudit/bootaudit/pkg/errclass"
	"github.com/bootaudit/bootaudit/pkg/pathutil"
)

func TestValidateRef_Valid(t *testing.T) {
	valid := []string{
		"latest",
		"0001767225600000-a1b2c3d4",
		"a1b2c3d4",
		"snapshot.v1",
		"my-ref_01",
	}
	for _, ref := range valid {
		assert.NoError(t, pathutil.ValidateRef(ref), "ref %q should be valid", ref)
	}
}

func TestValidateRef_Empty(t *testing.T) {
	err := pathutil.ValidateRef("")
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrNameInvalid)
}

func TestValidateRef_Traversal(t *testing.T) {
	for _, ref := range []string{"..", "a..b", "../etc"} {
		err := pathutil.ValidateRef(ref)
		require.Error(t, err, "ref %q should be rejected", ref)
		assert.ErrorIs(t, err, errclass.ErrNameInvalid)
	}
}

func TestValidateRef_Separators(t *testing.T) {
	for _, ref := range []string{"a/b", `a\b`, "/abs"} {
		err := pathutil.ValidateRef(ref)
		require.Error(t, err, "ref %q should be rejected", ref)
		assert.ErrorIs(t, err, errclass.ErrNameInvalid)
	}
}

func TestValidateRef_ControlCharacters(t *testing.T) {
	err := pathutil.ValidateRef("abc\x00def")
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrNameInvalid)
}

func TestValidateRef_DisallowedCharacters(t *testing.T) {
	for _, ref := range []string{"a b", "a:b", "a*b", "ref!"} {
		err := pathutil.ValidateRef(ref)
		require.Error(t, err, "ref %q should be rejected", ref)
	}
}

func TestValidateNote_Valid(t *testing.T) {
	assert.NoError(t, pathutil.ValidateNote(""))
	assert.NoError(t, pathutil.ValidateNote("pre-upgrade baseline"))
	assert.NoError(t, pathutil.ValidateNote("tabs\tare fine"))
}

func TestValidateNote_LineBreaks(t *testing.T) {
	for _, note := range []string{"a\nb", "a\rb", "a\r\nb"} {
		err := pathutil.ValidateNote(note)
		require.Error(t, err)
		assert.ErrorIs(t, err, errclass.ErrNameInvalid)
	}
}

func TestValidateNote_ControlCharacters(t *testing.T) {
	err := pathutil.ValidateNote("bad\x07note")
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrNameInvalid)
}

func TestValidateNote_TooLong(t *testing.T) {
	err := pathutil.ValidateNote(strings.Repeat("x", pathutil.MaxNoteLen+1))
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrNameInvalid)
}
