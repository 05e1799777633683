package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bootaudit/bootaudit/pkg/errclass"
	"github.com/bootaudit/bootaudit/pkg/model"
)

func TestListIDs_NewestFirst(t *testing.T) {
	s, _ := testStore(t)

	var saved []model.SnapshotID
	for _, minute := range []int{5, 1, 9} {
		id, err := s.Save(snapAt(minute))
		require.NoError(t, err)
		saved = append(saved, id)
	}

	ids, err := s.ListIDs()
	require.NoError(t, err)

	require.Len(t, ids, 3)
	assert.Equal(t, saved[2], ids[0], "minute 9 first")
	assert.Equal(t, saved[0], ids[1])
	assert.Equal(t, saved[1], ids[2], "minute 1 last")
}

func TestListIDs_EmptyStore(t *testing.T) {
	s, _ := testStore(t)

	ids, err := s.ListIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestList_LoadsSnapshots(t *testing.T) {
	s, _ := testStore(t)

	_, err := s.Save(snapAt(1))
	require.NoError(t, err)
	_, err = s.Save(snapAt(2))
	require.NoError(t, err)

	snaps, err := s.List()
	require.NoError(t, err)

	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].CreatedAt.After(snaps[1].CreatedAt))
}

func TestResolve_Exact(t *testing.T) {
	s, _ := testStore(t)

	id, err := s.Save(snapAt(1))
	require.NoError(t, err)

	resolved, err := s.Resolve(string(id))
	require.NoError(t, err)
	assert.Equal(t, id, resolved)
}

func TestResolve_Latest(t *testing.T) {
	s, _ := testStore(t)

	_, err := s.Save(snapAt(1))
	require.NoError(t, err)
	newest, err := s.Save(snapAt(2))
	require.NoError(t, err)

	resolved, err := s.Resolve("latest")
	require.NoError(t, err)
	assert.Equal(t, newest, resolved)
}

func TestResolve_LatestWithoutSnapshots(t *testing.T) {
	s, _ := testStore(t)

	_, err := s.Resolve("latest")
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrSnapshotNotFound)
}

func TestResolve_UniquePrefix(t *testing.T) {
	s, _ := testStore(t)

	id, err := s.Save(snapAt(7))
	require.NoError(t, err)

	resolved, err := s.Resolve(string(id)[:12])
	require.NoError(t, err)
	assert.Equal(t, id, resolved)
}

func TestResolve_AmbiguousPrefix(t *testing.T) {
	s, _ := testStore(t)

	_, err := s.Save(snapAt(1))
	require.NoError(t, err)
	_, err = s.Save(snapAt(2))
	require.NoError(t, err)

	// Both IDs start with the same millennium digits.
	_, err = s.Resolve("0")
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrAmbiguousRef)
}

func TestResolve_SuffixSubstring(t *testing.T) {
	s, _ := testStore(t)

	id, err := s.Save(snapAt(1))
	require.NoError(t, err)

	resolved, err := s.Resolve("feedc0de")
	require.NoError(t, err)
	assert.Equal(t, id, resolved)
}

func TestResolve_NotFound(t *testing.T) {
	s, _ := testStore(t)

	_, err := s.Resolve("cafebabe")
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrSnapshotNotFound)
}

func TestResolve_InvalidRef(t *testing.T) {
	s, _ := testStore(t)

	for _, ref := range []string{"", "../etc", "a/b"} {
		_, err := s.Resolve(ref)
		require.Error(t, err, "ref %q", ref)
		assert.ErrorIs(t, err, errclass.ErrNameInvalid)
	}
}
