package journal_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bootaudit/bootaudit/internal/journal"
	"github.com/bootaudit/bootaudit/pkg/errclass"
	"github.com/bootaudit/bootaudit/pkg/model"
)

func newJournal(t *testing.T) (*journal.Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	return journal.New(path), path
}

func auditRecord(added int) model.RunRecord {
	return model.RunRecord{
		Event:      model.EventAudit,
		Mode:       model.ModeAuto,
		SnapshotID: "1708300800000-a3f7c1b2",
		Added:      added,
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestAppend_WritesRecord(t *testing.T) {
	j, path := newJournal(t)

	require.NoError(t, j.Append(auditRecord(2)))

	lines := readLines(t, path)
	require.Len(t, lines, 1)

	var rec model.RunRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, model.EventAudit, rec.Event)
	assert.Equal(t, 2, rec.Added)
	assert.False(t, rec.Timestamp.IsZero())
	assert.Empty(t, rec.PrevHash)
	assert.NotEmpty(t, rec.RecordHash)
}

func TestAppend_ChainsRecords(t *testing.T) {
	j, path := newJournal(t)

	require.NoError(t, j.Append(auditRecord(1)))
	require.NoError(t, j.Append(auditRecord(2)))

	lines := readLines(t, path)
	require.Len(t, lines, 2)

	var first, second model.RunRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, first.RecordHash, second.PrevHash)
	assert.NotEqual(t, first.RecordHash, second.RecordHash)
}

func TestAppend_PreservesTimestamp(t *testing.T) {
	j, path := newJournal(t)
	at := time.Date(2026, 2, 19, 8, 0, 0, 0, time.UTC)

	rec := auditRecord(0)
	rec.Timestamp = at
	require.NoError(t, j.Append(rec))

	var got model.RunRecord
	require.NoError(t, json.Unmarshal([]byte(readLines(t, path)[0]), &got))
	assert.True(t, got.Timestamp.Equal(at))
}

func TestList_NewestFirst(t *testing.T) {
	j, _ := newJournal(t)
	require.NoError(t, j.Append(auditRecord(1)))
	require.NoError(t, j.Append(auditRecord(2)))
	require.NoError(t, j.Append(auditRecord(3)))

	records, err := j.List(0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 3, records[0].Added)
	assert.Equal(t, 1, records[2].Added)

	limited, err := j.List(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, 3, limited[0].Added)
}

func TestList_MissingFile(t *testing.T) {
	j, _ := newJournal(t)

	records, err := j.List(0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestVerifyChain_Intact(t *testing.T) {
	j, _ := newJournal(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, j.Append(auditRecord(i)))
	}

	count, err := j.VerifyChain()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestVerifyChain_EmptyJournal(t *testing.T) {
	j, _ := newJournal(t)

	count, err := j.VerifyChain()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestVerifyChain_DetectsEditedRecord(t *testing.T) {
	j, path := newJournal(t)
	require.NoError(t, j.Append(auditRecord(1)))
	require.NoError(t, j.Append(auditRecord(2)))

	lines := readLines(t, path)
	var rec model.RunRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	rec.Added = 999
	edited, err := json.Marshal(rec)
	require.NoError(t, err)
	lines[0] = string(edited)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))

	count, err := j.VerifyChain()
	assert.ErrorIs(t, err, errclass.ErrJournalChainBroken)
	assert.Zero(t, count)
}

func TestVerifyChain_DetectsDroppedRecord(t *testing.T) {
	j, path := newJournal(t)
	require.NoError(t, j.Append(auditRecord(1)))
	require.NoError(t, j.Append(auditRecord(2)))

	lines := readLines(t, path)
	require.NoError(t, os.WriteFile(path, []byte(lines[1]+"\n"), 0o600))

	count, err := j.VerifyChain()
	assert.ErrorIs(t, err, errclass.ErrJournalChainBroken)
	assert.Zero(t, count)
}

func TestVerifyChain_GarbageLine(t *testing.T) {
	j, path := newJournal(t)
	require.NoError(t, j.Append(auditRecord(1)))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("not json at all\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	count, err := j.VerifyChain()
	assert.ErrorIs(t, err, errclass.ErrJournalChainBroken)
	assert.Equal(t, 1, count)
}

func TestAppend_Concurrent(t *testing.T) {
	j, _ := newJournal(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, j.Append(auditRecord(n)))
		}(i)
	}
	wg.Wait()

	records, err := j.List(0)
	require.NoError(t, err)
	assert.Len(t, records, 10)

	count, err := j.VerifyChain()
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}
