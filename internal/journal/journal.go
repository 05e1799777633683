// Package journal records audit runs in an append-only JSONL file.
// Records form a hash chain, so a silent edit to past history is
// detectable later.
package journal

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bootaudit/bootaudit/pkg/errclass"
	"github.com/bootaudit/bootaudit/pkg/jsonutil"
	"github.com/bootaudit/bootaudit/pkg/model"
)

// Journal appends run records to a JSONL file. Appends serialize with
// an in-process mutex plus a file lock, so two bootaudit processes
// cannot interleave records.
type Journal struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Journal {
	return &Journal{path: path}
}

// Append links the record to the previous one and writes it. A zero
// Timestamp is filled with the current time.
func (j *Journal) Append(rec model.RunRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	if err := lockFile(file); err != nil {
		return fmt.Errorf("lock journal: %w", err)
	}
	defer unlockFile(file)

	prev, err := lastHashLocked(file)
	if err != nil {
		return fmt.Errorf("read journal tail: %w", err)
	}

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	rec.PrevHash = prev
	rec.RecordHash, err = recordHash(rec)
	if err != nil {
		return err
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}

	if _, err := file.Seek(0, 2); err != nil {
		return fmt.Errorf("seek journal end: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write run record: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync journal: %w", err)
	}
	return nil
}

// List returns past run records, newest first. A non-positive limit
// returns everything. Malformed lines are skipped here; VerifyChain is
// the place that complains about them.
func (j *Journal) List(limit int) ([]model.RunRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	var records []model.RunRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec model.RunRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}

	for i, k := 0, len(records)-1; i < k; i, k = i+1, k-1 {
		records[i], records[k] = records[k], records[i]
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// VerifyChain replays the hash chain from the first record. It returns
// how many records are intact; an edited record, a broken link, or a
// line that does not parse yields ErrJournalChainBroken.
func (j *Journal) VerifyChain() (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	count := 0
	line := 0
	var prev model.HashValue
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec model.RunRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return count, errclass.ErrJournalChainBroken.WithMessagef("line %d is not a run record", line)
		}
		if rec.PrevHash != prev {
			return count, errclass.ErrJournalChainBroken.WithMessagef("record %d does not link to its predecessor", line)
		}
		want, err := recordHash(rec)
		if err != nil {
			return count, err
		}
		if rec.RecordHash != want {
			return count, errclass.ErrJournalChainBroken.WithMessagef("record %d was altered after writing", line)
		}
		prev = rec.RecordHash
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("scan journal: %w", err)
	}
	return count, nil
}

func lastHashLocked(file *os.File) (model.HashValue, error) {
	if _, err := file.Seek(0, 0); err != nil {
		return "", fmt.Errorf("seek journal start: %w", err)
	}

	var last model.HashValue
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec model.RunRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		last = rec.RecordHash
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return last, nil
}

// recordHash hashes the record with RecordHash zeroed, over canonical
// JSON so field order cannot change the hash.
func recordHash(rec model.RunRecord) (model.HashValue, error) {
	rec.RecordHash = ""
	data, err := jsonutil.CanonicalMarshal(rec)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return model.HashValue(hex.EncodeToString(sum[:])), nil
}
