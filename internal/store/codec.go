package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/bootaudit/bootaudit/pkg/errclass"
	"github.com/bootaudit/bootaudit/pkg/model"
)

// Snapshot file format v1. Plain text and line-oriented so two
// snapshot files diff cleanly with standard tools:
//
//	bootaudit-snapshot/1
//	id: 0001767225600000-a1b2c3d4
//	created: 2026-08-23T10:11:12.123Z
//	host: web01
//	kernel: 6.8.0-41-generic
//	algorithm: sha256
//	note: pre-upgrade
//	section: ESP root=/boot/efi present=true skipped=0
//	section: /boot root=/boot present=true skipped=1
//
//	[ESP]
//	sha256:<hex>  EFI/BOOT/BOOTX64.EFI
//	[/boot]
//	sha256:<hex>  vmlinuz-6.8.0-41-generic
//	skipped: grub/unreadable.cfg
//	checksum: sha256:<hex>
//
// Entry paths are relative to the section root named in the header and
// sorted byte-wise. The trailing checksum line covers every byte above
// it. It detects corruption, not malice.
const (
	Magic          = "bootaudit-snapshot/1"
	createdFormat  = "2006-01-02T15:04:05.000Z07:00"
	entrySeparator = "  "
	skippedPrefix  = "skipped: "
	checksumPrefix = "checksum: "
)

// Encode serializes a snapshot to the v1 text format, checksum
// trailer included.
func Encode(snap *model.Snapshot) ([]byte, error) {
	if snap.ID == "" {
		return nil, fmt.Errorf("encode snapshot: empty id")
	}
	if snap.Algorithm == "" {
		return nil, fmt.Errorf("encode snapshot: empty algorithm")
	}

	var buf bytes.Buffer
	buf.WriteString(Magic + "\n")
	fmt.Fprintf(&buf, "id: %s\n", snap.ID)
	fmt.Fprintf(&buf, "created: %s\n", snap.CreatedAt.UTC().Format(createdFormat))
	fmt.Fprintf(&buf, "host: %s\n", snap.Hostname)
	fmt.Fprintf(&buf, "kernel: %s\n", snap.KernelVersion)
	fmt.Fprintf(&buf, "algorithm: %s\n", snap.Algorithm)
	if snap.Note != "" {
		fmt.Fprintf(&buf, "note: %s\n", snap.Note)
	}
	for _, sec := range snap.Sections {
		fmt.Fprintf(&buf, "section: %s root=%s present=%t skipped=%d\n",
			sec.Label, sec.Root, sec.Present, len(sec.Skipped))
	}
	buf.WriteString("\n")

	for _, sec := range snap.Sections {
		fmt.Fprintf(&buf, "[%s]\n", sec.Label)
		for _, e := range sec.Entries {
			if !strings.HasPrefix(string(e.Digest), snap.Algorithm+":") {
				return nil, fmt.Errorf("encode snapshot: entry %s digest %q does not match algorithm %s",
					e.Path, e.Digest, snap.Algorithm)
			}
			fmt.Fprintf(&buf, "%s%s%s\n", e.Digest, entrySeparator, e.Path)
		}
		for _, sk := range sec.Skipped {
			fmt.Fprintf(&buf, "%s%s\n", skippedPrefix, sk)
		}
	}

	sum := checksum(buf.Bytes())
	fmt.Fprintf(&buf, "%s%s\n", checksumPrefix, sum)

	return buf.Bytes(), nil
}

// Decode parses a v1 snapshot file, enforcing the checksum trailer.
func Decode(data []byte) (*model.Snapshot, error) {
	payload, declared, ok := SplitChecksum(data)
	if !ok {
		return nil, errclass.ErrSnapshotCorrupt.WithMessage("missing checksum trailer")
	}
	if actual := checksum(payload); actual != declared {
		return nil, errclass.ErrSnapshotCorrupt.WithMessagef(
			"checksum mismatch: file says %s, content hashes to %s", declared, actual)
	}
	return parse(payload)
}

// SplitChecksum separates the checksum trailer from the bytes it
// covers. ok is false when the last line is not a checksum line.
func SplitChecksum(data []byte) (payload []byte, declared digest.Digest, ok bool) {
	trimmed := bytes.TrimSuffix(data, []byte("\n"))
	idx := bytes.LastIndexByte(trimmed, '\n')
	lastLine := trimmed[idx+1:]
	if !bytes.HasPrefix(lastLine, []byte(checksumPrefix)) {
		return nil, "", false
	}
	declared = digest.Digest(bytes.TrimPrefix(lastLine, []byte(checksumPrefix)))
	return data[:idx+1], declared, true
}

// checksum computes the sha256 trailer digest over payload bytes.
// The trailer is always sha256 regardless of the entry algorithm.
func checksum(payload []byte) digest.Digest {
	sum := sha256.Sum256(payload)
	return digest.NewDigestFromEncoded(digest.SHA256, hex.EncodeToString(sum[:]))
}

// parse decodes the header and section bodies. The checksum trailer,
// if still attached, must be stripped by the caller first.
func parse(payload []byte) (*model.Snapshot, error) {
	lines := strings.Split(string(payload), "\n")
	if len(lines) == 0 || lines[0] != Magic {
		return nil, errclass.ErrSnapshotCorrupt.WithMessage("bad magic line")
	}

	snap := &model.Snapshot{}
	i := 1

	// Header runs until the blank separator line.
	for ; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			i++
			break
		}
		key, value, found := strings.Cut(line, ": ")
		if !found {
			return nil, errclass.ErrSnapshotCorrupt.WithMessagef("malformed header line %q", line)
		}
		switch key {
		case "id":
			snap.ID = model.SnapshotID(value)
		case "created":
			ts, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return nil, errclass.ErrSnapshotCorrupt.WithMessagef("bad created timestamp %q", value)
			}
			snap.CreatedAt = ts.UTC()
		case "host":
			snap.Hostname = value
		case "kernel":
			snap.KernelVersion = value
		case "algorithm":
			snap.Algorithm = value
		case "note":
			snap.Note = value
		case "section":
			sec, err := parseSectionHeader(value)
			if err != nil {
				return nil, err
			}
			snap.Sections = append(snap.Sections, *sec)
		default:
			return nil, errclass.ErrSnapshotCorrupt.WithMessagef("unknown header key %q", key)
		}
	}

	if snap.ID == "" {
		return nil, errclass.ErrSnapshotCorrupt.WithMessage("header missing id")
	}
	if snap.Algorithm == "" {
		return nil, errclass.ErrSnapshotCorrupt.WithMessage("header missing algorithm")
	}
	if len(snap.Sections) == 0 {
		return nil, errclass.ErrSnapshotCorrupt.WithMessage("header declares no sections")
	}

	// Body: one [label] block per declared section, in declared order.
	var cur *model.SnapshotSection
	seen := 0
	for ; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			label := model.Section(line[1 : len(line)-1])
			if seen >= len(snap.Sections) || snap.Sections[seen].Label != label {
				return nil, errclass.ErrSnapshotCorrupt.WithMessagef("unexpected section marker %q", line)
			}
			cur = &snap.Sections[seen]
			seen++
			continue
		}
		if cur == nil {
			return nil, errclass.ErrSnapshotCorrupt.WithMessagef("entry before section marker: %q", line)
		}
		if strings.HasPrefix(line, skippedPrefix) {
			cur.Skipped = append(cur.Skipped, strings.TrimPrefix(line, skippedPrefix))
			continue
		}
		dig, path, found := strings.Cut(line, entrySeparator)
		if !found || path == "" {
			return nil, errclass.ErrSnapshotCorrupt.WithMessagef("malformed entry line %q", line)
		}
		if !validDigest(snap.Algorithm, dig) {
			return nil, errclass.ErrSnapshotCorrupt.WithMessagef("bad %s digest in line %q", snap.Algorithm, line)
		}
		cur.Entries = append(cur.Entries, model.HashEntry{Path: path, Digest: digest.Digest(dig)})
	}

	if seen != len(snap.Sections) {
		return nil, errclass.ErrSnapshotCorrupt.WithMessagef(
			"header declares %d sections, body has %d", len(snap.Sections), seen)
	}

	return snap, nil
}

// parseSectionHeader parses `<label> root=<path> present=<bool> skipped=<n>`.
// Keys are positional so a root containing spaces still parses.
func parseSectionHeader(value string) (*model.SnapshotSection, error) {
	rootIdx := strings.Index(value, " root=")
	presentIdx := strings.LastIndex(value, " present=")
	skippedIdx := strings.LastIndex(value, " skipped=")
	if rootIdx < 0 || presentIdx < rootIdx || skippedIdx < presentIdx {
		return nil, errclass.ErrSnapshotCorrupt.WithMessagef("malformed section header %q", value)
	}

	sec := &model.SnapshotSection{
		Label: model.Section(value[:rootIdx]),
		Root:  value[rootIdx+len(" root="):presentIdx],
	}

	present, err := strconv.ParseBool(value[presentIdx+len(" present=") : skippedIdx])
	if err != nil {
		return nil, errclass.ErrSnapshotCorrupt.WithMessagef("malformed section header %q", value)
	}
	sec.Present = present

	if _, err := strconv.Atoi(value[skippedIdx+len(" skipped="):]); err != nil {
		return nil, errclass.ErrSnapshotCorrupt.WithMessagef("malformed section header %q", value)
	}

	return sec, nil
}

// DeclaredSkips re-reads the skipped= counts from the header. Verify
// cross-checks them against the body.
func DeclaredSkips(data []byte) map[model.Section]int {
	counts := make(map[model.Section]int)
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			break
		}
		value, ok := strings.CutPrefix(line, "section: ")
		if !ok {
			continue
		}
		sec, err := parseSectionHeader(value)
		if err != nil {
			continue
		}
		n, _ := strconv.Atoi(value[strings.LastIndex(value, " skipped=")+len(" skipped="):])
		counts[sec.Label] = n
	}
	return counts
}

func validDigest(algorithm, dig string) bool {
	encoded, ok := strings.CutPrefix(dig, algorithm+":")
	if !ok || len(encoded) != 64 {
		return false
	}
	for _, c := range encoded {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
