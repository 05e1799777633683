// Package hashtree builds deterministic hash trees of boot file trees.
package hashtree

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/bootaudit/bootaudit/pkg/errclass"
	"github.com/bootaudit/bootaudit/pkg/logging"
	"github.com/bootaudit/bootaudit/pkg/model"
	"github.com/bootaudit/bootaudit/pkg/progress"
)

// Options configures a tree build.
type Options struct {
	// Algorithm is the file digest algorithm. Empty means sha256.
	Algorithm digest.Algorithm
	// Workers bounds concurrent file hashing. Values below 1 mean
	// sequential hashing.
	Workers int
	// Exclude lists slash-separated relative prefixes to skip, such
	// as an ESP nested under the boot root.
	Exclude []string
	// Progress receives per-file updates during hashing.
	Progress progress.Callback
}

// Tree is the hashed content of one file tree.
type Tree struct {
	Root    string
	Present bool
	Entries []model.HashEntry
	Skipped []string
}

// Build walks root and hashes every regular file under it. Symlinks
// and special files are excluded. A missing root yields an empty tree
// with Present false, not an error. Entries come back sorted byte-wise
// by path, so the same content always produces the same sequence
// regardless of worker count.
func Build(ctx context.Context, root string, opts Options) (*Tree, error) {
	if opts.Algorithm == "" {
		opts.Algorithm = digest.SHA256
	}
	switch opts.Algorithm {
	case digest.SHA256, Blake3:
	default:
		return nil, errclass.ErrAlgorithmUnknown.WithMessagef("algorithm %q", string(opts.Algorithm))
	}

	tree := &Tree{Root: root}

	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return tree, nil
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return tree, nil
	}
	tree.Present = true

	files, skipped := collectFiles(root, opts.Exclude)
	tree.Skipped = skipped

	if len(files) == 0 {
		return tree, nil
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	type result struct {
		dig digest.Digest
		err error
	}
	results := make([]result, len(files))

	prog := progress.New("hash", len(files), opts.Progress)
	var progMu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rel := range files {
		i, rel := i, rel
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			dig, err := HashFile(filepath.Join(root, filepath.FromSlash(rel)), opts.Algorithm)
			results[i] = result{dig: dig, err: err}
			progMu.Lock()
			prog.Increment(rel)
			progMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, rel := range files {
		if results[i].err != nil {
			// Files can vanish or turn unreadable mid-walk, say
			// during a package upgrade. Record and move on.
			logging.Debugw("skipping unreadable file", "path", rel, "error", results[i].err)
			tree.Skipped = append(tree.Skipped, rel)
			continue
		}
		tree.Entries = append(tree.Entries, model.HashEntry{Path: rel, Digest: results[i].dig})
	}
	sort.Strings(tree.Skipped)

	return tree, nil
}

// collectFiles gathers the relative paths of all regular files under
// root, sorted byte-wise. Unreadable directories land in skipped.
func collectFiles(root string, exclude []string) (files, skipped []string) {
	prefixes := make([]string, 0, len(exclude))
	for _, ex := range exclude {
		ex = strings.Trim(filepath.ToSlash(ex), "/")
		if ex != "" {
			prefixes = append(prefixes, ex)
		}
	}

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if err != nil {
			if rel != "." {
				skipped = append(skipped, rel)
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if rel == "." {
			return nil
		}
		for _, p := range prefixes {
			if rel == p || strings.HasPrefix(rel, p+"/") {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
		}
		if !d.Type().IsRegular() {
			return nil
		}
		files = append(files, rel)
		return nil
	})

	sort.Strings(files)
	sort.Strings(skipped)
	return files, skipped
}
