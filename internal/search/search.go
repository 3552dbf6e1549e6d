// Package search counts occurrences of a string across the files of a
// directory tree, scanning files in parallel.
package search

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultGlob selects the files scanned when Options.Glob is empty.
const DefaultGlob = "*.txt"

const maxLineBytes = 1 << 20

// Options configures a search.
type Options struct {
	Root string
	Text string
	// Glob is matched against file base names.
	Glob string
	// Workers bounds concurrent file scans. Zero uses GOMAXPROCS.
	Workers int
	// OnMatch, if set, receives every matching line. Calls are serialized.
	OnMatch func(Match)
}

// Match is one line containing the search text.
type Match struct {
	Path string
	Line int
	Text string
}

// Result holds the counters of a finished search.
type Result struct {
	Files   int64
	Lines   int64
	Matches int64
}

// Run walks opts.Root and scans every file whose name matches the glob.
// The first I/O error cancels the remaining work and is returned.
func Run(ctx context.Context, opts Options) (Result, error) {
	if opts.Text == "" {
		return Result{}, fmt.Errorf("search: empty search text")
	}
	if opts.Glob == "" {
		opts.Glob = DefaultGlob
	}
	if _, err := filepath.Match(opts.Glob, ""); err != nil {
		return Result{}, fmt.Errorf("search: glob %q: %w", opts.Glob, err)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	var (
		files, lines, matches atomic.Int64
		emitMu                sync.Mutex
	)
	emit := func(m Match) {
		if opts.OnMatch == nil {
			return
		}
		emitMu.Lock()
		defer emitMu.Unlock()
		opts.OnMatch(m)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	walkErr := filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if gctx.Err() != nil {
			return gctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(opts.Glob, d.Name()); !ok {
			return nil
		}
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			files.Add(1)
			n, m, err := scanLines(gctx, f, path, opts.Text, emit)
			lines.Add(n)
			matches.Add(m)
			return err
		})
		return nil
	})

	err := g.Wait()
	if walkErr != nil && err == nil {
		err = walkErr
	}
	return Result{Files: files.Load(), Lines: lines.Load(), Matches: matches.Load()}, err
}

func scanLines(ctx context.Context, r io.Reader, path, text string, emit func(Match)) (lines, matches int64, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		lines++
		if lines%1024 == 0 && ctx.Err() != nil {
			return lines, matches, ctx.Err()
		}
		line := sc.Text()
		if strings.Contains(line, text) {
			matches++
			emit(Match{Path: path, Line: int(lines), Text: line})
		}
	}
	if err := sc.Err(); err != nil {
		return lines, matches, fmt.Errorf("search: %s: %w", path, err)
	}
	return lines, matches, nil
}
