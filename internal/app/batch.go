package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/fretscribe/internal/enhance"
	"github.com/MrWong99/fretscribe/pkg/transcription"
)

// DefaultParallel is the number of documents enhanced concurrently in batch
// mode when no limit is given.
const DefaultParallel = 4

// BatchStats summarises a batch run.
type BatchStats struct {
	Documents int
	Enhanced  int
	Failed    int
	Boosted   int
}

// ErrBatchFailed is returned by [App.ProcessPath] when at least one document
// could not be read, decoded or written. Successful documents are still
// written.
var ErrBatchFailed = errors.New("app: batch had failed documents")

// EnhanceStream decodes one document from r, enhances it and writes the
// indented result to w. Malformed input is an error; enhancement itself is
// best effort.
func (a *App) EnhanceStream(ctx context.Context, r io.Reader, w io.Writer) (*enhance.Report, error) {
	doc, err := transcription.Decode(r)
	if err != nil {
		return nil, err
	}
	out, rep := a.Enhance(ctx, doc)
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("app: encode document: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("app: write document: %w", err)
	}
	return rep, nil
}

// ProcessPath enhances in and writes the result to out.
//
// When in is a file, out is the output file. When in is a directory, every
// *.json file directly inside it is enhanced and written under out with the
// same base name; out is created if missing. Up to parallel documents run
// concurrently, each with its own evaluator run. Cancelling ctx abandons the
// batch between documents.
func (a *App) ProcessPath(ctx context.Context, in, out string, parallel int) (BatchStats, error) {
	info, err := os.Stat(in)
	if err != nil {
		return BatchStats{}, fmt.Errorf("app: stat input: %w", err)
	}

	type job struct{ src, dst string }
	var jobs []job
	if info.IsDir() {
		if out == "" {
			return BatchStats{}, fmt.Errorf("app: output directory required for directory input")
		}
		if err := os.MkdirAll(out, 0o755); err != nil {
			return BatchStats{}, fmt.Errorf("app: create output directory: %w", err)
		}
		srcs, err := jsonFiles(in)
		if err != nil {
			return BatchStats{}, err
		}
		for _, src := range srcs {
			jobs = append(jobs, job{src: src, dst: filepath.Join(out, filepath.Base(src))})
		}
	} else {
		if out == "" {
			return BatchStats{}, fmt.Errorf("app: output path required")
		}
		jobs = append(jobs, job{src: in, dst: out})
	}

	if parallel <= 0 {
		parallel = DefaultParallel
	}

	var enhanced, failed, boosted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep, err := a.processFile(gctx, j.src, j.dst)
			if err != nil {
				failed.Add(1)
				slog.Error("document failed", "input", j.src, "err", err)
				return nil
			}
			enhanced.Add(1)
			if rep != nil {
				boosted.Add(int64(rep.BoostedTerminology + rep.BoostedPattern))
			}
			return nil
		})
	}
	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	stats := BatchStats{
		Documents: len(jobs),
		Enhanced:  int(enhanced.Load()),
		Failed:    int(failed.Load()),
		Boosted:   int(boosted.Load()),
	}
	if err != nil {
		return stats, fmt.Errorf("app: batch interrupted: %w", err)
	}
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrBatchFailed, stats.Failed, stats.Documents)
	}
	return stats, nil
}

func (a *App) processFile(ctx context.Context, src, dst string) (*enhance.Report, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("app: open input: %w", err)
	}
	defer f.Close()

	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("app: create output directory: %w", err)
		}
	}
	// Write to a sibling temp file so a failed document never leaves a
	// truncated output behind.
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return nil, fmt.Errorf("app: create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	rep, err := a.EnhanceStream(ctx, f, tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("app: close output: %w", cerr)
	}
	if err != nil {
		return nil, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, fmt.Errorf("app: rename output: %w", err)
	}
	return rep, nil
}

// jsonFiles lists the *.json files directly inside dir in name order.
func jsonFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("app: read input directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	slices.Sort(out)
	return out, nil
}
