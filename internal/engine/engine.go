// Package engine is the entry point front-ends use: it maps file paths to
// repositories, caches history pages, and owns the artifacts that snapshot
// reconstruction writes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/thiagokokada/gitliner/internal/cache"
	"github.com/thiagokokada/gitliner/internal/git"
	gitbackend "github.com/thiagokokada/gitliner/internal/git/backend"
	"github.com/thiagokokada/gitliner/internal/ledger"
	"github.com/thiagokokada/gitliner/internal/watch"
)

const (
	BackendCLI    = "cli"
	BackendNative = "native"

	slowOperation = 5 * time.Second
)

// Opener maps a path to the service of the repository containing it.
type Opener func(ctx context.Context, path string, artifacts git.Artifacts) (*git.Service, error)

type Options struct {
	CacheTTL    time.Duration
	CacheSize   int
	ArtifactTTL time.Duration
	ArtifactDir string
	Backend     string
	StatWorkers int
	Watch       bool
	WatchDelay  time.Duration

	// Clock and Open replace time.Now and repository discovery, for tests.
	Clock func() time.Time
	Open  Opener
}

type Engine struct {
	open     Opener
	history  *cache.Cache[git.Page]
	ledger   *ledger.Ledger
	watcher  *watch.Watcher
	services sync.Map // directory -> *git.Service
}

func New(opts Options) (*Engine, error) {
	switch opts.Backend {
	case "", BackendCLI, BackendNative:
	default:
		return nil, fmt.Errorf("unknown backend %q (want %s or %s)", opts.Backend, BackendCLI, BackendNative)
	}
	cacheOpts := []cache.Option{}
	if opts.CacheTTL > 0 {
		cacheOpts = append(cacheOpts, cache.WithTTL(opts.CacheTTL))
	}
	if opts.CacheSize > 0 {
		cacheOpts = append(cacheOpts, cache.WithSize(opts.CacheSize))
	}
	if opts.Clock != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(opts.Clock))
	}
	history, err := cache.New[git.Page](cacheOpts...)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		open:    opts.Open,
		history: history,
	}
	e.ledger, err = ledger.New(opts.ArtifactDir, opts.ArtifactTTL, ledger.WithOnRelease(e.artifactReleased))
	if err != nil {
		return nil, err
	}
	if e.open == nil {
		e.open = defaultOpener(opts.Backend, opts.StatWorkers)
	}
	if opts.Watch {
		w, err := watch.New(opts.WatchDelay, e.invalidatePaths)
		if err != nil {
			slog.Warn("file watching disabled", slog.Any("error", err))
		} else {
			e.watcher = w
		}
	}
	return e, nil
}

// artifactReleased reports artifacts nobody closed before their timeout.
func (e *Engine) artifactReleased(path string, reason ledger.Reason) {
	if reason == ledger.ReasonTimeout {
		slog.Info("artifact expired before it was closed", slog.String("path", path))
	}
}

func defaultOpener(backend string, statWorkers int) Opener {
	return func(ctx context.Context, path string, artifacts git.Artifacts) (*git.Service, error) {
		cli, err := gitbackend.OpenCLI(ctx, path)
		if err != nil {
			return nil, err
		}
		opts := []git.Option{git.WithStatWorkers(statWorkers)}
		if backend == BackendNative {
			native, err := gitbackend.OpenNative(cli.RepoPath())
			if err != nil {
				return nil, err
			}
			opts = append(opts, git.WithTreeReader(native))
		}
		return git.NewService(cli, artifacts, opts...)
	}
}

// resolve returns the repository service for path and path relative to its
// root. Services are reused per directory.
func (e *Engine) resolve(ctx context.Context, path string) (*git.Service, string, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", "", err
	}
	dir, err := gitbackend.ResolveDir(abs)
	if err != nil {
		return nil, "", "", err
	}
	var svc *git.Service
	if v, ok := e.services.Load(dir); ok {
		svc = v.(*git.Service)
	} else {
		svc, err = e.open(ctx, abs, e.ledger)
		if err != nil {
			return nil, "", "", err
		}
		if v, loaded := e.services.LoadOrStore(dir, svc); loaded {
			svc = v.(*git.Service)
		}
	}
	rel, err := svc.RelPath(abs)
	if err != nil {
		return nil, "", "", err
	}
	return svc, rel, abs, nil
}

func (e *Engine) watchFile(abs string) {
	if e.watcher == nil {
		return
	}
	if err := e.watcher.Add(abs); err != nil {
		slog.Debug("cannot watch file", slog.String("path", abs), slog.Any("error", err))
	}
}

func (e *Engine) invalidatePaths(paths []string) {
	for _, p := range paths {
		if n := e.history.Invalidate(p); n > 0 {
			slog.Debug("history cache invalidated", slog.String("path", p), slog.Int("entries", n))
		}
	}
}

func logSlow(op string, start time.Time, attrs ...slog.Attr) {
	took := time.Since(start)
	if took < slowOperation {
		return
	}
	args := []any{slog.String("op", op), slog.Duration("took", took)}
	for _, a := range attrs {
		args = append(args, a)
	}
	slog.Warn("slow git operation", args...)
}

// LineHistory returns one page of the history of a 1-based line.
func (e *Engine) LineHistory(ctx context.Context, path string, line, page, pageSize int) (git.Page, error) {
	svc, rel, abs, err := e.resolve(ctx, path)
	if err != nil {
		return git.Page{}, err
	}
	key := cache.Key{Kind: cache.KindLine, Path: abs, Line: line, Page: page, PageSize: pageSize}
	if p, ok := e.history.Get(key); ok {
		slog.Debug("line history cache hit", slog.String("key", key.String()))
		return clonePage(p), nil
	}
	start := time.Now()
	p, err := svc.FetchLineHistory(ctx, rel, line, page, pageSize)
	logSlow("line history", start, slog.String("path", rel), slog.Int("line", line))
	if err != nil {
		return git.Page{}, err
	}
	e.history.Set(key, clonePage(p))
	e.watchFile(abs)
	return p, nil
}

// FileHistory returns one page of the history of a file, following renames.
func (e *Engine) FileHistory(ctx context.Context, path string, page, pageSize int) (git.Page, error) {
	svc, rel, abs, err := e.resolve(ctx, path)
	if err != nil {
		return git.Page{}, err
	}
	key := cache.Key{Kind: cache.KindFile, Path: abs, Page: page, PageSize: pageSize}
	if p, ok := e.history.Get(key); ok {
		slog.Debug("file history cache hit", slog.String("key", key.String()))
		return clonePage(p), nil
	}
	start := time.Now()
	p, err := svc.FetchFileHistory(ctx, rel, page, pageSize)
	logSlow("file history", start, slog.String("path", rel))
	if err != nil {
		return git.Page{}, err
	}
	e.history.Set(key, clonePage(p))
	e.watchFile(abs)
	return p, nil
}

// ShowCommitDiff materializes the file before and after rev.
func (e *Engine) ShowCommitDiff(ctx context.Context, path, rev string) (*git.SnapshotPair, error) {
	svc, rel, _, err := e.resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	pair, err := svc.Reconstruct(ctx, rel, rev)
	logSlow("commit diff", start, slog.String("path", rel), slog.String("rev", rev))
	return pair, err
}

// ShowLineCommitDiff materializes how rev changed one 1-based line.
func (e *Engine) ShowLineCommitDiff(ctx context.Context, path, rev string, line int) (git.Diff, error) {
	svc, rel, _, err := e.resolve(ctx, path)
	if err != nil {
		return git.Diff{}, err
	}
	start := time.Now()
	diff, err := svc.ReconstructLine(ctx, rel, rev, line)
	logSlow("line commit diff", start, slog.String("path", rel), slog.String("rev", rev), slog.Int("line", line))
	return diff, err
}

// Release tells the engine a viewer closed an artifact.
func (e *Engine) Release(artifact string) error {
	return e.ledger.Release(artifact)
}

// Artifacts lists the artifacts that have not been released yet.
func (e *Engine) Artifacts() []string {
	return e.ledger.Tracked()
}

// Invalidate drops cached history mentioning path.
func (e *Engine) Invalidate(path string) int {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return e.history.Invalidate(path)
}

// Refresh drops cached history for path and reloads the first page of both
// the line and the file history concurrently. line < 1 only reloads the file.
func (e *Engine) Refresh(ctx context.Context, path string, line, pageSize int) (lineHistory, fileHistory git.Page, err error) {
	e.Invalidate(path)
	g, gctx := errgroup.WithContext(ctx)
	if line >= 1 {
		g.Go(func() (err error) {
			lineHistory, err = e.LineHistory(gctx, path, line, 0, pageSize)
			return err
		})
	}
	g.Go(func() (err error) {
		fileHistory, err = e.FileHistory(gctx, path, 0, pageSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return git.Page{}, git.Page{}, err
	}
	return lineHistory, fileHistory, nil
}

// Dispose releases every artifact and stops watching files. Cached history
// is dropped too.
func (e *Engine) Dispose() error {
	slog.Debug("disposing engine",
		slog.String("artifact_dir", e.ledger.Dir()),
		slog.Int("artifacts", len(e.ledger.Tracked())),
		slog.String("artifact_bytes", humanize.IBytes(uint64(e.ledger.Size()))),
	)
	var errs []error
	if e.watcher != nil {
		errs = append(errs, e.watcher.Close())
	}
	errs = append(errs, e.ledger.Dispose())
	e.history.Clear()
	return errors.Join(errs...)
}

func clonePage(p git.Page) git.Page {
	p.Items = append([]git.Commit{}, p.Items...)
	return p
}
