package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type NodeModuleInfo struct {
	Path string
	Size uint64

	// Zero when the filesystem did not report a modification time
	LastModifiedAt time.Time
	ScannedAt      time.Time
}

// Age renders how long ago the directory was modified, bucketed at
// seconds, minutes, hours and days.
func (m *NodeModuleInfo) Age(now time.Time) string {
	if m.LastModifiedAt.IsZero() || now.Before(m.LastModifiedAt) {
		return "Unknown"
	}
	secs := int64(now.Sub(m.LastModifiedAt) / time.Second)
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds ago", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm ago", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%dh ago", secs/3600)
	default:
		return fmt.Sprintf("%dd ago", secs/86400)
	}
}

// SizeCache remembers measured sizes keyed by path and modification time.
type SizeCache interface {
	Lookup(path string, modTime time.Time) (uint64, bool)
	Store(path string, size uint64, modTime time.Time) error
	Delete(path string) error
}

type Options struct {
	// Walker goroutines, zero means runtime.NumCPU()
	Workers int

	// Glob patterns matched against directory base names; matching
	// directories are not descended into.
	Skip []string

	Cache  SizeCache
	Logger logrus.FieldLogger
}

type Scanner struct {
	workers int
	skip    []glob.Glob
	cache   SizeCache
	log     logrus.FieldLogger

	mu    sync.Mutex
	stats Stats
}

func New(opts Options) (*Scanner, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	skip := make([]glob.Glob, 0, len(opts.Skip))
	for _, pattern := range opts.Skip {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid skip pattern %q: %w", pattern, err)
		}
		skip = append(skip, g)
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Scanner{
		workers: workers,
		skip:    skip,
		cache:   opts.Cache,
		log:     log,
	}, nil
}

var defaultScanner = &Scanner{workers: runtime.NumCPU(), log: logrus.StandardLogger()}

// Scan finds node_modules directories under root with the default scanner.
func Scan(ctx context.Context, root string, onVisit VisitFunc) ([]*NodeModuleInfo, error) {
	return defaultScanner.Scan(ctx, root, onVisit)
}

// Delete removes a node_modules tree with the default scanner.
func Delete(path string) error {
	return defaultScanner.Delete(path)
}

func (s *Scanner) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Scanner) skipped(name string) bool {
	for _, g := range s.skip {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// scanRun holds the bookkeeping of one Scan call.
type scanRun struct {
	s       *Scanner
	ctx     context.Context
	root    string
	onVisit VisitFunc
	log     logrus.FieldLogger

	visited atomic.Int64
	files   atomic.Int64
	hits    atomic.Int64
	sizing  errgroup.Group

	mu      sync.Mutex
	results []*NodeModuleInfo
}

func (s *Scanner) newRun(ctx context.Context, root string, onVisit VisitFunc) *scanRun {
	r := &scanRun{
		s:       s,
		ctx:     ctx,
		root:    root,
		onVisit: onVisit,
		log:     s.log.WithField("root", root),
	}
	r.sizing.SetLimit(s.workers)
	return r
}

// measure queues a size job for the marker at path.
func (r *scanRun) measure(path string) {
	r.sizing.Go(func() error {
		if r.ctx.Err() != nil {
			return nil
		}
		info, n, cached := r.s.measure(path)
		if cached {
			r.hits.Add(1)
		}
		r.files.Add(n)
		r.mu.Lock()
		r.results = append(r.results, info)
		r.mu.Unlock()
		return nil
	})
}

func (r *scanRun) walkFn(path string, d fs.DirEntry, err error) error {
	if r.ctx.Err() != nil {
		return fs.SkipAll
	}

	// A directory that cannot be listed counts as empty
	if err != nil {
		r.log.WithError(err).WithField("path", path).Debug("skipping unreadable entry")
		return nil
	}

	// The root is reported by Scan whether or not the walker hands it to us
	if !d.IsDir() || path == r.root {
		return nil
	}

	name := d.Name()
	if name == MarkerName {
		r.measure(path)
		return fastwalk.SkipDir
	}
	if r.s.skipped(name) {
		return fastwalk.SkipDir
	}

	r.visited.Add(1)
	r.s.visit(r.onVisit, path)
	return nil
}

func (r *scanRun) stats(start time.Time) Stats {
	r.mu.Lock()
	found := len(r.results)
	r.mu.Unlock()
	return Stats{
		DirsVisited: r.visited.Load(),
		FilesSized:  r.files.Load(),
		Found:       found,
		CacheHits:   int(r.hits.Load()),
		Elapsed:     time.Since(start),
	}
}

// Scan walks root and returns every node_modules directory that is not
// nested inside another one. Unreadable directories count as empty; a root
// that is not a directory yields an empty result. Symlinks are never
// followed. Results are in discovery order, which varies between runs.
func (s *Scanner) Scan(ctx context.Context, root string, onVisit VisitFunc) ([]*NodeModuleInfo, error) {
	start := time.Now()
	root = filepath.Clean(root)
	r := s.newRun(ctx, root, onVisit)

	defer func() {
		st := r.stats(start)
		s.mu.Lock()
		s.stats = st
		s.mu.Unlock()
	}()

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		r.log.Debug("root is not a readable directory, nothing to scan")
		return nil, nil
	}

	r.visited.Add(1)
	s.visit(onVisit, root)

	conf := fastwalk.Config{Follow: false, NumWorkers: s.workers}
	if err := fastwalk.Walk(&conf, root, r.walkFn); err != nil {
		r.log.WithError(err).Debug("walk finished with error")
	}

	// Size jobs may still be running after the walk itself returned
	_ = r.sizing.Wait()

	if err := ctx.Err(); err != nil {
		r.log.Debug("scan cancelled")
		return nil, err
	}

	r.log.WithFields(logrus.Fields{
		"found":   len(r.results),
		"visited": r.visited.Load(),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("scan complete")

	return r.results, nil
}

// visit runs the progress callback; a panicking callback must not take the
// walker goroutine down with it.
func (s *Scanner) visit(onVisit VisitFunc, path string) {
	if onVisit == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("path", path).Warnf("progress callback panicked: %v", r)
		}
	}()
	onVisit(path)
}

func (s *Scanner) measure(path string) (*NodeModuleInfo, int64, bool) {
	modTime := GetLastModifiedAt(path)

	if s.cache != nil && !modTime.IsZero() {
		if size, ok := s.cache.Lookup(path, modTime); ok {
			return &NodeModuleInfo{
				Path:           path,
				Size:           size,
				LastModifiedAt: modTime,
				ScannedAt:      time.Now(),
			}, 0, true
		}
	}

	result, err := getDirSize(path)
	if err != nil {
		// Whatever could be summed before the failure is kept
		s.log.WithError(err).WithField("path", path).Debug("size walk incomplete")
	}

	info := &NodeModuleInfo{
		Path:           path,
		Size:           result.Size,
		LastModifiedAt: modTime,
		ScannedAt:      time.Now(),
	}

	if s.cache != nil && !modTime.IsZero() {
		if err := s.cache.Store(path, result.Size, modTime); err != nil {
			s.log.WithError(err).WithField("path", path).Warn("failed to cache size")
		}
	}

	return info, result.FilesScanned, false
}

// Delete removes the directory tree at path. A path that no longer exists is
// reported as a failure wrapping ErrPathNotFound.
func (s *Scanner) Delete(path string) error {
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return &DeleteError{Path: path, Err: ErrPathNotFound}
		}
		return &DeleteError{Path: path, Err: err}
	}

	if err := os.RemoveAll(path); err != nil {
		return &DeleteError{Path: path, Err: err}
	}

	if s.cache != nil {
		if err := s.cache.Delete(path); err != nil {
			s.log.WithError(err).WithField("path", path).Warn("failed to evict cache entry")
		}
	}
	return nil
}
