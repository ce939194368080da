package scanner

import (
	"errors"
	"fmt"
	"time"
)

// MarkerName is the directory name the scanner looks for.
const MarkerName = "node_modules"

var (
	ErrPathNotFound = errors.New("path does not exist")
	ErrNotDirectory = errors.New("path is not a directory")
)

// DeleteError is returned by Delete when a node_modules tree could not be
// removed. The tree may be partially deleted.
type DeleteError struct {
	Path string
	Err  error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete %s: %v", e.Path, e.Err)
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}

// VisitFunc receives every directory the discovery walk enters. It is called
// concurrently from the walker goroutines.
type VisitFunc func(path string)

type DevIno struct {
	Dev uint64
	Ino uint64
}

type sizeResult struct {
	Size         uint64
	FilesScanned int64
}

// Stats describes the last completed (or cancelled) scan.
type Stats struct {
	DirsVisited int64
	FilesSized  int64
	Found       int
	CacheHits   int
	Elapsed     time.Duration
}
