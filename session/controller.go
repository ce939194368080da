// Package session holds the interactive state of a cleanup session: the
// discovered node_modules entries, the user's selection, and the progress of
// background scans and deletions. It contains no terminal code; an event
// loop drives it and renders State snapshots.
package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/riadafridishibly/nmremover/scanner"
	"github.com/sirupsen/logrus"
)

// Backend finds and removes node_modules trees. *scanner.Scanner satisfies it.
type Backend interface {
	Scan(ctx context.Context, root string, onVisit scanner.VisitFunc) ([]*scanner.NodeModuleInfo, error)
	Delete(path string) error
}

type statsReporter interface {
	Stats() scanner.Stats
}

// Controller is safe for concurrent use. ConfirmDelete blocks for the whole
// deletion sequence and is meant to run on its own goroutine while the event
// loop keeps rendering snapshots.
type Controller struct {
	ctx     context.Context
	backend Backend
	log     logrus.FieldLogger

	mu       sync.Mutex
	state    State
	task     *scanTask
	onChange func()
}

func New(ctx context.Context, backend Backend, log logrus.FieldLogger) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{
		ctx:     ctx,
		backend: backend,
		log:     log,
		state: State{
			Screen:   ScreenWelcome,
			Selected: make(map[int]struct{}),
			Cursor:   -1,
		},
	}
}

// SetOnChange registers fn to be called after state changes that happen off
// the event loop (deletion steps).
func (c *Controller) SetOnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) changed() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

func (c *Controller) ClearMessage() {
	c.mu.Lock()
	c.state.Message = nil
	c.mu.Unlock()
}

func (c *Controller) setMessage(kind MessageKind, format string, args ...any) {
	c.state.Message = &Message{Kind: kind, Text: fmt.Sprintf(format, args...)}
}

// SubmitPath validates path and starts a background scan of it. Invalid
// paths leave the session on the welcome screen with an error message.
func (c *Controller) SubmitPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Screen != ScreenWelcome || c.state.Scanning || c.state.Quit {
		return
	}
	c.state.Message = nil
	if strings.TrimSpace(path) == "" {
		return
	}

	root, err := scanner.ValidateRoot(path)
	if err != nil {
		c.log.WithError(err).WithField("input", path).Info("rejected scan path")
		switch {
		case errors.Is(err, scanner.ErrPathNotFound):
			c.setMessage(MessageError, "Invalid path: %s does not exist", path)
		case errors.Is(err, scanner.ErrNotDirectory):
			c.setMessage(MessageError, "Invalid path: %s is not a directory", path)
		default:
			c.setMessage(MessageError, "Invalid path: %v", err)
		}
		return
	}

	c.log.WithField("root", root).Info("starting scan")
	c.state.Scanning = true
	c.state.ScanPath = root
	c.state.ScanCurrent = ""
	c.task = startScanTask(c.ctx, c.backend, root)
}

// Poll pulls progress from a running scan and, once the scan has finished,
// moves the session to its next screen. It reports whether a scan was
// running.
func (c *Controller) Poll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Scanning || c.task == nil {
		return false
	}

	c.state.ScanCurrent = c.task.currentPath()
	out := c.task.take()
	if out == nil {
		return true
	}

	c.task.stop()
	c.task = nil
	c.state.Scanning = false
	c.state.ScanCurrent = ""
	if sr, ok := c.backend.(statsReporter); ok {
		c.state.ScanStats = sr.Stats()
	}

	switch {
	case errors.Is(out.err, context.Canceled):
		c.log.Info("scan cancelled")
	case out.err != nil:
		c.log.WithError(out.err).Error("scan failed")
		c.setMessage(MessageError, "Error scanning: %v", out.err)
	case len(out.entries) == 0:
		c.setMessage(MessageInfo, "No %s folders found.", scanner.MarkerName)
	default:
		c.setEntriesLocked(out.entries)
	}
	return true
}

// SetEntries replaces the entry list and switches to the list screen.
func (c *Controller) SetEntries(entries []*scanner.NodeModuleInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setEntriesLocked(entries)
}

func (c *Controller) setEntriesLocked(entries []*scanner.NodeModuleInfo) {
	var total uint64
	for _, e := range entries {
		total += e.Size
	}
	c.state.Entries = entries
	c.state.TotalBytes = total
	c.state.Selected = make(map[int]struct{})
	c.state.SelectedBytes = 0
	c.state.Cursor = -1
	if len(entries) > 0 {
		c.state.Cursor = 0
	}
	c.state.ShowDetail = false
	c.state.Screen = ScreenList
}

// busy reports whether list operations must be ignored.
func (c *Controller) busy() bool {
	return c.state.Screen != ScreenList || c.state.Deleting
}

func (c *Controller) MoveCursor(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moveCursorLocked(delta)
}

func (c *Controller) moveCursorLocked(delta int) {
	n := len(c.state.Entries)
	if c.busy() || n == 0 {
		return
	}
	if c.state.Cursor < 0 {
		c.state.Cursor = 0
		return
	}
	c.state.Cursor = ((c.state.Cursor+delta)%n + n) % n
}

func (c *Controller) ToggleSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toggleSelectionLocked()
}

func (c *Controller) toggleSelectionLocked() {
	i := c.state.Cursor
	if c.busy() || i < 0 || i >= len(c.state.Entries) {
		return
	}
	size := c.state.Entries[i].Size
	if _, ok := c.state.Selected[i]; ok {
		delete(c.state.Selected, i)
		c.state.SelectedBytes -= size
	} else {
		c.state.Selected[i] = struct{}{}
		c.state.SelectedBytes += size
	}
}

func (c *Controller) SelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectAllLocked()
}

func (c *Controller) selectAllLocked() {
	if c.busy() {
		return
	}
	c.state.Selected = make(map[int]struct{}, len(c.state.Entries))
	c.state.SelectedBytes = 0
	for i, e := range c.state.Entries {
		c.state.Selected[i] = struct{}{}
		c.state.SelectedBytes += e.Size
	}
}

func (c *Controller) DeselectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deselectAllLocked()
}

func (c *Controller) deselectAllLocked() {
	if c.busy() {
		return
	}
	c.state.Selected = make(map[int]struct{})
	c.state.SelectedBytes = 0
}

// RequestDelete opens the confirmation prompt if anything is selected.
func (c *Controller) RequestDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestDeleteLocked()
}

func (c *Controller) requestDeleteLocked() {
	if c.busy() || len(c.state.Selected) == 0 {
		return
	}
	c.state.ShowConfirm = true
}

func (c *Controller) CancelDelete() {
	c.mu.Lock()
	c.state.ShowConfirm = false
	c.mu.Unlock()
}

func (c *Controller) ToggleHelp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toggleHelpLocked()
}

func (c *Controller) toggleHelpLocked() {
	if c.state.Deleting {
		return
	}
	c.state.ShowHelp = !c.state.ShowHelp
}

// ShowDetail opens the detail overlay for the entry under the cursor.
func (c *Controller) ShowDetail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showDetailLocked()
}

func (c *Controller) showDetailLocked() {
	if c.busy() || c.state.CursorEntry() == nil {
		return
	}
	c.state.ShowDetail = true
}

// Quit marks the session finished and cancels a running scan. Close waits
// for the scan worker to exit.
func (c *Controller) Quit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quitLocked()
}

func (c *Controller) quitLocked() {
	c.state.Quit = true
	if c.task != nil {
		c.task.cancel()
	}
}

func (c *Controller) Close() {
	c.mu.Lock()
	t := c.task
	c.task = nil
	c.state.Scanning = false
	c.mu.Unlock()

	if t != nil {
		t.stop()
	}
}

type deleteTarget struct {
	index int
	path  string
}

// ConfirmDelete removes every selected entry, one at a time in ascending
// index order. A failed entry does not stop the sequence. Once finished the
// deleted entries are dropped, the selection is cleared and a summary
// message is set.
func (c *Controller) ConfirmDelete() {
	c.mu.Lock()
	if !c.state.ShowConfirm || c.busy() || len(c.state.Selected) == 0 {
		c.state.ShowConfirm = false
		c.mu.Unlock()
		return
	}

	indices := slices.Sorted(maps.Keys(c.state.Selected))

	plan := make([]deleteTarget, 0, len(indices))
	for _, i := range indices {
		if i < len(c.state.Entries) {
			plan = append(plan, deleteTarget{index: i, path: c.state.Entries[i].Path})
		}
	}

	c.state.ShowConfirm = false
	c.state.Deleting = true
	c.state.Message = nil
	c.state.Progress = DeleteProgress{Total: len(plan)}
	c.mu.Unlock()
	c.changed()

	deleted := make([]int, 0, len(plan))
	failed := 0
	for n, t := range plan {
		c.mu.Lock()
		c.state.Progress = DeleteProgress{Current: n + 1, Total: len(plan), Path: t.path}
		c.mu.Unlock()
		c.changed()

		if err := c.backend.Delete(t.path); err != nil {
			failed++
			c.log.WithError(err).WithField("path", t.path).Warn("delete failed")
			continue
		}
		c.log.WithField("path", t.path).Info("deleted")
		deleted = append(deleted, t.index)
	}

	c.mu.Lock()
	c.removeLocked(deleted)
	c.state.Deleting = false
	c.state.Progress = DeleteProgress{}
	if failed > 0 {
		c.setMessage(MessageError, "Deleted %d folders, %d failed", len(deleted), failed)
	} else {
		c.setMessage(MessageInfo, "Successfully deleted %d folders", len(deleted))
	}
	c.mu.Unlock()
	c.changed()
}

// removeLocked drops the entries at the given original indices. Indices do
// not survive the removal, so the selection is reset rather than shifted.
func (c *Controller) removeLocked(indices []int) {
	sorted := slices.Clone(indices)
	slices.Sort(sorted)
	slices.Reverse(sorted)

	// Snapshots and the scan result may share the old backing array
	entries := slices.Clone(c.state.Entries)
	for _, i := range sorted {
		if i < len(entries) {
			entries = slices.Delete(entries, i, i+1)
		}
	}

	var total uint64
	for _, e := range entries {
		total += e.Size
	}

	c.state.Entries = entries
	c.state.TotalBytes = total
	c.state.Selected = make(map[int]struct{})
	c.state.SelectedBytes = 0

	switch {
	case len(entries) == 0:
		c.state.Cursor = -1
	case c.state.Cursor >= len(entries):
		c.state.Cursor = len(entries) - 1
	}
}
