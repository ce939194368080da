package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/riadafridishibly/nmremover/scanner"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu      sync.Mutex
	ctrl    *Controller
	entries []*scanner.NodeModuleInfo
	scanErr error
	release chan struct{}
	fail    map[string]bool

	deleted  []string
	progress []DeleteProgress
}

func (f *fakeBackend) Scan(ctx context.Context, root string, onVisit scanner.VisitFunc) ([]*scanner.NodeModuleInfo, error) {
	if onVisit != nil {
		onVisit(root)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.entries, f.scanErr
}

func (f *fakeBackend) Delete(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ctrl != nil {
		f.progress = append(f.progress, f.ctrl.State().Progress)
	}
	f.deleted = append(f.deleted, path)
	if f.fail[path] {
		return &scanner.DeleteError{Path: path, Err: errors.New("permission denied")}
	}
	return nil
}

func quietLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func entries(sizes ...uint64) []*scanner.NodeModuleInfo {
	out := make([]*scanner.NodeModuleInfo, len(sizes))
	for i, size := range sizes {
		out[i] = &scanner.NodeModuleInfo{
			Path: filepath.Join("/projects", string(rune('a'+i)), "node_modules"),
			Size: size,
		}
	}
	return out
}

func newListController(t *testing.T, b *fakeBackend, items []*scanner.NodeModuleInfo) *Controller {
	t.Helper()
	c := New(context.Background(), b, quietLogger())
	b.ctrl = c
	c.SetEntries(items)
	return c
}

// assertTotals checks the derived byte counters against the entry and
// selection sets.
func assertTotals(t *testing.T, s State) {
	t.Helper()
	var total, selected uint64
	for i, e := range s.Entries {
		total += e.Size
		if s.IsSelected(i) {
			selected += e.Size
		}
	}
	for i := range s.Selected {
		assert.Less(t, i, len(s.Entries))
	}
	assert.Equal(t, total, s.TotalBytes)
	assert.Equal(t, selected, s.SelectedBytes)
}

func TestSetEntries(t *testing.T) {
	c := newListController(t, &fakeBackend{}, entries(10, 20, 30))
	s := c.State()

	assert.Equal(t, ScreenList, s.Screen)
	assert.Equal(t, 0, s.Cursor)
	assert.Equal(t, uint64(60), s.TotalBytes)
	assertTotals(t, s)
}

func TestMoveCursorWraps(t *testing.T) {
	c := newListController(t, &fakeBackend{}, entries(1, 2, 3))

	c.MoveCursor(-1)
	assert.Equal(t, 2, c.State().Cursor)

	c.MoveCursor(1)
	assert.Equal(t, 0, c.State().Cursor)

	c.MoveCursor(1)
	c.MoveCursor(1)
	assert.Equal(t, 2, c.State().Cursor)
}

func TestOperationsOnEmptyListAreNoops(t *testing.T) {
	c := newListController(t, &fakeBackend{}, nil)

	c.MoveCursor(1)
	c.MoveCursor(-1)
	c.ToggleSelection()
	c.SelectAll()
	c.RequestDelete()

	s := c.State()
	assert.Equal(t, -1, s.Cursor)
	assert.Empty(t, s.Selected)
	assert.False(t, s.ShowConfirm)
	assertTotals(t, s)
}

func TestToggleSelectionTracksBytes(t *testing.T) {
	c := newListController(t, &fakeBackend{}, entries(100, 200, 300))

	c.ToggleSelection()
	c.MoveCursor(2)
	c.ToggleSelection()
	s := c.State()
	assert.Equal(t, uint64(400), s.SelectedBytes)
	assertTotals(t, s)

	c.ToggleSelection()
	s = c.State()
	assert.Equal(t, uint64(100), s.SelectedBytes)
	assert.True(t, s.IsSelected(0))
	assert.False(t, s.IsSelected(2))
	assertTotals(t, s)
}

func TestSelectAllAndDeselectAll(t *testing.T) {
	c := newListController(t, &fakeBackend{}, entries(5, 7, 11))

	c.SelectAll()
	s := c.State()
	assert.Len(t, s.Selected, 3)
	assert.Equal(t, uint64(23), s.SelectedBytes)
	assertTotals(t, s)

	c.DeselectAll()
	once := c.State()
	c.DeselectAll()
	twice := c.State()

	assert.Equal(t, once, twice)
	assert.Empty(t, twice.Selected)
	assert.Zero(t, twice.SelectedBytes)
}

func TestRequestDeleteNeedsSelection(t *testing.T) {
	c := newListController(t, &fakeBackend{}, entries(1, 2))

	c.RequestDelete()
	assert.False(t, c.State().ShowConfirm)

	c.ToggleSelection()
	c.RequestDelete()
	assert.True(t, c.State().ShowConfirm)

	c.CancelDelete()
	s := c.State()
	assert.False(t, s.ShowConfirm)
	assert.Len(t, s.Entries, 2)
}

func TestConfirmDeleteKeepsFailures(t *testing.T) {
	items := entries(10, 20, 30, 40)
	b := &fakeBackend{fail: map[string]bool{items[2].Path: true}}
	c := newListController(t, b, items)

	for _, i := range []int{1, 2, 3} {
		c.MoveCursor(i - c.State().Cursor)
		c.ToggleSelection()
	}
	c.RequestDelete()
	c.ConfirmDelete()

	s := c.State()
	assert.Equal(t, []*scanner.NodeModuleInfo{items[0], items[2]}, s.Entries)
	assert.Empty(t, s.Selected)
	assert.Zero(t, s.SelectedBytes)
	assert.Equal(t, uint64(40), s.TotalBytes)
	assert.False(t, s.Deleting)
	assert.Equal(t, 1, s.Cursor)
	require.NotNil(t, s.Message)
	assert.Equal(t, MessageError, s.Message.Kind)
	assert.Equal(t, "Deleted 2 folders, 1 failed", s.Message.Text)
	assertTotals(t, s)

	assert.Equal(t, []string{items[1].Path, items[2].Path, items[3].Path}, b.deleted)
	assert.Equal(t, []DeleteProgress{
		{Current: 1, Total: 3, Path: items[1].Path},
		{Current: 2, Total: 3, Path: items[2].Path},
		{Current: 3, Total: 3, Path: items[3].Path},
	}, b.progress)
}

func TestConfirmDeleteAll(t *testing.T) {
	b := &fakeBackend{}
	c := newListController(t, b, entries(1, 2, 3))

	var changes int
	c.SetOnChange(func() { changes++ })

	c.SelectAll()
	c.RequestDelete()
	c.ConfirmDelete()

	s := c.State()
	assert.Empty(t, s.Entries)
	assert.Equal(t, -1, s.Cursor)
	assert.Zero(t, s.TotalBytes)
	require.NotNil(t, s.Message)
	assert.Equal(t, MessageInfo, s.Message.Kind)
	assert.Equal(t, "Successfully deleted 3 folders", s.Message.Text)
	// start, one per item, finish
	assert.Equal(t, 5, changes)
}

func TestConfirmDeleteWithoutPromptIsNoop(t *testing.T) {
	b := &fakeBackend{}
	c := newListController(t, b, entries(1))
	c.SelectAll()

	c.ConfirmDelete()

	assert.Empty(t, b.deleted)
	assert.Len(t, c.State().Entries, 1)
}

func TestCursorClampedAfterDelete(t *testing.T) {
	c := newListController(t, &fakeBackend{}, entries(1, 2, 3))
	c.MoveCursor(-1)
	c.ToggleSelection()
	c.RequestDelete()
	c.ConfirmDelete()

	s := c.State()
	assert.Len(t, s.Entries, 2)
	assert.Equal(t, 1, s.Cursor)
}

func TestHandleHelpSwallowsNextAction(t *testing.T) {
	c := newListController(t, &fakeBackend{}, entries(1, 2))

	assert.Equal(t, EffectNone, c.Handle(ActionHelp))
	assert.True(t, c.State().ShowHelp)

	assert.Equal(t, EffectNone, c.Handle(ActionQuit))
	s := c.State()
	assert.False(t, s.ShowHelp)
	assert.False(t, s.Quit)

	c.Handle(ActionDown)
	assert.Equal(t, 1, c.State().Cursor)
}

func TestToggleHelp(t *testing.T) {
	c := newListController(t, &fakeBackend{}, entries(1))

	c.ToggleHelp()
	assert.True(t, c.State().ShowHelp)
	c.ToggleHelp()
	assert.False(t, c.State().ShowHelp)

	// Works from the welcome screen too
	w := New(context.Background(), &fakeBackend{}, quietLogger())
	w.ToggleHelp()
	assert.True(t, w.State().ShowHelp)
}

func TestHandleDetailOverlay(t *testing.T) {
	items := entries(10, 20)
	items[1].LastModifiedAt = time.Unix(1_700_000_000, 0)
	c := newListController(t, &fakeBackend{}, items)

	c.Handle(ActionDown)
	assert.Equal(t, EffectNone, c.Handle(ActionDetail))
	s := c.State()
	require.True(t, s.ShowDetail)
	assert.Same(t, items[1], s.CursorEntry())

	// The next action only closes the overlay
	assert.Equal(t, EffectNone, c.Handle(ActionToggle))
	s = c.State()
	assert.False(t, s.ShowDetail)
	assert.Empty(t, s.Selected)

	c.Handle(ActionDetail)
	assert.Equal(t, EffectNone, c.Handle(ActionQuit))
	assert.False(t, c.State().Quit)
}

func TestDetailNeedsListEntry(t *testing.T) {
	w := New(context.Background(), &fakeBackend{}, quietLogger())
	w.Handle(ActionDetail)
	assert.False(t, w.State().ShowDetail)

	c := newListController(t, &fakeBackend{}, nil)
	c.Handle(ActionDetail)
	assert.False(t, c.State().ShowDetail)
}

func TestDeleteLeavesCallerSliceIntact(t *testing.T) {
	items := entries(1, 2, 3)
	b := &fakeBackend{}
	c := newListController(t, b, items)

	c.Handle(ActionSelectAll)
	c.Handle(ActionDelete)
	c.ConfirmDelete()

	assert.Empty(t, c.State().Entries)
	for _, it := range items {
		assert.NotNil(t, it)
	}
}

func TestHandleConfirmPrompt(t *testing.T) {
	c := newListController(t, &fakeBackend{}, entries(1, 2))

	c.Handle(ActionToggle)
	c.Handle(ActionDelete)
	require.True(t, c.State().ShowConfirm)

	c.Handle(ActionDown)
	assert.Equal(t, 0, c.State().Cursor)

	c.Handle(ActionCancel)
	assert.False(t, c.State().ShowConfirm)

	c.Handle(ActionDelete)
	assert.Equal(t, EffectDelete, c.Handle(ActionConfirm))

	c.ConfirmDelete()
	assert.Len(t, c.State().Entries, 1)
}

func TestHandleQuit(t *testing.T) {
	c := newListController(t, &fakeBackend{}, entries(1))
	assert.Equal(t, EffectQuit, c.Handle(ActionQuit))
	assert.True(t, c.State().Quit)
}

func TestHandleBulkSelection(t *testing.T) {
	c := newListController(t, &fakeBackend{}, entries(3, 4))

	c.Handle(ActionSelectAll)
	assert.Equal(t, uint64(7), c.State().SelectedBytes)

	c.Handle(ActionDeselectAll)
	assert.Zero(t, c.State().SelectedBytes)
}

func TestSubmitPathRejectsInvalidPaths(t *testing.T) {
	c := New(context.Background(), &fakeBackend{}, quietLogger())
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	c.SubmitPath(filepath.Join(dir, "missing"))
	s := c.State()
	assert.Equal(t, ScreenWelcome, s.Screen)
	assert.False(t, s.Scanning)
	require.NotNil(t, s.Message)
	assert.Equal(t, MessageError, s.Message.Kind)
	assert.Contains(t, s.Message.Text, "does not exist")

	c.SubmitPath(file)
	s = c.State()
	require.NotNil(t, s.Message)
	assert.Contains(t, s.Message.Text, "not a directory")
}

func waitForScan(t *testing.T, c *Controller) State {
	t.Helper()
	require.Eventually(t, func() bool {
		c.Poll()
		return !c.State().Scanning
	}, 5*time.Second, 5*time.Millisecond)
	return c.State()
}

func TestBackgroundScanReachesList(t *testing.T) {
	root := t.TempDir()
	b := &fakeBackend{entries: entries(10, 20), release: make(chan struct{})}
	c := New(context.Background(), b, quietLogger())

	c.SubmitPath(root)
	require.True(t, c.State().Scanning)
	assert.Equal(t, root, c.State().ScanPath)

	require.Eventually(t, func() bool {
		c.Poll()
		return c.State().ScanCurrent == root
	}, 5*time.Second, 5*time.Millisecond)

	close(b.release)
	s := waitForScan(t, c)

	assert.Equal(t, ScreenList, s.Screen)
	assert.Len(t, s.Entries, 2)
	assert.Equal(t, uint64(30), s.TotalBytes)
	assert.Empty(t, s.ScanCurrent)
	assert.False(t, c.Poll())
}

func TestBackgroundScanEmptyResult(t *testing.T) {
	c := New(context.Background(), &fakeBackend{}, quietLogger())

	c.SubmitPath(t.TempDir())
	s := waitForScan(t, c)

	assert.Equal(t, ScreenWelcome, s.Screen)
	require.NotNil(t, s.Message)
	assert.Equal(t, MessageInfo, s.Message.Kind)
	assert.Equal(t, "No node_modules folders found.", s.Message.Text)
}

func TestBackgroundScanError(t *testing.T) {
	c := New(context.Background(), &fakeBackend{scanErr: errors.New("disk on fire")}, quietLogger())

	c.SubmitPath(t.TempDir())
	s := waitForScan(t, c)

	assert.Equal(t, ScreenWelcome, s.Screen)
	require.NotNil(t, s.Message)
	assert.Equal(t, MessageError, s.Message.Kind)
	assert.Contains(t, s.Message.Text, "disk on fire")
}

func TestQuitCancelsScan(t *testing.T) {
	b := &fakeBackend{entries: entries(1), release: make(chan struct{})}
	c := New(context.Background(), b, quietLogger())

	c.SubmitPath(t.TempDir())
	require.True(t, c.State().Scanning)

	assert.Equal(t, EffectQuit, c.Handle(ActionQuit))

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scan worker did not stop")
	}

	s := c.State()
	assert.True(t, s.Quit)
	assert.False(t, s.Scanning)
	assert.Equal(t, ScreenWelcome, s.Screen)
}

func TestSessionEndToEnd(t *testing.T) {
	root := t.TempDir()
	write := func(rel string, size int) {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, make([]byte, size), 0o644))
	}
	write("a/node_modules/one", 100)
	write("a/node_modules/two", 200)
	write("a/node_modules/sub/node_modules/three", 300)
	write("b/c/node_modules/four", 50)

	s, err := scanner.New(scanner.Options{Logger: quietLogger()})
	require.NoError(t, err)
	c := New(context.Background(), s, quietLogger())

	c.SubmitPath(root)
	state := waitForScan(t, c)

	require.Equal(t, ScreenList, state.Screen)
	require.Len(t, state.Entries, 2)
	assert.Equal(t, uint64(650), state.TotalBytes)
	assert.Positive(t, state.ScanStats.DirsVisited)

	c.Handle(ActionSelectAll)
	c.Handle(ActionDelete)
	require.Equal(t, EffectDelete, c.Handle(ActionConfirm))
	c.ConfirmDelete()

	state = c.State()
	assert.Empty(t, state.Entries)
	assert.Zero(t, state.TotalBytes)
	assert.NoDirExists(t, filepath.Join(root, "a", "node_modules"))
	assert.NoDirExists(t, filepath.Join(root, "b", "c", "node_modules"))
	assert.DirExists(t, filepath.Join(root, "b", "c"))
}

func TestDeletingVanishedEntryIsAFailure(t *testing.T) {
	root := t.TempDir()
	present := filepath.Join(root, "present", "node_modules")
	require.NoError(t, os.MkdirAll(present, 0o755))

	s, err := scanner.New(scanner.Options{Logger: quietLogger()})
	require.NoError(t, err)
	c := New(context.Background(), s, quietLogger())
	c.SetEntries([]*scanner.NodeModuleInfo{
		{Path: filepath.Join(root, "vanished", "node_modules"), Size: 5},
		{Path: present, Size: 7},
	})

	c.SelectAll()
	c.RequestDelete()
	c.ConfirmDelete()

	state := c.State()
	require.Len(t, state.Entries, 1)
	assert.Equal(t, uint64(5), state.TotalBytes)
	require.NotNil(t, state.Message)
	assert.Equal(t, "Deleted 1 folders, 1 failed", state.Message.Text)
}
