package tui

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v3"
	"github.com/riadafridishibly/nmremover/config"
	"github.com/riadafridishibly/nmremover/scanner"
	"github.com/riadafridishibly/nmremover/session"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "/short", truncatePath("/short", 20))
	assert.Equal(t, "...c/node_modules", truncatePath("/a/b/c/node_modules", 17))
	assert.Equal(t, "/a/b", truncatePath("/a/b", 2))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "██░░", progressBar(1, 2, 4))
	assert.Equal(t, "████", progressBar(3, 3, 4))
	assert.Equal(t, "░░░░", progressBar(0, 0, 4))
}

func TestNextThemeNameCycles(t *testing.T) {
	names := ThemeNames()
	seen := map[string]bool{}
	name := names[0]
	for range names {
		seen[name] = true
		name = nextThemeName(name)
	}
	assert.Len(t, seen, len(themes))
	assert.Equal(t, names[0], name)
	assert.Equal(t, names[0], nextThemeName("no-such-theme"))
}

func TestListAction(t *testing.T) {
	key := func(k tcell.Key, str string) *tcell.EventKey {
		return tcell.NewEventKey(k, str, tcell.ModNone)
	}

	cases := []struct {
		event *tcell.EventKey
		want  session.Action
	}{
		{key(tcell.KeyUp, ""), session.ActionUp},
		{key(tcell.KeyDown, ""), session.ActionDown},
		{key(tcell.KeyEscape, ""), session.ActionQuit},
		{key(tcell.KeyRune, "k"), session.ActionUp},
		{key(tcell.KeyRune, "j"), session.ActionDown},
		{key(tcell.KeyRune, " "), session.ActionToggle},
		{key(tcell.KeyRune, "a"), session.ActionSelectAll},
		{key(tcell.KeyRune, "n"), session.ActionDeselectAll},
		{key(tcell.KeyRune, "d"), session.ActionDelete},
		{key(tcell.KeyRune, "?"), session.ActionHelp},
		{key(tcell.KeyRune, "i"), session.ActionDetail},
		{key(tcell.KeyRune, "I"), session.ActionDetail},
		{key(tcell.KeyRune, "q"), session.ActionQuit},
		{key(tcell.KeyRune, "z"), session.ActionNone},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, listAction(c.event), "key %q", c.event.Str())
	}
}

func TestHeaderStatus(t *testing.T) {
	s := session.State{
		Screen: session.ScreenList,
		Entries: []*scanner.NodeModuleInfo{
			{Path: "/a/node_modules", Size: 1000},
			{Path: "/b/node_modules", Size: 2000},
		},
		Selected:      map[int]struct{}{1: {}},
		TotalBytes:    3000,
		SelectedBytes: 2000,
		ScanStats:     scanner.Stats{DirsVisited: 1234, FilesSized: 56789, Elapsed: 1500 * time.Millisecond},
	}

	header := headerStatus(&s)
	assert.Contains(t, header, "Found: 2 node_modules")
	assert.Contains(t, header, "Total: 3.0 kB")
	assert.Contains(t, header, "Selected: 1 (2.0 kB)")
	assert.Contains(t, header, "Dirs scanned: 1,234")
	assert.Contains(t, header, "Files sized: 56,789")
}

func TestConfirmText(t *testing.T) {
	s := session.State{Selected: map[int]struct{}{0: {}, 2: {}}, SelectedBytes: 5_000_000}
	text := confirmText(&s)
	assert.Contains(t, text, "delete 2 folder(s)")
	assert.Contains(t, text, "5.0 MB")
}

func TestReplaceHomeWithTilde(t *testing.T) {
	a := &App{cfg: config.Default(), userHomeDir: "/home/dev"}
	assert.Equal(t, "~/src/node_modules", a.replaceHomeWithTilde("/home/dev/src/node_modules"))
	assert.Equal(t, "/opt/node_modules", a.replaceHomeWithTilde("/opt/node_modules"))

	a.cfg.ReplaceHomeWithTilde = false
	assert.Equal(t, "/home/dev/src/node_modules", a.replaceHomeWithTilde("/home/dev/src/node_modules"))
}

func TestDeletingText(t *testing.T) {
	a := &App{cfg: config.Default()}
	text := a.deletingText(session.DeleteProgress{Current: 1, Total: 4, Path: "/x/node_modules"})
	assert.Contains(t, text, "1 / 4 (25%)")
	assert.Contains(t, text, "/x/node_modules")
}

func TestReplaceHomeWithTildeNeedsSeparator(t *testing.T) {
	a := &App{cfg: config.Default(), userHomeDir: "/home/dev"}
	assert.Equal(t, "/home/devops/node_modules", a.replaceHomeWithTilde("/home/devops/node_modules"))
	assert.Equal(t, "~", a.replaceHomeWithTilde("/home/dev"))
}

func TestDetailText(t *testing.T) {
	a := &App{cfg: config.Default()}
	item := &scanner.NodeModuleInfo{
		Path:           "/work/site/node_modules",
		Size:           2_500_000,
		LastModifiedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		ScannedAt:      time.Date(2024, 3, 2, 15, 4, 0, 0, time.UTC),
	}

	text := a.detailText(item)
	assert.Contains(t, text, "Path: /work/site/node_modules")
	assert.Contains(t, text, "Size: 2.5 MB")
	assert.Contains(t, text, "Last Modified: 2024-03-01 09:30:00 UTC")
	assert.Contains(t, text, "Scanned At: 3:04PM")

	item.LastModifiedAt = time.Time{}
	assert.Contains(t, a.detailText(item), "Last Modified: Unknown")
}

type nopBackend struct{}

func (nopBackend) Scan(context.Context, string, scanner.VisitFunc) ([]*scanner.NodeModuleInfo, error) {
	return nil, nil
}

func (nopBackend) Delete(string) error { return nil }

func newTestApp(t *testing.T) (*App, *session.Controller) {
	t.Helper()
	log, _ := test.NewNullLogger()
	ctrl := session.New(context.Background(), nopBackend{}, log)
	ctrl.SetEntries([]*scanner.NodeModuleInfo{
		{Path: "/a/node_modules", Size: 10},
		{Path: "/b/node_modules", Size: 20},
	})
	return NewApp(ctrl, config.Default(), log, ""), ctrl
}

func TestOverlayTakesKeysBeforeCtrlC(t *testing.T) {
	a, ctrl := newTestApp(t)

	ctrl.Handle(session.ActionHelp)
	require.True(t, ctrl.State().ShowHelp)

	assert.Nil(t, a.handleInput(tcell.NewEventKey(tcell.KeyCtrlC, "", tcell.ModNone)))
	s := ctrl.State()
	assert.False(t, s.ShowHelp)
	assert.False(t, s.Quit)
}

func TestDetailKeyOpensAndClosesOverlay(t *testing.T) {
	a, ctrl := newTestApp(t)

	a.handleInput(tcell.NewEventKey(tcell.KeyRune, "j", tcell.ModNone))
	a.handleInput(tcell.NewEventKey(tcell.KeyRune, "i", tcell.ModNone))
	s := ctrl.State()
	require.True(t, s.ShowDetail)
	assert.Equal(t, "/b/node_modules", s.CursorEntry().Path)

	a.handleInput(tcell.NewEventKey(tcell.KeyRune, " ", tcell.ModNone))
	s = ctrl.State()
	assert.False(t, s.ShowDetail)
	assert.Empty(t, s.Selected)
}
