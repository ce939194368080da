package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/tslocum/cview"
	"github.com/dustin/go-humanize"
	"github.com/riadafridishibly/nmremover/session"
)

const logoHeight = 9

var logoLines = []string{
	"                                                          ",
	" _ __  _ __ ___        _ __ ___ _ __ ___   _____   _____ _ __ ",
	"| '_ \\| '_ ` _ \\ _____| '__/ _ \\ '_ ` _ \\ / _ \\ \\ / / _ \\ '__|",
	"| | | | | | | | |_____| | |  __/ | | | | | (_) \\ V /  __/ |   ",
	"|_| |_|_| |_| |_|     |_|  \\___|_| |_| |_|\\___/ \\_/ \\___|_|   ",
	"",
	"Node Modules Cleanup Tool",
	"",
	"",
}

func renderLogo(theme *Theme) string {
	var b strings.Builder
	for i, line := range logoLines {
		color := theme.accent
		if i >= len(logoLines)-3 {
			color = theme.yellow
		}
		fmt.Fprintf(&b, "[%s]%s[-]\n", color.String(), cview.Escape(line))
	}
	return b.String()
}

// render copies a controller snapshot into the widgets. It must run on the
// UI goroutine.
func (a *App) render() {
	s := a.ctrl.State()
	width, _ := a.app.GetScreenSize()
	if width <= 0 {
		width = 80
	}

	a.header.SetText(headerStatus(&s))
	a.footer.SetText(a.footerStatus(&s, width))

	if s.Screen == session.ScreenWelcome {
		a.panels.ShowPanel(panelWelcome)
		a.panels.HidePanel(panelList)
		a.notice.SetText(a.welcomeNotice(&s))
	} else {
		a.panels.HidePanel(panelWelcome)
		a.panels.ShowPanel(panelList)
		a.buildTable(&s)
	}

	a.setOverlay(panelHelp, s.ShowHelp)
	if item := s.CursorEntry(); s.ShowDetail && item != nil {
		a.detailModal.SetText(a.detailText(item))
	}
	a.setOverlay(panelDetail, s.ShowDetail)
	if s.ShowConfirm {
		a.confirmModal.SetText(confirmText(&s))
	}
	a.setOverlay(panelConfirm, s.ShowConfirm)
	if s.Deleting {
		a.deletingModal.SetText(a.deletingText(s.Progress))
	}
	a.setOverlay(panelDeleting, s.Deleting)

	switch {
	case s.ShowConfirm:
		a.app.SetFocus(a.confirmModal)
	case s.ShowHelp:
		a.app.SetFocus(a.helpModal)
	case s.ShowDetail:
		a.app.SetFocus(a.detailModal)
	case s.Screen == session.ScreenWelcome:
		a.app.SetFocus(a.input)
	default:
		a.app.SetFocus(a.table)
	}
}

func (a *App) setOverlay(name string, visible bool) {
	if visible {
		a.panels.ShowPanel(name)
		a.panels.SendToFront(name)
	} else {
		a.panels.HidePanel(name)
	}
}

func (a *App) buildTable(s *session.State) {
	theme := a.currentTheme
	table := a.table
	table.Clear()

	now := time.Now()
	for row, item := range s.Entries {
		mark, markColor := "[ ]", theme.dim
		if s.IsSelected(row) {
			mark, markColor = "[x]", theme.green
		}

		markCell := cview.NewTableCell(" " + cview.Escape(mark))
		markCell.SetTextColor(markColor)
		markCell.SetAlign(cview.AlignLeft)
		table.SetCell(row, 0, markCell)

		sizeCell := cview.NewTableCell(fmt.Sprintf(" %s ", humanize.Bytes(item.Size)))
		sizeCell.SetTextColor(theme.yellow)
		sizeCell.SetAlign(cview.AlignRight)
		table.SetCell(row, 1, sizeCell)

		ageCell := cview.NewTableCell(item.Age(now))
		ageCell.SetTextColor(theme.dim)
		ageCell.SetAlign(cview.AlignRight)
		table.SetCell(row, 2, ageCell)

		pathCell := cview.NewTableCell(cview.Escape(a.replaceHomeWithTilde(item.Path)))
		pathCell.SetTextColor(theme.fg)
		pathCell.SetAlign(cview.AlignLeft)
		pathCell.SetExpansion(1)
		table.SetCell(row, 3, pathCell)
	}

	if s.Cursor >= 0 {
		table.Select(s.Cursor, 0)
	}
}

func (a *App) replaceHomeWithTilde(p string) string {
	if !a.cfg.ReplaceHomeWithTilde || a.userHomeDir == "" {
		return p
	}
	after, ok := strings.CutPrefix(p, a.userHomeDir)
	if !ok || (after != "" && after[0] != filepath.Separator) {
		return p
	}
	return "~" + after
}

// truncatePath keeps the tail of p, which holds the interesting part of a
// long path.
func truncatePath(p string, max int) string {
	r := []rune(p)
	if max <= 3 || len(r) <= max {
		return p
	}
	return "..." + string(r[len(r)-(max-3):])
}

func progressBar(current, total, width int) string {
	if total < 1 {
		total = 1
	}
	filled := width * current / total
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
