package tui

import (
	"fmt"
	"strings"
	"time"

	"codeberg.org/tslocum/cview"
	"github.com/dustin/go-humanize"
	"github.com/riadafridishibly/nmremover/scanner"
	"github.com/riadafridishibly/nmremover/session"
)

func headerStatus(s *session.State) string {
	if s.Screen == session.ScreenWelcome {
		return " nm-remover - Node Modules Cleaner "
	}

	status := fmt.Sprintf(" Found: %d node_modules | Total: %s | Selected: %d (%s) ",
		len(s.Entries),
		humanize.Bytes(s.TotalBytes),
		len(s.Selected),
		humanize.Bytes(s.SelectedBytes),
	)
	if s.ScanStats.DirsVisited > 0 {
		status += fmt.Sprintf("| Dirs scanned: %s | Files sized: %s | Elapsed: %s ",
			humanize.Comma(s.ScanStats.DirsVisited),
			humanize.Comma(s.ScanStats.FilesSized),
			s.ScanStats.Elapsed.Round(time.Millisecond),
		)
	}
	return status
}

func (a *App) footerStatus(s *session.State, width int) string {
	theme := &a.currentTheme

	if s.Scanning {
		current := a.replaceHomeWithTilde(s.ScanCurrent)
		return fmt.Sprintf(" [%s]Scanning:[-] %s", theme.yellow.String(), cview.Escape(truncatePath(current, width-12)))
	}

	if s.Message != nil {
		color := theme.green
		if s.Message.Kind == session.MessageError {
			color = theme.red
		}
		return fmt.Sprintf(" [%s]%s[-]", color.String(), cview.Escape(s.Message.Text))
	}

	if s.Screen == session.ScreenWelcome {
		return " Enter: Start scanning  |  Esc/q: Quit "
	}
	return " ↑/↓: Navigate  Space: Select  a: All  n: None  i: Info  d: Delete  t: Theme  ?: Help  q: Quit "
}

func (a *App) welcomeNotice(s *session.State) string {
	theme := &a.currentTheme

	switch {
	case s.Scanning:
		return fmt.Sprintf("[%s]Scanning: %s ...[-]", theme.yellow.String(), cview.Escape(a.replaceHomeWithTilde(s.ScanPath)))
	case s.Message != nil && s.Message.Kind == session.MessageError:
		return fmt.Sprintf("[%s]%s[-]", theme.red.String(), cview.Escape(s.Message.Text))
	case s.Message != nil:
		return fmt.Sprintf("[%s]%s[-]", theme.yellow.String(), cview.Escape(s.Message.Text))
	}
	return fmt.Sprintf("[%s]Tip: Use ~ for home directory (e.g., ~/Projects)[-]", theme.dim.String())
}

func (a *App) detailText(item *scanner.NodeModuleInfo) string {
	modified := "Unknown"
	if !item.LastModifiedAt.IsZero() {
		modified = item.LastModifiedAt.Format("2006-01-02 15:04:05 MST")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Path: %s\n", cview.Escape(a.replaceHomeWithTilde(item.Path)))
	fmt.Fprintf(&b, "Size: %s\n", humanize.Bytes(item.Size))
	fmt.Fprintf(&b, "Last Modified: %s (%s)\n", modified, item.Age(time.Now()))
	fmt.Fprintf(&b, "Scanned At: %s", item.ScannedAt.Format(time.Kitchen))
	return b.String()
}

func confirmText(s *session.State) string {
	return fmt.Sprintf("WARNING\n\nAre you sure you want to delete %d folder(s)?\nTotal size: %s\n\nThis action cannot be undone!\n\n(Y)es / (N)o",
		len(s.Selected),
		humanize.Bytes(s.SelectedBytes),
	)
}

func (a *App) deletingText(p session.DeleteProgress) string {
	percent := 0
	if p.Total > 0 {
		percent = p.Current * 100 / p.Total
	}
	return fmt.Sprintf("Deleting...\n\n%s\n\n%d / %d (%d%%)\n\n%s",
		progressBar(p.Current, p.Total, 30),
		p.Current, p.Total, percent,
		cview.Escape(truncatePath(a.replaceHomeWithTilde(p.Path), 50)),
	)
}

const helpText = `Keyboard Shortcuts

↑/k      Move cursor up
↓/j      Move cursor down
Space    Toggle selection
a        Select all
n        Deselect all
d        Delete selected
i        Show details
t        Switch theme
?        Toggle this help
q/Esc    Quit

Press any key to close`
