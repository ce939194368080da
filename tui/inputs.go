package tui

import (
	"github.com/gdamore/tcell/v3"
	"github.com/riadafridishibly/nmremover/session"
)

func (a *App) handleInput(event *tcell.EventKey) *tcell.EventKey {
	s := a.ctrl.State()

	// A confirmed deletion runs to completion
	if s.Deleting {
		return nil
	}

	// Any key, Ctrl+C included, only closes an overlay
	if s.ShowHelp || s.ShowDetail {
		a.dispatch(session.ActionNone)
		return nil
	}

	if event.Key() == tcell.KeyCtrlC {
		a.Stop()
		return nil
	}

	if s.ShowConfirm {
		switch event.Str() {
		case "y", "Y":
			a.dispatch(session.ActionConfirm)
			return nil
		case "n", "N":
			a.dispatch(session.ActionCancel)
			return nil
		// vi key binding for modal button selection
		case "l":
			return tcell.NewEventKey(tcell.KeyRight, tcell.KeyNames[tcell.KeyRight], tcell.ModNone)
		case "h":
			return tcell.NewEventKey(tcell.KeyLeft, tcell.KeyNames[tcell.KeyLeft], tcell.ModNone)
		}
		if event.Key() == tcell.KeyEscape {
			a.dispatch(session.ActionCancel)
			return nil
		}
		// Let the modal handle its own buttons
		return event
	}

	if s.Screen == session.ScreenWelcome {
		return a.handleWelcomeInput(event, &s)
	}

	if event.Str() == "t" || event.Str() == "T" {
		a.cycleTheme()
		a.render()
		return nil
	}

	a.dispatch(listAction(event))
	return nil
}

func (a *App) handleWelcomeInput(event *tcell.EventKey, s *session.State) *tcell.EventKey {
	if s.Scanning {
		if event.Key() == tcell.KeyEscape {
			a.dispatch(session.ActionQuit)
		}
		return nil
	}

	if event.Key() == tcell.KeyEscape || (event.Str() == "q" && a.input.GetText() == "") {
		a.dispatch(session.ActionQuit)
		return nil
	}

	if s.Message != nil && event.Key() != tcell.KeyEnter {
		a.ctrl.ClearMessage()
		a.trySendUIUpdate(a.render)
	}

	// Typing goes to the path input
	return event
}

func listAction(event *tcell.EventKey) session.Action {
	switch event.Key() {
	case tcell.KeyUp:
		return session.ActionUp
	case tcell.KeyDown:
		return session.ActionDown
	case tcell.KeyEscape:
		return session.ActionQuit
	}

	switch event.Str() {
	case "k":
		return session.ActionUp
	case "j":
		return session.ActionDown
	case " ":
		return session.ActionToggle
	case "a":
		return session.ActionSelectAll
	case "n":
		return session.ActionDeselectAll
	case "d", "D":
		return session.ActionDelete
	case "i", "I":
		return session.ActionDetail
	case "?":
		return session.ActionHelp
	case "q", "Q":
		return session.ActionQuit
	}
	return session.ActionNone
}
