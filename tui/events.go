package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v3"
	"github.com/riadafridishibly/nmremover/session"
)

func (a *App) trySendUIUpdate(f func()) {
	select {
	case a.uiUpdates <- f:
	default:
	}
}

// pollScan moves scan progress into the session on every tick and redraws
// while a scan is running.
func (a *App) pollScan(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.ProgressUpdateFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.ctrl.Poll() {
				a.trySendUIUpdate(a.render)
			}
		}
	}
}

// dispatch runs on the UI goroutine.
func (a *App) dispatch(action session.Action) {
	switch a.ctrl.Handle(action) {
	case session.EffectDelete:
		go a.ctrl.ConfirmDelete()
	case session.EffectQuit:
		a.Stop()
		return
	}
	a.render()
}

func (a *App) handlePathSubmit(_ tcell.Key) {
	a.ctrl.SubmitPath(a.input.GetText())
	a.render()
}
