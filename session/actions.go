package session

type Action int

const (
	ActionNone Action = iota
	ActionUp
	ActionDown
	ActionToggle
	ActionSelectAll
	ActionDeselectAll
	ActionDelete
	ActionConfirm
	ActionCancel
	ActionHelp
	ActionDetail
	ActionQuit
)

// Effect tells the event loop what to do after Handle returns.
type Effect int

const (
	EffectNone Effect = iota
	// EffectDelete: run ConfirmDelete, typically on a new goroutine
	EffectDelete
	EffectQuit
)

// Handle applies one input action. An open help or detail overlay swallows
// the next action; an open confirmation prompt only reacts to confirm, cancel and
// quit. Input is ignored while a deletion runs.
func (c *Controller) Handle(a Action) Effect {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Deleting || c.state.Quit {
		return EffectNone
	}

	if c.state.ShowHelp || c.state.ShowDetail {
		c.state.ShowHelp = false
		c.state.ShowDetail = false
		return EffectNone
	}

	if c.state.ShowConfirm {
		switch a {
		case ActionConfirm:
			return EffectDelete
		case ActionCancel, ActionQuit:
			c.state.ShowConfirm = false
		}
		return EffectNone
	}

	if c.state.Screen == ScreenWelcome {
		if a == ActionQuit {
			c.quitLocked()
			return EffectQuit
		}
		return EffectNone
	}

	switch a {
	case ActionUp:
		c.moveCursorLocked(-1)
	case ActionDown:
		c.moveCursorLocked(1)
	case ActionToggle:
		c.toggleSelectionLocked()
	case ActionSelectAll:
		c.selectAllLocked()
	case ActionDeselectAll:
		c.deselectAllLocked()
	case ActionDelete:
		c.requestDeleteLocked()
	case ActionHelp:
		c.toggleHelpLocked()
	case ActionDetail:
		c.showDetailLocked()
	case ActionQuit:
		c.quitLocked()
		return EffectQuit
	}
	return EffectNone
}
