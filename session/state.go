package session

import "github.com/riadafridishibly/nmremover/scanner"

type Screen int

const (
	ScreenWelcome Screen = iota
	ScreenList
)

func (s Screen) String() string {
	switch s {
	case ScreenList:
		return "list"
	default:
		return "welcome"
	}
}

type MessageKind int

const (
	MessageInfo MessageKind = iota
	MessageError
)

type Message struct {
	Kind MessageKind
	Text string
}

// DeleteProgress describes the item currently being removed: Current is its
// 1-based position in a sequence of Total items.
type DeleteProgress struct {
	Current int
	Total   int
	Path    string
}

// State is a snapshot of the session. Entries point at immutable values, so
// a snapshot can be read while the controller keeps changing.
type State struct {
	Screen   Screen
	Entries  []*scanner.NodeModuleInfo
	Selected map[int]struct{}

	// -1 when there is nothing to point at
	Cursor int

	TotalBytes    uint64
	SelectedBytes uint64

	Scanning    bool
	ScanPath    string
	ScanCurrent string
	ScanStats   scanner.Stats

	Deleting bool
	Progress DeleteProgress

	ShowHelp    bool
	ShowDetail  bool
	ShowConfirm bool

	Message *Message
	Quit    bool
}

func (s *State) IsSelected(i int) bool {
	_, ok := s.Selected[i]
	return ok
}

// CursorEntry is the entry under the cursor, or nil.
func (s *State) CursorEntry() *scanner.NodeModuleInfo {
	if s.Cursor < 0 || s.Cursor >= len(s.Entries) {
		return nil
	}
	return s.Entries[s.Cursor]
}

func (s *State) clone() State {
	out := *s
	out.Entries = append([]*scanner.NodeModuleInfo(nil), s.Entries...)
	out.Selected = make(map[int]struct{}, len(s.Selected))
	for i := range s.Selected {
		out.Selected[i] = struct{}{}
	}
	if s.Message != nil {
		m := *s.Message
		out.Message = &m
	}
	return out
}
