package grid

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Session is the state of one editor: the board plus the mode, cursor and
// paint color driven by user input. It is not safe for concurrent use.
type Session struct {
	board     Board
	mode      Mode
	selected  int // -1 when nothing is selected
	direction Direction
	paint     bool // color captured by the last Press in Color mode
}

// State is a snapshot of a Session.
type State struct {
	Board     Board     `json:"board"`
	Mode      Mode      `json:"mode"`
	Selected  *int      `json:"selected"`
	Direction Direction `json:"direction"`
}

// New returns a session with an all-white, blank, unnumbered board in Color mode.
func New() *Session {
	s := &Session{}
	s.Reset()
	return s
}

// Board returns a copy of the board.
func (s *Session) Board() Board { return s.board }

// Mode returns the current input mode.
func (s *Session) Mode() Mode { return s.mode }

// Direction returns the current fill direction.
func (s *Session) Direction() Direction { return s.direction }

// Selection returns the selected cell, if any.
func (s *Session) Selection() (int, bool) {
	return s.selected, s.selected >= 0
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	st := State{Board: s.board, Mode: s.mode, Direction: s.direction}
	if id, ok := s.Selection(); ok {
		st.Selected = &id
	}
	return st
}

// Entries returns the across and down entries of the board.
func (s *Session) Entries() []Entry { return s.board.entries() }

// Reset restores the initial board, clears the selection and returns to Color mode.
func (s *Session) Reset() {
	s.board = newBoard()
	s.mode = Color
	s.selected = -1
	s.direction = Across
	s.paint = false
}

// ToggleBlock flips cell id and its rotational partner between black and white.
// The center cell is flipped once.
func (s *Session) ToggleBlock(id int) error {
	if err := checkCell(id); err != nil {
		return err
	}
	s.board[id].Black = !s.board[id].Black
	if id != Center {
		p := Partner(id)
		s.board[p].Black = !s.board[p].Black
	}
	return nil
}

// SetLetter writes ch into cell id. ch must be one cased letter, which is
// stored upper-cased, or Blank (the empty string also erases).
// Callers only write to white cells; the board does not check.
func (s *Session) SetLetter(id int, ch string) error {
	if err := checkCell(id); err != nil {
		return err
	}
	letter, err := normalizeLetter(ch)
	if err != nil {
		return err
	}
	s.board[id].Letter = letter
	return nil
}

func normalizeLetter(ch string) (string, error) {
	if ch == "" || ch == Blank {
		return Blank, nil
	}
	r, size := utf8.DecodeRuneInString(ch)
	if size != len(ch) || !isCasedLetter(r) {
		return "", fmt.Errorf("%w: %q", ErrLetter, ch)
	}
	return string(unicode.ToUpper(r)), nil
}

func isCasedLetter(r rune) bool {
	return r != utf8.RuneError && unicode.ToLower(r) != unicode.ToUpper(r)
}

// Renumber recomputes clue numbers for the whole board.
func (s *Session) Renumber() { s.board.renumber() }

// LoadPattern replaces the session with the initial state blocked by mask.
// The mask is applied as is, symmetric or not.
func (s *Session) LoadPattern(mask [Cells]bool) {
	s.Reset()
	for id, black := range mask {
		s.board[id].Black = black
	}
}

// SetMode switches the input mode. Entering Words selects the first white
// cell, or nothing when every cell is black; leaving it clears the selection.
func (s *Session) SetMode(m Mode) error {
	if m != Color && m != Words {
		return fmt.Errorf("%w: %d", ErrMode, int(m))
	}
	if m == s.mode {
		return nil
	}
	s.mode = m
	s.selected = -1
	if m == Words {
		if id, ok := s.board.first(); ok {
			s.selected = id
		}
	}
	return nil
}

// ToggleMode switches between Color and Words.
func (s *Session) ToggleMode() error {
	if s.mode == Color {
		return s.SetMode(Words)
	}
	return s.SetMode(Color)
}

// SetDirection changes the fill direction.
func (s *Session) SetDirection(d Direction) error {
	if d != Across && d != Down {
		return fmt.Errorf("%w: %d", ErrDirection, int(d))
	}
	s.direction = d
	return nil
}

// Select moves the cursor to cell id. The cursor only exists in Words mode.
func (s *Session) Select(id int) error {
	if err := checkCell(id); err != nil {
		return err
	}
	if s.mode != Words {
		return ErrColorMode
	}
	s.selected = id
	return nil
}

// Advance moves the cursor to the next white cell in direction d and
// returns it. The selection is unchanged on error.
func (s *Session) Advance(d Direction) (int, error) {
	return s.move(d, true)
}

// Retreat moves the cursor to the previous white cell in direction d.
func (s *Session) Retreat(d Direction) (int, error) {
	return s.move(d, false)
}

func (s *Session) move(d Direction, forward bool) (int, error) {
	if d != Across && d != Down {
		return 0, fmt.Errorf("%w: %d", ErrDirection, int(d))
	}
	if s.selected < 0 {
		return 0, ErrNoSelection
	}
	id, ok := s.board.scan(s.selected, d, forward)
	if !ok {
		return 0, ErrNoTarget
	}
	s.selected = id
	return id, nil
}

// Press handles the primary button going down over cell id. In Color mode
// it captures the paint color and toggles the cell; in Words mode it
// selects the cell.
func (s *Session) Press(id int) error {
	if err := checkCell(id); err != nil {
		return err
	}
	if s.mode == Words {
		s.selected = id
		return nil
	}
	s.paint = !s.board[id].Black
	return s.ToggleBlock(id)
}

// Enter handles the pointer moving onto cell id. held reports whether the
// primary button is down. While held in Color mode, cells that do not yet
// have the paint color are toggled.
func (s *Session) Enter(id int, held bool) error {
	if err := checkCell(id); err != nil {
		return err
	}
	if s.mode != Color || !held || s.board[id].Black == s.paint {
		return nil
	}
	return s.ToggleBlock(id)
}

// KeyResult reports what Key did with a key.
type KeyResult int

const (
	// KeyIgnored means the key had no effect.
	KeyIgnored KeyResult = iota
	// KeyApplied means the board or cursor changed.
	KeyApplied
	// KeySuppressed means the key must not reach the surrounding UI (Tab).
	KeySuppressed
)

func (r KeyResult) String() string {
	switch r {
	case KeyApplied:
		return "applied"
	case KeySuppressed:
		return "suppressed"
	}
	return "ignored"
}

// MarshalText encodes the result as its String form.
func (r KeyResult) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Key names accepted besides single letters.
const (
	KeyBackspace = "Backspace"
	KeyTab       = "Tab"
)

// Key applies a key press to the selected cell. A letter is written and
// the cursor advances; Backspace erases and the cursor retreats. Outside
// Words mode only Tab has an effect.
func (s *Session) Key(key string) (KeyResult, error) {
	if key == KeyTab {
		return KeySuppressed, nil
	}
	if s.mode != Words || s.selected < 0 {
		return KeyIgnored, nil
	}
	switch {
	case strings.EqualFold(key, KeyBackspace):
		s.board[s.selected].Letter = Blank
		if _, err := s.Retreat(s.direction); err != nil {
			return KeyApplied, err
		}
		return KeyApplied, nil
	case utf8.RuneCountInString(key) == 1:
		letter, err := normalizeLetter(key)
		if err != nil || letter == Blank {
			return KeyIgnored, nil
		}
		s.board[s.selected].Letter = letter
		if _, err := s.Advance(s.direction); err != nil {
			return KeyApplied, err
		}
		return KeyApplied, nil
	}
	return KeyIgnored, nil
}
