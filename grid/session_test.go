package grid

import (
	"errors"
	"testing"
)

func blackAll(s *Session) {
	for id := 0; id <= Center; id++ {
		s.ToggleBlock(id)
	}
}

func TestNewSessionInitialState(t *testing.T) {
	s := New()
	assertInitial(t, s)
}

func assertInitial(t *testing.T, s *Session) {
	t.Helper()
	b := s.Board()
	for id, c := range b {
		if c.Black || c.Letter != Blank || c.Number != 0 || c.Across != 0 || c.Down != 0 {
			t.Fatalf("cell %d not initial: %+v", id, c)
		}
	}
	if _, ok := s.Selection(); ok {
		t.Fatal("expected no selection")
	}
	if s.Mode() != Color {
		t.Fatalf("expected Color mode, got %v", s.Mode())
	}
}

func TestToggleBlockSymmetric(t *testing.T) {
	s := New()
	if err := s.ToggleBlock(3); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	b := s.Board()
	if !b[3].Black || !b[221].Black {
		t.Fatal("expected cell 3 and its partner 221 to be black")
	}
	for id, c := range b {
		if id != 3 && id != 221 && c.Black {
			t.Fatalf("cell %d should still be white", id)
		}
	}
}

func TestToggleBlockTwiceRestores(t *testing.T) {
	s := New()
	s.ToggleBlock(40) // non-trivial starting pattern
	for id := range Cells {
		before := s.Board()
		s.ToggleBlock(id)
		s.ToggleBlock(id)
		if s.Board() != before {
			t.Fatalf("double toggle of %d changed the board", id)
		}
	}
}

func TestToggleCenterOnce(t *testing.T) {
	s := New()
	s.ToggleBlock(Center)
	b := s.Board()
	if !b[Center].Black {
		t.Fatal("center should be black after one toggle")
	}
	n := 0
	for _, c := range b {
		if c.Black {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("expected exactly 1 black cell, got %d", n)
	}
}

func TestToggleBlockOutOfRange(t *testing.T) {
	s := New()
	for _, id := range []int{-1, Cells, 1000} {
		if err := s.ToggleBlock(id); !errors.Is(err, ErrCellRange) {
			t.Fatalf("toggle %d: expected ErrCellRange, got %v", id, err)
		}
	}
	assertInitial(t, s)
}

func TestSetLetter(t *testing.T) {
	s := New()
	if err := s.SetLetter(7, "q"); err != nil {
		t.Fatalf("set letter: %v", err)
	}
	if got := s.Board()[7].Letter; got != "Q" {
		t.Fatalf("expected Q, got %q", got)
	}
	if err := s.SetLetter(7, ""); err != nil {
		t.Fatalf("erase: %v", err)
	}
	if got := s.Board()[7].Letter; got != Blank {
		t.Fatalf("expected blank, got %q", got)
	}
	if err := s.SetLetter(8, "É"); err != nil {
		t.Fatalf("accented letter: %v", err)
	}
}

func TestSetLetterRejects(t *testing.T) {
	s := New()
	for _, ch := range []string{"AB", "1", "?", "  "} {
		if err := s.SetLetter(0, ch); !errors.Is(err, ErrLetter) {
			t.Fatalf("letter %q: expected ErrLetter, got %v", ch, err)
		}
	}
	if err := s.SetLetter(225, "A"); !errors.Is(err, ErrCellRange) {
		t.Fatalf("expected ErrCellRange, got %v", err)
	}
	assertInitial(t, s)
}

func TestSetLetterDoesNotCheckBlack(t *testing.T) {
	s := New()
	s.ToggleBlock(0)
	if err := s.SetLetter(0, "A"); err != nil {
		t.Fatalf("set letter on black cell: %v", err)
	}
	if s.Board()[0].Letter != "A" {
		t.Fatal("letter should be written regardless of color")
	}
}

func TestReset(t *testing.T) {
	s := New()
	s.ToggleBlock(10)
	s.SetLetter(20, "Z")
	s.Renumber()
	s.SetMode(Words)
	s.SetDirection(Down)

	s.Reset()
	assertInitial(t, s)
	if s.Direction() != Across {
		t.Fatalf("expected across after reset, got %v", s.Direction())
	}
}

func TestSetModeSelectsFirstWhite(t *testing.T) {
	s := New()
	for id := range 5 {
		s.ToggleBlock(id)
	}
	if err := s.SetMode(Words); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if id, ok := s.Selection(); !ok || id != 5 {
		t.Fatalf("expected selection 5, got %d (%v)", id, ok)
	}

	s.SetMode(Color)
	if _, ok := s.Selection(); ok {
		t.Fatal("leaving Words should clear the selection")
	}
}

func TestSetModeAllBlack(t *testing.T) {
	s := New()
	blackAll(s)
	if err := s.SetMode(Words); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if s.Mode() != Words {
		t.Fatal("mode should switch to Words")
	}
	if _, ok := s.Selection(); ok {
		t.Fatal("all-black board should leave nothing selected")
	}
}

func TestSetModeSameModeKeepsSelection(t *testing.T) {
	s := New()
	s.SetMode(Words)
	s.Select(30)
	s.SetMode(Words)
	if id, _ := s.Selection(); id != 30 {
		t.Fatalf("expected selection 30 to survive, got %d", id)
	}
}

func TestToggleMode(t *testing.T) {
	s := New()
	s.ToggleMode()
	if s.Mode() != Words {
		t.Fatal("expected Words")
	}
	s.ToggleMode()
	if s.Mode() != Color {
		t.Fatal("expected Color")
	}
}

func TestInvalidModeAndDirection(t *testing.T) {
	s := New()
	if err := s.SetMode(Mode(7)); !errors.Is(err, ErrMode) {
		t.Fatalf("expected ErrMode, got %v", err)
	}
	if err := s.SetDirection(Direction(7)); !errors.Is(err, ErrDirection) {
		t.Fatalf("expected ErrDirection, got %v", err)
	}
	if _, err := ParseMode("Paint"); !errors.Is(err, ErrMode) {
		t.Fatalf("expected ErrMode, got %v", err)
	}
	if d, err := ParseDirection("DOWN"); err != nil || d != Down {
		t.Fatalf("parse DOWN: %v %v", d, err)
	}
}

func TestPressAndDragPaint(t *testing.T) {
	s := New()
	if err := s.Press(16); err != nil {
		t.Fatalf("press: %v", err)
	}
	if !s.Board()[16].Black {
		t.Fatal("press should toggle the cell")
	}

	s.Enter(17, true)
	s.Enter(18, true)
	b := s.Board()
	if !b[17].Black || !b[18].Black {
		t.Fatal("dragging with the button held should paint black")
	}

	// Already black: not flipped back.
	s.Enter(17, true)
	if !s.Board()[17].Black {
		t.Fatal("cell matching the paint color must not be re-flipped")
	}

	// Button released.
	s.Enter(19, false)
	if s.Board()[19].Black {
		t.Fatal("moving without the button held must not paint")
	}
}

func TestPressOnBlackPaintsWhite(t *testing.T) {
	s := New()
	s.ToggleBlock(31)
	s.ToggleBlock(32)

	s.Press(31) // 31 becomes white, paint color is white
	s.Enter(32, true)
	s.Enter(33, true)
	b := s.Board()
	if b[31].Black || b[32].Black {
		t.Fatal("expected 31 and 32 white")
	}
	if b[33].Black {
		t.Fatal("white cell must stay white while painting white")
	}
}

func TestPressInWordsModeSelects(t *testing.T) {
	s := New()
	s.SetMode(Words)
	s.Press(44)
	if id, _ := s.Selection(); id != 44 {
		t.Fatalf("expected selection 44, got %d", id)
	}
	if s.Board()[44].Black {
		t.Fatal("press in Words mode must not toggle")
	}
	s.Enter(45, true)
	if s.Board()[45].Black {
		t.Fatal("enter in Words mode must not toggle")
	}
}

func TestKeyLetterAdvances(t *testing.T) {
	s := New()
	s.SetMode(Words)
	res, err := s.Key("c")
	if err != nil || res != KeyApplied {
		t.Fatalf("key: %v %v", res, err)
	}
	if s.Board()[0].Letter != "C" {
		t.Fatalf("expected C at 0, got %q", s.Board()[0].Letter)
	}
	if id, _ := s.Selection(); id != 1 {
		t.Fatalf("expected cursor at 1, got %d", id)
	}
}

func TestKeyBackspaceRetreats(t *testing.T) {
	s := New()
	s.SetMode(Words)
	s.Select(5)
	s.SetLetter(5, "X")
	if res, _ := s.Key(KeyBackspace); res != KeyApplied {
		t.Fatalf("expected applied, got %v", res)
	}
	if s.Board()[5].Letter != Blank {
		t.Fatal("backspace should erase the selected cell")
	}
	if id, _ := s.Selection(); id != 4 {
		t.Fatalf("expected cursor at 4, got %d", id)
	}
}

func TestKeyDownDirection(t *testing.T) {
	s := New()
	s.SetMode(Words)
	s.SetDirection(Down)
	s.Key("A")
	if id, _ := s.Selection(); id != Size {
		t.Fatalf("expected cursor at %d, got %d", Size, id)
	}
}

func TestKeyTabAndOthers(t *testing.T) {
	s := New()
	if res, _ := s.Key(KeyTab); res != KeySuppressed {
		t.Fatalf("tab: expected suppressed, got %v", res)
	}
	// No selection in Color mode.
	if res, _ := s.Key("A"); res != KeyIgnored {
		t.Fatalf("expected ignored without selection, got %v", res)
	}

	s.SetMode(Words)
	for _, k := range []string{"1", " ", "Shift", "ArrowLeft", "?"} {
		if res, err := s.Key(k); res != KeyIgnored || err != nil {
			t.Fatalf("key %q: expected ignored, got %v %v", k, res, err)
		}
	}
	if id, _ := s.Selection(); id != 0 {
		t.Fatalf("ignored keys must not move the cursor, got %d", id)
	}
}

func TestLoadPattern(t *testing.T) {
	s := New()
	s.SetLetter(0, "A")
	s.SetMode(Words)

	var mask [Cells]bool
	mask[0] = true
	mask[9] = true
	s.LoadPattern(mask)

	b := s.Board()
	if !b[0].Black || !b[9].Black || b[Partner(9)].Black {
		t.Fatal("mask must be applied exactly, without symmetry")
	}
	if b[0].Letter != Blank {
		t.Fatal("letters should be cleared")
	}
	if s.Mode() != Color {
		t.Fatal("expected Color mode after load")
	}
}

func TestStateSnapshot(t *testing.T) {
	s := New()
	st := s.State()
	if st.Selected != nil {
		t.Fatal("expected nil selection")
	}
	st.Board[0].Black = true
	if s.Board()[0].Black {
		t.Fatal("snapshot must not alias the session board")
	}

	s.SetMode(Words)
	st = s.State()
	if st.Selected == nil || *st.Selected != 0 {
		t.Fatal("expected selection 0 in snapshot")
	}
}

func TestSelectRequiresWords(t *testing.T) {
	s := New()
	if err := s.Select(7); !errors.Is(err, ErrColorMode) {
		t.Fatalf("expected ErrColorMode, got %v", err)
	}
	if _, ok := s.Selection(); ok {
		t.Fatal("Color mode must not have a selection")
	}

	// Press keeps toggling and never leaves a cursor behind.
	s.Press(7)
	if !s.Board()[7].Black {
		t.Fatal("press in Color mode should paint")
	}
	if _, ok := s.Selection(); ok {
		t.Fatal("press in Color mode must not select")
	}
}

func TestKeyIgnoredInColorMode(t *testing.T) {
	s := New()
	s.SetMode(Words)
	s.Select(20)
	s.SetMode(Color)

	for _, k := range []string{"q", KeyBackspace} {
		if res, err := s.Key(k); res != KeyIgnored || err != nil {
			t.Fatalf("key %q in Color mode: expected ignored, got %v %v", k, res, err)
		}
	}
	if s.Board()[20].Letter != Blank {
		t.Fatal("Color mode must not write letters")
	}
	if res, _ := s.Key(KeyTab); res != KeySuppressed {
		t.Fatalf("tab: expected suppressed, got %v", res)
	}
}
