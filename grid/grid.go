// Package grid holds the state of a 15×15 crossword grid being edited:
// blocking, clue numbers, letters, and the cursor used for letter entry.
package grid

import (
	"fmt"
	"strings"
)

const (
	// Size is the number of rows and columns.
	Size = 15
	// Cells is the number of cells on the board.
	Cells = Size * Size
	// Center is the only cell that is its own rotational partner.
	Center = Cells / 2

	// Blank is the letter of an empty cell.
	Blank = " "
)

// Cell is a single square of the board.
type Cell struct {
	Black  bool   `json:"black"`
	Number int    `json:"number,omitempty"` // 0 when the cell starts no entry
	Across int    `json:"across,omitempty"` // number of the across entry containing the cell
	Down   int    `json:"down,omitempty"`   // number of the down entry containing the cell
	Letter string `json:"letter"`
}

// Board is the full grid in row-major order. Copying a Board copies every cell.
type Board [Cells]Cell

func newBoard() Board {
	var b Board
	for i := range b {
		b[i].Letter = Blank
	}
	return b
}

// Row returns the row of cell id.
func Row(id int) int { return id / Size }

// Col returns the column of cell id.
func Col(id int) int { return id % Size }

// Index returns the cell at row, col.
func Index(row, col int) int { return row*Size + col }

// Partner returns the cell that mirrors id under 180° rotation.
func Partner(id int) int { return Cells - 1 - id }

func checkCell(id int) error {
	if id < 0 || id >= Cells {
		return fmt.Errorf("%w: %d", ErrCellRange, id)
	}
	return nil
}

// Mode is the editor input mode.
type Mode int

const (
	// Color edits blocking with the pointer.
	Color Mode = iota
	// Words selects cells for letter entry.
	Words
)

func (m Mode) String() string {
	switch m {
	case Color:
		return "Color"
	case Words:
		return "Words"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts "Color" or "Words" (any case) to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "color":
		return Color, nil
	case "words":
		return Words, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrMode, s)
}

// MarshalText encodes m as its String form.
func (m Mode) MarshalText() ([]byte, error) {
	if m != Color && m != Words {
		return nil, fmt.Errorf("%w: %d", ErrMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name as accepted by ParseMode.
func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Direction is the cursor direction used after a letter is typed.
type Direction int

const (
	// Across moves the cursor along the row.
	Across Direction = iota
	// Down moves the cursor along the column.
	Down
)

func (d Direction) String() string {
	switch d {
	case Across:
		return "across"
	case Down:
		return "down"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection converts "across" or "down" (any case) to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "across":
		return Across, nil
	case "down":
		return Down, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrDirection, s)
}

// MarshalText encodes d as "across" or "down".
func (d Direction) MarshalText() ([]byte, error) {
	if d != Across && d != Down {
		return nil, fmt.Errorf("%w: %d", ErrDirection, int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name as accepted by ParseDirection.
func (d *Direction) UnmarshalText(text []byte) error {
	v, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
