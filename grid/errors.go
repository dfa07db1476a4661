package grid

import "errors"

var (
	// ErrCellRange reports a cell index outside [0, Cells).
	ErrCellRange = errors.New("cell index out of range")
	// ErrLetter reports a letter that is not a single cased letter or blank.
	ErrLetter = errors.New("invalid letter")
	// ErrMode reports an unknown input mode.
	ErrMode = errors.New("invalid mode")
	// ErrColorMode reports a cursor operation attempted outside Words mode.
	ErrColorMode = errors.New("no cursor in Color mode")
	// ErrDirection reports an unknown fill direction.
	ErrDirection = errors.New("invalid direction")
	// ErrNoSelection reports a cursor move without a selected cell.
	ErrNoSelection = errors.New("no cell selected")
	// ErrNoTarget reports that every cell is black, so no cell can be selected.
	ErrNoTarget = errors.New("no fillable cell")
)
