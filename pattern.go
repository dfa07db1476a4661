package main

import (
	"encoding/json"
	"fmt"

	"github.com/bodul/xweditor/grid"
)

// PatternCell is one square of an analyzed grid photo.
type PatternCell struct {
	Black bool `json:"black"`
}

// Pattern is the blocking layout extracted from a grid photo.
type Pattern struct {
	Rows  int             `json:"rows"`
	Cols  int             `json:"cols"`
	Cells [][]PatternCell `json:"cells"`
}

// parsePattern decodes the model output and checks its dimensions.
func parsePattern(text string) (*Pattern, error) {
	var p Pattern
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, fmt.Errorf("parse pattern JSON: %w\nraw response: %s", err, text)
	}
	if p.Rows == 0 || p.Cols == 0 || len(p.Cells) == 0 {
		return nil, fmt.Errorf("invalid pattern: %dx%d with %d cell rows", p.Rows, p.Cols, len(p.Cells))
	}
	return &p, nil
}

// Mask converts the pattern to a board mask. Only full-size grids are accepted.
func (p *Pattern) Mask() ([grid.Cells]bool, error) {
	var mask [grid.Cells]bool
	if p.Rows != grid.Size || p.Cols != grid.Size || len(p.Cells) != grid.Size {
		return mask, fmt.Errorf("pattern is %dx%d, want %dx%d", p.Rows, p.Cols, grid.Size, grid.Size)
	}
	for r, row := range p.Cells {
		if len(row) != grid.Size {
			return mask, fmt.Errorf("pattern row %d has %d cells, want %d", r, len(row), grid.Size)
		}
		for c, cell := range row {
			mask[grid.Index(r, c)] = cell.Black
		}
	}
	return mask, nil
}
