package grid

// step moves one cell from id in direction d, wrapping at the grid edges.
// Across walks row-major order and Down walks column-major order, so both
// visit every cell once per Cells steps.
func step(id int, d Direction, forward bool) int {
	if d == Down {
		if forward {
			if id+Size < Cells {
				return id + Size
			}
			return (Col(id) + 1) % Size
		}
		if id-Size >= 0 {
			return id - Size
		}
		return Index(Size-1, (Col(id)+Size-1)%Size)
	}
	if forward {
		return (id + 1) % Cells
	}
	return (id + Cells - 1) % Cells
}

// scan returns the first non-black cell reached from id, id itself last.
func (b *Board) scan(id int, d Direction, forward bool) (int, bool) {
	cur := id
	for range Cells {
		cur = step(cur, d, forward)
		if !b[cur].Black {
			return cur, true
		}
	}
	return 0, false
}

// first returns the lowest-index non-black cell.
func (b *Board) first() (int, bool) {
	for id := range b {
		if !b[id].Black {
			return id, true
		}
	}
	return 0, false
}
