package grid

func (b *Board) startsAcross(id int) bool {
	return !b[id].Black && (Col(id) == 0 || b[id-1].Black)
}

func (b *Board) startsDown(id int) bool {
	return !b[id].Black && (Row(id) == 0 || b[id-Size].Black)
}

// renumber assigns clue numbers in row-major order and labels every
// non-black cell with the numbers of the across and down entries it
// belongs to. Black cells are cleared.
func (b *Board) renumber() {
	n := 0
	for id := range b {
		c := &b[id]
		c.Number, c.Across, c.Down = 0, 0, 0
		if c.Black {
			continue
		}
		across, down := b.startsAcross(id), b.startsDown(id)
		if across || down {
			n++
			c.Number = n
		}
		// Cells before id are already labelled, so runs extend from the
		// left and upper neighbours.
		if across {
			c.Across = n
		} else {
			c.Across = b[id-1].Across
		}
		if down {
			c.Down = n
		} else {
			c.Down = b[id-Size].Down
		}
	}
}

// Entry is one across or down word slot on the board.
type Entry struct {
	Number    int       `json:"number"`
	Direction Direction `json:"direction"`
	Start     int       `json:"start"`
	Length    int       `json:"length"`
	Fill      string    `json:"fill"` // current letters, Blank for empty cells
}

// entries lists every entry of length two or more, across entries first,
// each group in number order. Numbers reflect the current blocking, whether
// or not the board has been renumbered since.
func (b *Board) entries() []Entry {
	numbered := *b
	numbered.renumber()
	b = &numbered

	var across, down []Entry
	for id := range b {
		if b.startsAcross(id) {
			if e := b.entry(id, Across); e.Length > 1 {
				across = append(across, e)
			}
		}
		if b.startsDown(id) {
			if e := b.entry(id, Down); e.Length > 1 {
				down = append(down, e)
			}
		}
	}
	return append(across, down...)
}

func (b *Board) entry(start int, d Direction) Entry {
	e := Entry{Number: b[start].Number, Direction: d, Start: start}
	delta := 1
	if d == Down {
		delta = Size
	}
	for id := start; id < Cells && !b[id].Black; id += delta {
		e.Fill += b[id].Letter
		e.Length++
		if d == Across && Col(id) == Size-1 {
			break
		}
	}
	return e
}
