package xlcalc

import (
	"fmt"
	"slices"
)

// Insert adds a blank row (isRow) or column at index id, 0 ≤ id ≤ extent.
// Every cell then re-applies its raw value, so formulas bind to whatever
// cells now sit at the coordinates they name.
func (s *Sheet) Insert(isRow bool, id int) error {
	rows, cols := s.Size()
	extent, limit := cols, s.opts.maxCols
	if isRow {
		extent, limit = rows, s.opts.maxRows
	}
	if id < 0 || id > extent {
		return indexError(isRow)
	}
	if extent+1 > limit {
		return fmt.Errorf("insert at %d: %w", id, ErrSheetFull)
	}

	if isRow {
		row := make([]*Cell, cols)
		for c := range row {
			row[c] = s.graph.newCell(Position{Row: id, Col: c})
		}
		s.grid = slices.Insert(s.grid, id, row)
	} else {
		for r := range s.grid {
			s.grid[r] = slices.Insert(s.grid[r], id, s.graph.newCell(Position{Row: r, Col: id}))
		}
	}
	s.renumber()
	s.replay()
	return nil
}

// Delete removes the row (isRow) or column at index id, 0 ≤ id < extent.
// Removed cells are cleared first so their dependents recompute, then the
// remaining cells re-apply their raw values.
func (s *Sheet) Delete(isRow bool, id int) error {
	rows, cols := s.Size()
	extent := cols
	if isRow {
		extent = rows
	}
	if id < 0 || id >= extent {
		return indexError(isRow)
	}
	if extent == 1 {
		return fmt.Errorf("delete at %d: %w", id, ErrLastLine)
	}

	var removed []*Cell
	if isRow {
		removed = s.grid[id]
		s.grid = slices.Delete(s.grid, id, id+1)
	} else {
		removed = make([]*Cell, 0, len(s.grid))
		for r := range s.grid {
			removed = append(removed, s.grid[r][id])
			s.grid[r] = slices.Delete(s.grid[r], id, id+1)
		}
	}
	s.renumber()
	for _, c := range removed {
		c.Clear()
	}
	s.replay()
	for _, c := range removed {
		s.graph.remove(c)
	}
	return nil
}

// InsertRow inserts a blank row at index id.
func (s *Sheet) InsertRow(id int) error { return s.Insert(true, id) }

// InsertColumn inserts a blank column at index id.
func (s *Sheet) InsertColumn(id int) error { return s.Insert(false, id) }

// DeleteRow removes the row at index id.
func (s *Sheet) DeleteRow(id int) error { return s.Delete(true, id) }

// DeleteColumn removes the column at index id.
func (s *Sheet) DeleteColumn(id int) error { return s.Delete(false, id) }

// renumber sets every cell's position from its grid slot.
func (s *Sheet) renumber() {
	for r, row := range s.grid {
		for c, cell := range row {
			cell.pos = Position{Row: r, Col: c}
		}
	}
}

// replay drops every edge and re-applies each cell's raw value in grid order.
// Cycle checks during the replay only see edges rebuilt so far.
func (s *Sheet) replay() {
	cells := s.cells()
	raws := make([]string, len(cells))
	for i, c := range cells {
		raws[i] = c.value.String()
	}
	s.graph.detachAll()
	for i, c := range cells {
		if err := s.SetCellValue(c.pos, raws[i]); err != nil {
			s.opts.logger.Printf("sheet %q: replay %s: %v", s.title, c.pos, err)
		}
	}
	s.opts.logger.Printf("sheet %q: replayed %d cells", s.title, len(cells))
}
