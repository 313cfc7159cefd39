package xlcalc

import (
	"errors"
	"fmt"
)

var (
	errOutsideGrid = errors.New("reference outside the sheet")
	errCircular    = errors.New("circular reference")
)

// Sheet is a rectangular grid of cells with a dependency graph.
// A Sheet is not safe for concurrent use.
type Sheet struct {
	title string
	grid  [][]*Cell
	graph *graph
	opts  *Options
}

// NewSheet creates an empty sheet. Its size must lie within the configured
// bounds (default: 10x10 within 150x26).
func NewSheet(opts ...Option) (*Sheet, error) {
	return newSheet(buildOptions(opts))
}

func newSheet(o *Options) (*Sheet, error) {
	if o.maxRows < 1 || o.maxCols < 1 {
		return nil, fmt.Errorf("bounds %dx%d: %w", o.maxRows, o.maxCols, ErrInvalidSize)
	}
	if o.rows < 1 || o.rows > o.maxRows || o.cols < 1 || o.cols > o.maxCols {
		return nil, fmt.Errorf("size %dx%d outside 1x1..%dx%d: %w", o.rows, o.cols, o.maxRows, o.maxCols, ErrInvalidSize)
	}
	s := &Sheet{
		title: o.title,
		graph: newGraph(o.listeners),
		opts:  o,
	}
	s.grid = make([][]*Cell, o.rows)
	for r := range s.grid {
		s.grid[r] = make([]*Cell, o.cols)
		for c := range s.grid[r] {
			s.grid[r][c] = s.graph.newCell(Position{Row: r, Col: c})
		}
	}
	return s, nil
}

// Title returns the sheet title.
func (s *Sheet) Title() string { return s.title }

// SetTitle renames the sheet.
func (s *Sheet) SetTitle(title string) { s.title = title }

// Size returns the number of rows and columns.
func (s *Sheet) Size() (rows, cols int) {
	if len(s.grid) == 0 {
		return 0, 0
	}
	return len(s.grid), len(s.grid[0])
}

// GetCellGrid returns the live grid, indexed [row][col].
func (s *Sheet) GetCellGrid() [][]*Cell { return s.grid }

// GetCell returns the cell at row, col. Outside the grid it returns a
// detached cell whose value is the #OUTOFRANGE! error.
func (s *Sheet) GetCell(row, col int) *Cell {
	pos := Position{Row: row, Col: col}
	if !s.contains(pos) {
		return &Cell{
			id:        -1,
			pos:       pos,
			value:     errorCode(CodeOutOfRange),
			display:   CodeOutOfRange,
			observing: make(idSet),
			observers: make(idSet),
		}
	}
	return s.grid[row][col]
}

// CellByID returns the live cell with the given id, or nil.
func (s *Sheet) CellByID(id CellID) *Cell {
	return s.graph.cell(id)
}

func (s *Sheet) contains(p Position) bool {
	rows, cols := s.Size()
	return p.Row >= 0 && p.Row < rows && p.Col >= 0 && p.Col < cols
}

// SetCellValue classifies raw, rewires the cell's dependencies and
// recomputes it and everything observing it. Formula problems never fail:
// they show up as the cell's display. The only error is a position outside
// the grid.
func (s *Sheet) SetCellValue(pos Position, raw string) error {
	if !s.contains(pos) {
		return fmt.Errorf("set %s: %w", pos, ErrPositionOutOfRange)
	}
	cell := s.grid[pos.Row][pos.Col]
	s.graph.detach(cell)
	cell.assign(s.build(cell, raw))
	return nil
}

// build turns raw into an expression for cell, attaching the new edges.
// Malformed formulas and rejected references leave the cell without edges,
// holding the raw text as an error.
func (s *Sheet) build(cell *Cell, raw string) Expression {
	p := classify(raw)
	switch p.kind {
	case KindNumber:
		return NumberExpr{Value: p.number}
	case KindString:
		return StringExpr{Text: raw}
	case KindError:
		return ErrorExpr{Text: raw}
	}

	terms, deps, err := s.resolve(p.tokens)
	if err == nil {
		err = s.checkCycle(cell, deps)
	}
	if err != nil {
		s.opts.logger.Printf("sheet %q: reject %s = %q: %v", s.title, cell.pos, raw, err)
		return ErrorExpr{Text: raw}
	}
	for _, dep := range deps {
		s.graph.attach(cell, dep)
	}

	switch p.kind {
	case KindReference:
		return ReferenceExpr{raw: raw, target: terms[0].cell}
	case KindRange:
		rng := *terms[0].rng
		rng.raw = raw
		return rng
	case KindFunction:
		return FunctionExpr{raw: raw, terms: terms, eval: s.opts.evaluator}
	}
	return ErrorExpr{Text: raw}
}

// resolve binds reference tokens to cells. It returns the bound terms and
// the distinct dependencies in first-seen order.
func (s *Sheet) resolve(tokens []token) ([]term, []*Cell, error) {
	terms := make([]term, len(tokens))
	var deps []*Cell
	seen := make(idSet)
	add := func(c *Cell) {
		if !seen.has(c.id) {
			seen.add(c.id)
			deps = append(deps, c)
		}
	}

	for i, t := range tokens {
		terms[i].tok = t
		switch t.kind {
		case tokenCell, tokenRef:
			if !s.contains(t.pos) {
				return nil, nil, fmt.Errorf("%s: %w", t.pos, errOutsideGrid)
			}
			c := s.grid[t.pos.Row][t.pos.Col]
			terms[i].cell = c
			add(c)
		case tokenRange:
			rng := s.newRange(t)
			terms[i].rng = &rng
			for _, c := range rng.cells {
				add(c)
			}
		}
	}
	return terms, deps, nil
}

// newRange captures the cells of a range window. A window outside the grid
// or running backwards is invalid; one spanning several rows and columns has
// the wrong shape.
func (s *Sheet) newRange(t token) RangeExpr {
	r := RangeExpr{raw: "=" + t.text, op: t.op, from: t.pos, to: t.end}
	switch {
	case !s.contains(t.pos) || !s.contains(t.end):
		r.code = CodeInvalidRange
	case t.end.Row < t.pos.Row || t.end.Col < t.pos.Col:
		r.code = CodeInvalidRange
	case t.end.Row != t.pos.Row && t.end.Col != t.pos.Col:
		r.code = CodeRangeShape
	default:
		for row := t.pos.Row; row <= t.end.Row; row++ {
			for col := t.pos.Col; col <= t.end.Col; col++ {
				r.cells = append(r.cells, s.grid[row][col])
			}
		}
	}
	return r
}

// checkCycle rejects dependencies that include target or lead back to it.
func (s *Sheet) checkCycle(target *Cell, deps []*Cell) error {
	for _, dep := range deps {
		if dep.id == target.id {
			return fmt.Errorf("%s refers to itself: %w", target.pos, errCircular)
		}
		var loops bool
		switch s.opts.cycleCheck {
		case CycleCheckOneHop:
			loops = dep.observing.has(target.id)
		default:
			loops = s.graph.reaches(dep.id, target.id)
		}
		if loops {
			return fmt.Errorf("%s leads back to %s: %w", dep.pos, target.pos, errCircular)
		}
	}
	return nil
}

// cells returns every cell in grid order.
func (s *Sheet) cells() []*Cell {
	rows, cols := s.Size()
	out := make([]*Cell, 0, rows*cols)
	for _, row := range s.grid {
		out = append(out, row...)
	}
	return out
}
