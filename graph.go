package xlcalc

import "slices"

// CellID is the stable identity of a cell within its sheet's arena.
// Positions change under row and column edits; ids never do.
type CellID int

type idSet map[CellID]struct{}

func (s idSet) add(id CellID)    { s[id] = struct{}{} }
func (s idSet) remove(id CellID) { delete(s, id) }

func (s idSet) has(id CellID) bool {
	_, ok := s[id]
	return ok
}

func (s idSet) sorted() []CellID {
	ids := make([]CellID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// graph is the per-sheet arena of cells and their dependency edges.
// An edge a→b means a observes b: b is in a.observing and a is in b.observers.
type graph struct {
	cells     map[CellID]*Cell
	next      CellID
	listeners []CellListener
}

func newGraph(listeners []CellListener) *graph {
	return &graph{
		cells:     make(map[CellID]*Cell),
		listeners: listeners,
	}
}

func (g *graph) newCell(pos Position) *Cell {
	c := &Cell{
		id:        g.next,
		pos:       pos,
		value:     StringExpr{},
		observing: make(idSet),
		observers: make(idSet),
		graph:     g,
	}
	g.next++
	g.cells[c.id] = c
	return c
}

func (g *graph) cell(id CellID) *Cell {
	return g.cells[id]
}

// attach records that from observes to.
func (g *graph) attach(from, to *Cell) {
	from.observing.add(to.id)
	to.observers.add(from.id)
}

// detach removes every observing edge of c. Its observers are untouched.
func (g *graph) detach(c *Cell) {
	for id := range c.observing {
		if dep := g.cells[id]; dep != nil {
			dep.observers.remove(c.id)
		}
	}
	clear(c.observing)
}

// detachAll removes every edge of the arena.
func (g *graph) detachAll() {
	for _, c := range g.cells {
		clear(c.observing)
		clear(c.observers)
	}
}

// remove drops c from the arena after tearing down all of its edges.
func (g *graph) remove(c *Cell) {
	g.detach(c)
	for id := range c.observers {
		if o := g.cells[id]; o != nil {
			o.observing.remove(c.id)
		}
	}
	clear(c.observers)
	delete(g.cells, c.id)
	c.graph = nil
}

// reaches reports whether target is reachable from start by following
// observing edges.
func (g *graph) reaches(start, target CellID) bool {
	seen := make(idSet)
	stack := []CellID{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		if seen.has(id) {
			continue
		}
		seen.add(id)
		if c := g.cells[id]; c != nil {
			for dep := range c.observing {
				stack = append(stack, dep)
			}
		}
	}
	return false
}

// len returns the number of live cells in the arena.
func (g *graph) len() int {
	return len(g.cells)
}
