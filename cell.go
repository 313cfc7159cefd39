package xlcalc

// Cell holds one expression, its cached display, style flags and its
// dependency edges. Cells are created and positioned by their Sheet.
type Cell struct {
	id      CellID
	pos     Position
	value   Expression
	display string

	bold      bool
	italic    bool
	underline bool

	observing idSet // cells this cell reads
	observers idSet // cells reading this cell
	listeners []CellListener
	graph     *graph

	updating bool // guards against re-entering a recompute wave
}

// ID returns the stable identity of the cell.
func (c *Cell) ID() CellID { return c.id }

// Position returns the cell's current coordinates.
func (c *Cell) Position() Position { return c.pos }

// Value returns the cell's expression, its true value.
func (c *Cell) Value() Expression { return c.value }

// Display returns the evaluated text of the cell.
func (c *Cell) Display() string { return c.display }

// Kind returns the kind of the cell's expression.
func (c *Cell) Kind() Kind {
	switch c.value.(type) {
	case NumberExpr:
		return KindNumber
	case ReferenceExpr:
		return KindReference
	case RangeExpr:
		return KindRange
	case FunctionExpr:
		return KindFunction
	case ErrorExpr:
		return KindError
	}
	return KindString
}

func (c *Cell) Bold() bool      { return c.bold }
func (c *Cell) Italic() bool    { return c.italic }
func (c *Cell) Underline() bool { return c.underline }

func (c *Cell) SetBold(v bool)      { c.bold = v }
func (c *Cell) SetItalic(v bool)    { c.italic = v }
func (c *Cell) SetUnderline(v bool) { c.underline = v }

// Observing returns the ids of the cells this cell depends on, in id order.
func (c *Cell) Observing() []CellID { return c.observing.sorted() }

// Observers returns the ids of the cells depending on this cell, in id order.
func (c *Cell) Observers() []CellID { return c.observers.sorted() }

// IsObserving reports whether c depends directly on other.
func (c *Cell) IsObserving(other *Cell) bool { return c.observing.has(other.id) }

// AddListener registers a listener notified whenever the display is recomputed.
func (c *Cell) AddListener(l CellListener) {
	c.listeners = append(c.listeners, l)
}

// Clear resets the cell to an empty string and drops its dependencies.
// Cells observing this one stay attached and are recomputed.
func (c *Cell) Clear() {
	c.value = StringExpr{}
	if c.graph != nil {
		c.graph.detach(c)
	}
	c.refresh()
}

// assign stores a new expression and starts a recompute wave.
func (c *Cell) assign(e Expression) {
	c.value = e
	c.refresh()
}

// refresh recomputes the display and notifies observers. A cell already
// being recomputed further up the wave is skipped.
func (c *Cell) refresh() {
	if c.updating {
		return
	}
	c.updating = true
	defer func() { c.updating = false }()

	c.display = c.value.Simplify().String()
	c.notify()
}

func (c *Cell) notify() {
	for _, l := range c.listeners {
		l.CellChanged(c)
	}
	if c.graph == nil {
		return
	}
	for _, l := range c.graph.listeners {
		l.CellChanged(c)
	}
	for _, id := range c.observers.sorted() {
		if o := c.graph.cell(id); o != nil {
			o.refresh()
		}
	}
}
