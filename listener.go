package xlcalc

// CellListener is notified after a cell's display has been recomputed,
// whether by a direct assignment or by propagation from a dependency.
// Implement this interface to mirror cell changes into a UI, a log, or any
// other external view of the sheet.
type CellListener interface {
	CellChanged(c *Cell)
}

// CellListenerFunc adapts a function to CellListener.
type CellListenerFunc func(c *Cell)

// CellChanged calls f(c).
func (f CellListenerFunc) CellChanged(c *Cell) { f(c) }
