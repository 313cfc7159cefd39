package xlcalc

import (
	"fmt"
	"strings"
)

// Describe returns a human-readable listing of the sheet: its size, then
// every non-blank cell with its kind, raw value, display and dependencies.
// Useful for debugging formulas during development.
func (s *Sheet) Describe() string {
	rows, cols := s.Size()
	var b strings.Builder
	fmt.Fprintf(&b, "Sheet %q (%dx%d)\n", s.title, rows, cols)

	for _, cell := range s.cells() {
		raw := cell.Value().String()
		if raw == "" && len(cell.observers) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s %s %q", cell.pos, cell.Kind(), raw)
		if d := cell.Display(); d != raw {
			fmt.Fprintf(&b, " = %q", d)
		}
		b.WriteByte('\n')
		if deps := s.names(cell.Observing()); len(deps) > 0 {
			fmt.Fprintf(&b, "    reads: %s\n", strings.Join(deps, ", "))
		}
		if obs := s.names(cell.Observers()); len(obs) > 0 {
			fmt.Fprintf(&b, "    read by: %s\n", strings.Join(obs, ", "))
		}
	}
	return b.String()
}

func (s *Sheet) names(ids []CellID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if c := s.graph.cell(id); c != nil {
			out = append(out, c.pos.String())
		}
	}
	return out
}
