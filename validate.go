package xlcalc

import (
	"fmt"
	"strings"
)

// Severity indicates the severity of an issue found in a sheet.
type Severity int

const (
	SeverityError   Severity = iota // Cell displays an error code
	SeverityWarning                 // Formula may produce unexpected results
)

// Issue represents a single problem found by Sheet.Validate.
type Issue struct {
	Severity Severity
	Position Position
	Message  string
}

// String formats the issue as "[ERROR] A2: message" or "[WARN] ...".
func (i Issue) String() string {
	sev := "ERROR"
	if i.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s", sev, i.Position, i.Message)
}

// Validate inspects every cell and reports error displays and formulas that
// read blank cells. Issues are listed in grid order.
func (s *Sheet) Validate() []Issue {
	var issues []Issue
	for _, cell := range s.cells() {
		issues = append(issues, s.validateDisplay(cell)...)
		issues = append(issues, s.validateInputs(cell)...)
	}
	return issues
}

// validateDisplay reports cells whose display is an error code.
func (s *Sheet) validateDisplay(cell *Cell) []Issue {
	d := cell.Display()
	if !IsErrorCode(d) {
		return nil
	}
	msg := fmt.Sprintf("%s evaluates to %s", cell.Kind(), d)
	if raw := cell.Value().String(); raw != d {
		msg = fmt.Sprintf("%q evaluates to %s", raw, d)
	}
	return []Issue{{Severity: SeverityError, Position: cell.pos, Message: msg}}
}

// validateInputs warns about formulas reading blank cells, which count as 0.
func (s *Sheet) validateInputs(cell *Cell) []Issue {
	if k := cell.Kind(); k != KindReference && k != KindFunction {
		return nil
	}
	var blank []string
	for _, id := range cell.Observing() {
		dep := s.graph.cell(id)
		if dep != nil && strings.TrimSpace(dep.Display()) == "" {
			blank = append(blank, dep.pos.String())
		}
	}
	if len(blank) == 0 {
		return nil
	}
	return []Issue{{
		Severity: SeverityWarning,
		Position: cell.pos,
		Message:  fmt.Sprintf("reads blank cells %s", strings.Join(blank, ", ")),
	}}
}
