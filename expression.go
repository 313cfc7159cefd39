package xlcalc

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Expression is the value held by a cell.
// Simplify returns the fully evaluated form; String renders the expression
// as text. A cell's display is always Simplify().String().
type Expression interface {
	Simplify() Expression
	String() string
}

// NumberExpr is a numeric literal.
type NumberExpr struct {
	Value float64
}

func (n NumberExpr) Simplify() Expression { return n }
func (n NumberExpr) String() string       { return FormatNumber(n.Value) }

// StringExpr is a text literal, possibly empty.
type StringExpr struct {
	Text string
}

func (s StringExpr) Simplify() Expression { return s }
func (s StringExpr) String() string       { return s.Text }

// ErrorExpr holds either an error code raised by evaluation or the raw text
// of a rejected input. Raised codes simplify to themselves; raw text, even
// text spelling a code, simplifies to #ERROR!.
type ErrorExpr struct {
	Text   string
	raised bool
}

// errorCode returns the error expression raised for code.
func errorCode(code string) ErrorExpr {
	return ErrorExpr{Text: code, raised: true}
}

func (e ErrorExpr) Simplify() Expression {
	if e.raised && IsErrorCode(e.Text) {
		return StringExpr{Text: e.Text}
	}
	return StringExpr{Text: CodeError}
}

func (e ErrorExpr) String() string { return e.Text }

// ReferenceExpr is =REF(A1). It reads the target's display on every simplification.
type ReferenceExpr struct {
	raw    string
	target *Cell
}

// Target returns the referenced cell.
func (r ReferenceExpr) Target() *Cell { return r.target }

func (r ReferenceExpr) Simplify() Expression {
	return StringExpr{Text: r.target.Display()}
}

func (r ReferenceExpr) String() string { return r.raw }

// RangeExpr is =SUM(A1..A3) or =AVG(A1..A3) over a single row or column.
type RangeExpr struct {
	raw   string
	op    RangeOp
	from  Position
	to    Position
	cells []*Cell
	code  string // set when the window itself is invalid
}

// Op returns the aggregate of the range.
func (r RangeExpr) Op() RangeOp { return r.op }

// Cells returns the cells captured by the range, in window order.
func (r RangeExpr) Cells() []*Cell { return r.cells }

// Bounds returns the first and last position of the window.
func (r RangeExpr) Bounds() (Position, Position) { return r.from, r.to }

func (r RangeExpr) Simplify() Expression {
	if r.code != "" {
		return errorCode(r.code)
	}
	if len(r.cells) == 0 {
		return errorCode(CodeInvalidRange)
	}
	sum := 0.0
	for _, c := range r.cells {
		d := strings.TrimSpace(c.Display())
		if d == "" {
			continue
		}
		v, ok := parseNumeric(d)
		if !ok {
			return errorCode(CodeInvalidRange)
		}
		sum += v
	}
	if r.op == OpAvg {
		sum /= float64(len(r.cells))
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return errorCode(CodeInvalidRange)
	}
	return NumberExpr{Value: roundSignificant(sum)}
}

func (r RangeExpr) String() string { return r.raw }

var numericPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// parseNumeric converts a display string to a number the way a range reads it.
func parseNumeric(s string) (float64, bool) {
	if !numericPattern.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatNumber renders a number in its shortest round-trip decimal form.
// Magnitudes of 1e21 and above, or below 1e-6, use exponent notation.
func FormatNumber(v float64) string {
	switch {
	case v == 0:
		return "0"
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	abs := math.Abs(v)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(v, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// roundSignificant rounds to 15 significant digits, hiding binary noise
// such as 12.3*13.6 = 167.28000000000003.
func roundSignificant(v float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 15, 64), 64)
	if err != nil {
		return v
	}
	return r
}
