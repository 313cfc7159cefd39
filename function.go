package xlcalc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// term is a formula token bound to the sheet: cell and REF tokens carry
// their target cell, range tokens their range expression.
type term struct {
	tok  token
	cell *Cell
	rng  *RangeExpr
}

// FunctionExpr is a composite formula such as =(REF(A1) * 2 + SUM(B1..B3)).
// Simplifying it resolves the terms against live displays and evaluates the
// result. The simplified form is a resolved FunctionExpr over the literal
// result, and simplifies to itself.
type FunctionExpr struct {
	raw      string
	terms    []term
	eval     Evaluator
	resolved bool
}

func (f FunctionExpr) String() string { return f.raw }

func (f FunctionExpr) Simplify() (result Expression) {
	if f.resolved {
		return f
	}
	defer func() {
		if r := recover(); r != nil {
			result = errorCode(CodeName)
		}
	}()

	ops, code := f.substitute()
	if code != "" {
		return errorCode(code)
	}
	ops = stripOuterParens(ops)
	if len(ops) == 0 {
		return errorCode(CodeError)
	}

	var src string
	env := make(map[string]any)
	if args, ok := concatParts(ops); ok {
		rendered := make([]string, len(args))
		for i, a := range args {
			rendered[i] = renderOperand(a, env)
		}
		src = "CONCAT(" + strings.Join(rendered, ", ") + ")"
	} else if mixedOperands(ops) {
		return errorCode(CodeError)
	} else {
		src = render(ops, env)
	}

	res := f.eval.Evaluate(src, env, defaultOperators)
	switch res.Kind {
	case ResultError:
		return errorCode(res.Code)
	case ResultNull:
		return errorCode(CodeName)
	}
	return FunctionExpr{raw: formatResult(res.Value), resolved: true}
}

func formatResult(v any) string {
	switch n := v.(type) {
	case float64:
		return FormatNumber(roundSignificant(n))
	case int:
		return strconv.Itoa(n)
	case string:
		return n
	}
	return fmt.Sprint(v)
}

// operand is a term after substitution of live values. Operands read from
// cells or ranges are marked ref and are passed to the evaluator as variables.
type operand struct {
	kind tokenKind // tokenNumber, tokenString, tokenIdent, tokenOperator or a parenthesis
	num  float64
	text string
	ref  bool
}

// substitute replaces references with the live values they read.
// A non-empty code aborts evaluation with that error.
func (f FunctionExpr) substitute() ([]operand, string) {
	for _, t := range f.terms {
		if t.tok.kind == tokenIllegal {
			return nil, CodeError
		}
	}

	ops := make([]operand, 0, len(f.terms))
	for i, t := range f.terms {
		switch t.tok.kind {
		case tokenNumber:
			v, err := strconv.ParseFloat(t.tok.text, 64)
			if err != nil {
				return nil, CodeError
			}
			ops = append(ops, operand{kind: tokenNumber, num: v})
		case tokenString:
			ops = append(ops, operand{kind: tokenString, text: t.tok.text})
		case tokenIdent:
			if i+1 < len(f.terms) && f.terms[i+1].tok.kind == tokenLParen {
				return nil, CodeName
			}
			ops = append(ops, operand{kind: tokenIdent, text: t.tok.text})
		case tokenCell, tokenRef:
			op, code := displayOperand(t.cell.Display())
			if code != "" {
				return nil, code
			}
			op.ref = true
			ops = append(ops, op)
		case tokenRange:
			switch v := t.rng.Simplify().(type) {
			case NumberExpr:
				ops = append(ops, operand{kind: tokenNumber, num: v.Value, ref: true})
			case ErrorExpr:
				return nil, v.Text
			default:
				return nil, CodeError
			}
		default:
			ops = append(ops, operand{kind: t.tok.kind, text: t.tok.text})
		}
	}
	return ops, ""
}

var (
	quotedLiteral = regexp.MustCompile(`^"[^"]*"$`)
	wordsLiteral  = regexp.MustCompile(`^[A-Za-z]+( +[A-Za-z]+)*$`)
)

// displayOperand converts a referenced cell's display into an operand.
// Blank reads as 0, numbers as numbers, and error codes abort the formula.
// Quoted literals and plain words read as text; anything else is malformed.
func displayOperand(d string) (operand, string) {
	trimmed := strings.TrimSpace(d)
	switch {
	case trimmed == "":
		return operand{kind: tokenNumber}, ""
	case IsErrorCode(trimmed):
		return operand{}, trimmed
	case quotedLiteral.MatchString(trimmed):
		return operand{kind: tokenString, text: trimmed[1 : len(trimmed)-1]}, ""
	case wordsLiteral.MatchString(trimmed):
		return operand{kind: tokenString, text: trimmed}, ""
	}
	if v, ok := parseNumeric(trimmed); ok {
		return operand{kind: tokenNumber, num: v}, ""
	}
	return operand{}, CodeError
}

// stripOuterParens removes one pair of parentheses enclosing the whole body.
func stripOuterParens(ops []operand) []operand {
	if len(ops) < 2 || ops[0].kind != tokenLParen || ops[len(ops)-1].kind != tokenRParen {
		return ops
	}
	depth := 0
	for i, op := range ops {
		switch op.kind {
		case tokenLParen:
			depth++
		case tokenRParen:
			depth--
			if depth == 0 && i != len(ops)-1 {
				return ops
			}
		}
	}
	return ops[1 : len(ops)-1]
}

// splitPlus splits ops at '+' operators outside parentheses.
func splitPlus(ops []operand) [][]operand {
	var parts [][]operand
	depth, start := 0, 0
	for i, op := range ops {
		switch {
		case op.kind == tokenLParen:
			depth++
		case op.kind == tokenRParen:
			depth--
		case op.kind == tokenOperator && op.text == "+" && depth == 0:
			parts = append(parts, ops[start:i])
			start = i + 1
		}
	}
	return append(parts, ops[start:])
}

// textPart returns a part made of a single quoted literal or of one or more
// bare words as one string operand.
func textPart(part []operand) (operand, bool) {
	if len(part) == 1 && part[0].kind == tokenString {
		return part[0], true
	}
	words := make([]string, 0, len(part))
	for _, op := range part {
		if op.kind != tokenIdent {
			return operand{}, false
		}
		words = append(words, op.text)
	}
	return operand{kind: tokenString, text: strings.Join(words, " ")}, len(words) > 0
}

// concatParts detects a '+'-joined sequence of text parts.
func concatParts(ops []operand) ([]operand, bool) {
	parts := splitPlus(ops)
	args := make([]operand, 0, len(parts))
	for _, part := range parts {
		s, ok := textPart(part)
		if !ok {
			return nil, false
		}
		args = append(args, s)
	}
	return args, true
}

// mixedOperands reports a '+'-joined sequence holding both a text part and a
// bare number part.
func mixedOperands(ops []operand) bool {
	text, number := false, false
	for _, part := range splitPlus(ops) {
		if _, ok := textPart(part); ok {
			text = true
		}
		if len(part) == 1 && part[0].kind == tokenNumber {
			number = true
		}
	}
	return text && number
}

// render writes operands as evaluator source, binding referenced values to
// variables in env. Numbers are always floats so that division never
// truncates.
func render(ops []operand, env map[string]any) string {
	var b strings.Builder
	for i, op := range ops {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(renderOperand(op, env))
	}
	return b.String()
}

func renderOperand(op operand, env map[string]any) string {
	switch {
	case op.ref && op.kind == tokenNumber:
		return bind(env, op.num)
	case op.ref && op.kind == tokenString:
		return bind(env, op.text)
	case op.kind == tokenNumber:
		return renderNumber(op.num)
	case op.kind == tokenString, op.kind == tokenIdent:
		return strconv.Quote(op.text)
	}
	return op.text
}

// bind stores v in env under the next free variable name.
func bind(env map[string]any, v any) string {
	name := "v" + strconv.Itoa(len(env))
	env[name] = v
	return name
}

func renderNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	if v < 0 {
		return "(" + s + ")"
	}
	return s
}
