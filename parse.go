package xlcalc

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind is the classification of a raw cell input.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindReference
	KindRange
	KindFunction
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindReference:
		return "reference"
	case KindRange:
		return "range"
	case KindFunction:
		return "function"
	case KindError:
		return "error"
	}
	return "string"
}

var numberPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// parsed is the typed result of classifying a raw input.
type parsed struct {
	kind   Kind
	number float64
	tokens []token // tokens of the formula body
}

// Classify reports how a raw input will be interpreted when assigned to a cell.
func Classify(raw string) Kind {
	return classify(raw).kind
}

// classify applies the input grammars in precedence order:
// error injection, range, reference, function, malformed formula,
// number, and finally plain string.
func classify(raw string) parsed {
	var p parsed
	switch {
	case strings.HasPrefix(raw, "#"):
		p.kind = KindError
		return p
	case strings.HasPrefix(raw, "="):
		p.tokens = tokenize(raw[1:])
		p.kind = classifyFormula(raw, p.tokens)
		return p
	case numberPattern.MatchString(raw):
		v, err := strconv.ParseFloat(raw, 64)
		if err == nil {
			p.kind = KindNumber
			p.number = v
			return p
		}
	}
	p.kind = KindString
	return p
}

func classifyFormula(raw string, tokens []token) Kind {
	if len(tokens) == 1 && !tokens[0].space && tokens[0].text == raw[1:] {
		switch tokens[0].kind {
		case tokenRange:
			return KindRange
		case tokenRef:
			return KindReference
		}
	}
	if len(raw) > 3 && raw[1] == '(' && raw[len(raw)-1] == ')' {
		return KindFunction
	}
	return KindError
}
