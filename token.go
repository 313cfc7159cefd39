package xlcalc

import (
	"strings"
	"unicode/utf8"
)

// tokenKind classifies a lexical token of a formula body.
type tokenKind int

const (
	tokenIllegal  tokenKind = iota // anything the formula grammar cannot express
	tokenNumber                    // 12, 3.5
	tokenString                    // "quoted text", quotes removed
	tokenIdent                     // bare alphabetic word
	tokenCell                      // A1
	tokenRef                       // REF(A1)
	tokenRange                     // SUM(A1..A3), AVG(B2..D2)
	tokenOperator                  // + - * / ^
	tokenLParen
	tokenRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokenNumber:
		return "number"
	case tokenString:
		return "string"
	case tokenIdent:
		return "ident"
	case tokenCell:
		return "cell"
	case tokenRef:
		return "ref"
	case tokenRange:
		return "range"
	case tokenOperator:
		return "operator"
	case tokenLParen:
		return "("
	case tokenRParen:
		return ")"
	}
	return "illegal"
}

// RangeOp is the aggregate applied by a range expression.
type RangeOp string

const (
	OpSum RangeOp = "SUM"
	OpAvg RangeOp = "AVG"
)

// token is one lexeme of a formula body.
type token struct {
	kind  tokenKind
	text  string   // source text, or the unquoted content for strings
	space bool     // whitespace precedes the token
	pos   Position // cell and REF target, first cell of a range
	end   Position // last cell of a range
	op    RangeOp  // range aggregate
}

// tokenize splits a formula body (the text after '=') into tokens.
// It never fails: unrecognized input becomes tokenIllegal.
func tokenize(src string) []token {
	lx := &lexer{src: src}
	for {
		tok, ok := lx.next()
		if !ok {
			return lx.tokens
		}
		lx.tokens = append(lx.tokens, tok)
	}
}

type lexer struct {
	src    string
	i      int
	tokens []token
}

func (lx *lexer) next() (token, bool) {
	space := false
	for lx.i < len(lx.src) && isSpace(lx.src[lx.i]) {
		lx.i++
		space = true
	}
	if lx.i >= len(lx.src) {
		return token{}, false
	}

	start := lx.i
	c := lx.src[lx.i]
	var tok token
	switch {
	case isLetter(c):
		tok = lx.word()
	case isDigit(c):
		tok = lx.number()
	case c == '"':
		tok = lx.quoted()
	case strings.IndexByte("+-*/^", c) >= 0:
		lx.i++
		tok = token{kind: tokenOperator, text: string(c)}
	case c == '(':
		lx.i++
		tok = token{kind: tokenLParen, text: "("}
	case c == ')':
		lx.i++
		tok = token{kind: tokenRParen, text: ")"}
	case c == '.' && strings.HasPrefix(lx.src[lx.i:], ".."):
		lx.i += 2
		tok = token{kind: tokenIllegal, text: ".."}
	default:
		_, w := utf8.DecodeRuneInString(lx.src[lx.i:])
		lx.i += w
		tok = token{kind: tokenIllegal, text: lx.src[start:lx.i]}
	}
	tok.space = space
	return tok, true
}

// word lexes identifiers, cell names and the REF/SUM/AVG call forms.
func (lx *lexer) word() token {
	start := lx.i
	for lx.i < len(lx.src) && isWordByte(lx.src[lx.i]) {
		lx.i++
	}
	w := lx.src[start:lx.i]

	if lx.i < len(lx.src) && lx.src[lx.i] == '(' {
		switch w {
		case "REF":
			return lx.refCall(start)
		case string(OpSum), string(OpAvg):
			return lx.rangeCall(start, RangeOp(w))
		}
	}

	if isCellName(w) {
		pos, err := ParsePosition(w)
		if err != nil {
			return token{kind: tokenIllegal, text: w}
		}
		return token{kind: tokenCell, text: w, pos: pos}
	}
	for i := 0; i < len(w); i++ {
		if !isLetter(w[i]) {
			return token{kind: tokenIllegal, text: w}
		}
	}
	return token{kind: tokenIdent, text: w}
}

// refCall lexes REF(A1). The cursor sits on the opening parenthesis.
func (lx *lexer) refCall(start int) token {
	lx.i++
	pos, ok := lx.cellName()
	if !ok || !lx.accept(')') {
		return token{kind: tokenIllegal, text: lx.src[start:lx.i]}
	}
	return token{kind: tokenRef, text: lx.src[start:lx.i], pos: pos}
}

// rangeCall lexes SUM(A1..A3) and AVG(A1..A3).
func (lx *lexer) rangeCall(start int, op RangeOp) token {
	lx.i++
	from, ok := lx.cellName()
	if !ok || !strings.HasPrefix(lx.src[lx.i:], "..") {
		return token{kind: tokenIllegal, text: lx.src[start:lx.i]}
	}
	lx.i += 2
	to, ok := lx.cellName()
	if !ok || !lx.accept(')') {
		return token{kind: tokenIllegal, text: lx.src[start:lx.i]}
	}
	return token{kind: tokenRange, text: lx.src[start:lx.i], pos: from, end: to, op: op}
}

// cellName consumes an upper-case cell name such as B12.
func (lx *lexer) cellName() (Position, bool) {
	start := lx.i
	for lx.i < len(lx.src) && isUpper(lx.src[lx.i]) {
		lx.i++
	}
	letters := lx.i
	for lx.i < len(lx.src) && isDigit(lx.src[lx.i]) {
		lx.i++
	}
	if letters == start || lx.i == letters {
		return Position{}, false
	}
	pos, err := ParsePosition(lx.src[start:lx.i])
	return pos, err == nil
}

func (lx *lexer) accept(b byte) bool {
	if lx.i < len(lx.src) && lx.src[lx.i] == b {
		lx.i++
		return true
	}
	return false
}

// number lexes \d+(\.\d+)?. Digits running into letters, as in 3002mimen,
// make the whole word illegal.
func (lx *lexer) number() token {
	start := lx.i
	for lx.i < len(lx.src) && isDigit(lx.src[lx.i]) {
		lx.i++
	}
	if lx.i+1 < len(lx.src) && lx.src[lx.i] == '.' && isDigit(lx.src[lx.i+1]) {
		lx.i++
		for lx.i < len(lx.src) && isDigit(lx.src[lx.i]) {
			lx.i++
		}
	}
	if lx.i < len(lx.src) && isWordByte(lx.src[lx.i]) {
		for lx.i < len(lx.src) && isWordByte(lx.src[lx.i]) {
			lx.i++
		}
		return token{kind: tokenIllegal, text: lx.src[start:lx.i]}
	}
	return token{kind: tokenNumber, text: lx.src[start:lx.i]}
}

// quoted lexes a double-quoted literal. There are no escapes.
func (lx *lexer) quoted() token {
	start := lx.i
	end := strings.IndexByte(lx.src[start+1:], '"')
	if end < 0 {
		lx.i = len(lx.src)
		return token{kind: tokenIllegal, text: lx.src[start:]}
	}
	lx.i = start + 1 + end + 1
	text := lx.src[start+1 : lx.i-1]
	if !utf8.ValidString(text) {
		return token{kind: tokenIllegal, text: lx.src[start:lx.i]}
	}
	return token{kind: tokenString, text: text}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isWordByte(b byte) bool {
	return isLetter(b) || isDigit(b) || b == '_'
}

// isCellName reports whether w has the shape [A-Z]+[0-9]+.
func isCellName(w string) bool {
	i := 0
	for i < len(w) && isUpper(w[i]) {
		i++
	}
	if i == 0 || i == len(w) {
		return false
	}
	for ; i < len(w); i++ {
		if !isDigit(w[i]) {
			return false
		}
	}
	return true
}
