package xlcalc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- Primitive Tests ---

func TestNumberExpr_Idempotent(t *testing.T) {
	n := NumberExpr{Value: 2.5}
	assert.Equal(t, n, n.Simplify())
	assert.Equal(t, n.Simplify(), n.Simplify().Simplify())
	assert.Equal(t, "2.5", n.String())
}

func TestStringExpr_Idempotent(t *testing.T) {
	s := StringExpr{Text: "hello"}
	assert.Equal(t, s, s.Simplify())
	assert.Equal(t, "hello", s.String())
}

func TestErrorExpr_Simplify(t *testing.T) {
	raw := ErrorExpr{Text: "=REF(A1"}
	assert.Equal(t, "=REF(A1", raw.String())
	assert.Equal(t, StringExpr{Text: CodeError}, raw.Simplify())

	code := errorCode(CodeDivZero)
	assert.Equal(t, CodeDivZero, code.String())
	assert.Equal(t, StringExpr{Text: CodeDivZero}, code.Simplify())
	assert.Equal(t, code.Simplify(), code.Simplify().Simplify())

	typed := ErrorExpr{Text: CodeDivZero}
	assert.Equal(t, StringExpr{Text: CodeError}, typed.Simplify())
}

// --- FormatNumber Tests ---

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{6, "6"},
		{-10, "-10"},
		{0.5, "0.5"},
		{167.28, "167.28"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{123456789012345680000, "123456789012345680000"},
		{math.Inf(1), "Infinity"},
		{math.NaN(), "NaN"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatNumber(c.in), c.want)
	}
}

func TestRoundSignificant(t *testing.T) {
	assert.Equal(t, 167.28, roundSignificant(12.3*13.6))
	assert.Equal(t, 0.3, roundSignificant(0.1+0.2))
	assert.Equal(t, -11.0, roundSignificant(-1.2-2.3-3.5-4))
}

func TestParseNumeric(t *testing.T) {
	for _, s := range []string{"1", "-2.5", "+3", ".5", "1e3", "2.", "1E-2"} {
		_, ok := parseNumeric(s)
		assert.True(t, ok, s)
	}
	for _, s := range []string{"", "abc", "1,000", "0x10", "Infinity", "1e", "--1"} {
		_, ok := parseNumeric(s)
		assert.False(t, ok, s)
	}
}

func TestErrorCodes(t *testing.T) {
	for _, code := range ErrorCodes() {
		assert.True(t, IsErrorCode(code), code)
	}
	assert.Len(t, ErrorCodes(), 7)
	assert.False(t, IsErrorCode("#NULL"))
	assert.False(t, IsErrorCode(""))
}
