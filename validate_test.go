package xlcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_CleanSheet(t *testing.T) {
	s := newTestSheet(t)
	set(t, s, "A1", "1")
	set(t, s, "A2", "=REF(A1)")
	set(t, s, "A3", "=SUM(A1..A2)")
	assert.Empty(t, s.Validate())
}

func TestValidate_ReportsIssues(t *testing.T) {
	s := newTestSheet(t, WithSize(3, 3))
	set(t, s, "A1", "1")
	set(t, s, "B1", "=REF(C1)")
	set(t, s, "B2", "=(9/0)")
	set(t, s, "B3", "#DIV/0!")

	issues := s.Validate()
	assert.Equal(t, []Issue{
		{Severity: SeverityWarning, Position: NewPosition(0, 1), Message: "reads blank cells C1"},
		{Severity: SeverityError, Position: NewPosition(1, 1), Message: `"=(9/0)" evaluates to #DIV/0!`},
		{Severity: SeverityError, Position: NewPosition(2, 1), Message: `"#DIV/0!" evaluates to #ERROR!`},
	}, issues)
}

func TestValidate_FunctionReadingBlanks(t *testing.T) {
	s := newTestSheet(t)
	set(t, s, "A1", "2")
	set(t, s, "B1", "=(A1 * C1 + REF(D1))")

	issues := s.Validate()
	if assert.Len(t, issues, 1) {
		assert.Equal(t, "[WARN] B1: reads blank cells C1, D1", issues[0].String())
	}
}

func TestValidate_RejectedInput(t *testing.T) {
	s := newTestSheet(t)
	set(t, s, "A1", "=REF(A1)")

	issues := s.Validate()
	if assert.Len(t, issues, 1) {
		assert.Equal(t, `[ERROR] A1: "=REF(A1)" evaluates to #ERROR!`, issues[0].String())
	}
}
