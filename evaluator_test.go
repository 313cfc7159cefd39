package xlcalc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Evaluator Tests ---

func TestEvaluator_Arithmetic(t *testing.T) {
	ev := NewEvaluator()
	res := ev.Evaluate("(1.0 + 2.0) * 3.0", nil, defaultOperators)
	require.Equal(t, ResultValue, res.Kind)
	assert.Equal(t, 9.0, res.Value)
}

func TestEvaluator_Power(t *testing.T) {
	res := NewEvaluator().Evaluate("2.0 ^ 10.0", nil, nil)
	require.Equal(t, ResultValue, res.Kind)
	assert.Equal(t, 1024.0, res.Value)
}

func TestEvaluator_Concat(t *testing.T) {
	res := NewEvaluator().Evaluate(`CONCAT("a", "b", "c")`, nil, defaultOperators)
	require.Equal(t, ResultValue, res.Kind)
	assert.Equal(t, "abc", res.Value)
}

func TestEvaluator_DivideByZero(t *testing.T) {
	res := NewEvaluator().Evaluate("9.0 / 0.0", nil, nil)
	assert.Equal(t, ResultError, res.Kind)
	assert.Equal(t, CodeDivZero, res.Code)
}

func TestEvaluator_ZeroOverZero(t *testing.T) {
	res := NewEvaluator().Evaluate("0.0 / 0.0", nil, nil)
	assert.Equal(t, errorResult(CodeDivZero), res)
}

func TestEvaluator_Overflow(t *testing.T) {
	res := NewEvaluator().Evaluate("2.0 ^ 1024.0", nil, nil)
	assert.Equal(t, errorResult(CodeValue), res)

	res = NewEvaluator().Evaluate("v0 * v0", map[string]any{"v0": 1e200}, nil)
	assert.Equal(t, errorResult(CodeValue), res)
}

func TestEvaluator_Variables(t *testing.T) {
	ev := NewEvaluator()
	res := ev.Evaluate("(v0 + 2.0) / v1", map[string]any{"v0": 4.0, "v1": 3.0}, nil)
	require.Equal(t, ResultValue, res.Kind)
	assert.Equal(t, 2.0, res.Value)

	res = ev.Evaluate("(v0 + 2.0) / v1", map[string]any{"v0": 4.0, "v1": 0.0}, nil)
	assert.Equal(t, errorResult(CodeDivZero), res)

	res = ev.Evaluate("CONCAT(v0, \"!\")", map[string]any{"v0": "hi"}, defaultOperators)
	require.Equal(t, ResultValue, res.Kind)
	assert.Equal(t, "hi!", res.Value)
}

func TestEvaluator_VariableTypes(t *testing.T) {
	ev := &exprEvaluator{}
	res := ev.Evaluate("v0 * 2.0", map[string]any{"v0": 4.0}, nil)
	assert.Equal(t, valueResult(8.0), res)

	res = ev.Evaluate("v0 * 2.0", map[string]any{"v0": "four"}, nil)
	assert.Equal(t, errorResult(CodeName), res)

	res = ev.Evaluate("v0 * 2.0", map[string]any{"v0": 5.0}, nil)
	assert.Equal(t, valueResult(10.0), res)
	assert.Equal(t, 1, cacheLen(ev))
}

func TestEvaluator_CacheKeyedOnShape(t *testing.T) {
	ev := &exprEvaluator{}
	for i := 0; i < 100; i++ {
		res := ev.Evaluate("v0 * 2.0", map[string]any{"v0": float64(i)}, nil)
		require.Equal(t, valueResult(float64(i)*2), res)
	}
	assert.Equal(t, 1, cacheLen(ev))
}

func TestEvaluator_SyntaxError(t *testing.T) {
	res := NewEvaluator().Evaluate("1.0 +", nil, nil)
	assert.Equal(t, errorResult(CodeError), res)
}

func TestEvaluator_StringArithmetic(t *testing.T) {
	res := NewEvaluator().Evaluate(`"dog" - "cat"`, nil, nil)
	assert.Equal(t, errorResult(CodeName), res)
}

func TestEvaluator_Empty(t *testing.T) {
	assert.Equal(t, ResultNull, NewEvaluator().Evaluate("  ", nil, nil).Kind)
}

func TestEvaluator_OperatorError(t *testing.T) {
	ops := map[string]Operator{"CONCAT": concatOperator}
	res := NewEvaluator().Evaluate(`CONCAT("a", 1.0)`, nil, ops)
	assert.Equal(t, ResultError, res.Kind)
}

func TestEvaluator_ConcurrentCache(t *testing.T) {
	ev := NewEvaluator()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := ev.Evaluate("2.0 * 21.0", nil, defaultOperators)
			assert.Equal(t, 42.0, res.Value)
		}()
	}
	wg.Wait()
}

func cacheLen(e *exprEvaluator) int {
	n := 0
	e.cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func TestConcatOperator(t *testing.T) {
	out, err := concatOperator("x", "", "y")
	require.NoError(t, err)
	assert.Equal(t, "xy", out)

	_, err = concatOperator("x", 2)
	assert.Error(t, err)
}
