package xlcalc

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

// Operator is a custom function made available to evaluated expressions.
type Operator func(args ...any) (any, error)

// ResultKind tags the outcome of an evaluation.
type ResultKind int

const (
	ResultValue ResultKind = iota
	ResultError
	ResultNull
)

// Result is the tagged outcome of Evaluator.Evaluate.
type Result struct {
	Kind  ResultKind
	Value any    // set for ResultValue
	Code  string // error code, set for ResultError
}

func valueResult(v any) Result       { return Result{Kind: ResultValue, Value: v} }
func errorResult(code string) Result { return Result{Kind: ResultError, Code: code} }

// Evaluator computes normalized infix expressions such as `(v0 + 2.0) * 3.0`
// or `CONCAT("a", v1)`. Variables named in the expression are read from env.
type Evaluator interface {
	Evaluate(expression string, env map[string]any, operators map[string]Operator) Result
}

// exprEvaluator implements Evaluator using expr-lang/expr.
type exprEvaluator struct {
	cache sync.Map // expression + variable types + operator names → compiled *vm.Program
}

// NewEvaluator creates an Evaluator backed by expr-lang/expr.
// Syntax errors map to #ERROR!, type errors to #NAME?, division by zero to
// #DIV/0! and other runtime failures, overflow included, to #VALUE!.
func NewEvaluator() Evaluator {
	return &exprEvaluator{}
}

func (e *exprEvaluator) Evaluate(expression string, env map[string]any, operators map[string]Operator) Result {
	if strings.TrimSpace(expression) == "" {
		return Result{Kind: ResultNull}
	}
	if _, err := parser.Parse(expression); err != nil {
		return errorResult(CodeError)
	}
	program, err := e.compile(expression, env, operators)
	if err != nil {
		return errorResult(CodeName)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return errorResult(runtimeCode(err))
	}
	switch v := out.(type) {
	case nil:
		return Result{Kind: ResultNull}
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return errorResult(CodeValue)
		}
	case bool:
		return errorResult(CodeValue)
	}
	return valueResult(out)
}

// compile returns the program for expression, compiled against the types
// of env. Programs are cached by expression shape, so values that change
// between calls must be passed as variables rather than rendered inline.
func (e *exprEvaluator) compile(expression string, env map[string]any, operators map[string]Operator) (*vm.Program, error) {
	names := make([]string, 0, len(operators))
	for name := range operators {
		names = append(names, name)
	}
	slices.Sort(names)
	key := expression + "\x00" + envSignature(env) + "\x00" + strings.Join(names, ",")

	if cached, ok := e.cache.Load(key); ok {
		return cached.(*vm.Program), nil
	}
	opts := []expr.Option{
		expr.DisableAllBuiltins(),
		expr.Optimize(false),
		expr.Function(divideName, divide, new(func(float64, float64) float64)),
		expr.Operator("/", divideName),
	}
	if env != nil {
		opts = append(opts, expr.Env(env))
	}
	for _, name := range names {
		opts = append(opts, expr.Function(name, operators[name]))
	}
	program, err := expr.Compile(expression, opts...)
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", expression, err)
	}
	e.cache.Store(key, program)
	return program, nil
}

func envSignature(env map[string]any) string {
	vars := make([]string, 0, len(env))
	for name, v := range env {
		vars = append(vars, fmt.Sprintf("%s:%T", name, v))
	}
	slices.Sort(vars)
	return strings.Join(vars, ",")
}

const divideName = "divide"

var errDivideByZero = errors.New("divide by zero")

// divide replaces float division so that a zero divisor fails instead of
// producing an infinity.
func divide(args ...any) (any, error) {
	a, _ := args[0].(float64)
	b, _ := args[1].(float64)
	if b == 0 {
		return nil, errDivideByZero
	}
	return a / b, nil
}

func runtimeCode(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "divide by zero"), strings.Contains(msg, "division by zero"):
		return CodeDivZero
	case strings.Contains(msg, "invalid operation"), strings.Contains(msg, "mismatched types"):
		return CodeName
	}
	return CodeValue
}

// concatOperator joins string arguments. Any other argument type is an error.
func concatOperator(args ...any) (any, error) {
	var b strings.Builder
	for i, a := range args {
		s, ok := a.(string)
		if !ok {
			return nil, fmt.Errorf("CONCAT argument %d is %T, expected string", i+1, a)
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// defaultOperators is the operator table handed to the evaluator by formulas.
var defaultOperators = map[string]Operator{
	"CONCAT": concatOperator,
}
