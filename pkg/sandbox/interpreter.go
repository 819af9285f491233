// Package sandbox evaluates user-supplied expressions from condition and
// custom blocks as bounded-time pure functions over node data. Expressions
// are compiled once and cached; evaluation has no ambient I/O access and
// runs under a hard wall-clock budget, so a hostile or runaway expression
// cannot stall the run loop.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// DefaultBudget bounds a single evaluation when the caller does not say
// otherwise.
const DefaultBudget = 2 * time.Second

// MaxBudget caps what block configuration may request.
const MaxBudget = 30 * time.Second

// maxExpressionLength rejects absurdly large expressions before they reach
// the compiler.
const maxExpressionLength = 4096

// ErrBudgetExceeded is returned when an evaluation runs past its wall-clock
// budget.
var ErrBudgetExceeded = errors.New("expression evaluation exceeded its time budget")

// Interpreter evaluates expressions against a data document. Compiled
// programs are cached per expression, so repeated runs of the same block
// skip the parser.
type Interpreter struct {
	budget   time.Duration
	mu       sync.RWMutex
	compiled map[string]*vm.Program
}

// New creates an interpreter with the given wall-clock budget per
// evaluation; zero or negative means DefaultBudget.
func New(budget time.Duration) *Interpreter {
	if budget <= 0 {
		budget = DefaultBudget
	}

	if budget > MaxBudget {
		budget = MaxBudget
	}

	return &Interpreter{
		budget:   budget,
		compiled: make(map[string]*vm.Program),
	}
}

// Evaluate compiles and evaluates expression against data, honoring both
// the interpreter budget and ctx cancellation.
func (i *Interpreter) Evaluate(ctx context.Context, expression string, data map[string]any) (any, error) {
	if expression == "" {
		return nil, errors.New("expression is empty")
	}

	if len(expression) > maxExpressionLength {
		return nil, fmt.Errorf("expression exceeds maximum length of %d characters", maxExpressionLength)
	}

	if data == nil {
		data = map[string]any{}
	}

	ctx, cancel := context.WithTimeout(ctx, i.budget)
	defer cancel()

	type outcome struct {
		value any
		err   error
	}

	done := make(chan outcome, 1)

	go func() {
		program, err := i.compile(expression)
		if err != nil {
			done <- outcome{err: err}

			return
		}

		value, err := expr.Run(program, data)
		if err != nil {
			done <- outcome{err: fmt.Errorf("evaluate expression %q: %w", expression, err)}

			return
		}

		done <- outcome{value: value}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrBudgetExceeded
		}

		return nil, ctx.Err()
	case result := <-done:
		return result.value, result.err
	}
}

// EvaluateBool evaluates expression and coerces the result to a boolean:
// booleans pass through, nil and empty strings are false, non-zero numbers
// and non-empty strings are true.
func (i *Interpreter) EvaluateBool(ctx context.Context, expression string, data map[string]any) (bool, error) {
	value, err := i.Evaluate(ctx, expression, data)
	if err != nil {
		return false, err
	}

	return truthy(value), nil
}

// compile returns the cached program for expression, compiling on first
// use. Programs are compiled untyped: the data document is a plain map, so
// identifiers resolve at run time and missing keys yield nil.
func (i *Interpreter) compile(expression string) (*vm.Program, error) {
	i.mu.RLock()
	program, ok := i.compiled[expression]
	i.mu.RUnlock()

	if ok {
		return program, nil
	}

	program, err := expr.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", expression, err)
	}

	i.mu.Lock()
	i.compiled[expression] = program
	i.mu.Unlock()

	return program, nil
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}
