package blessings

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// ConditionContext is what a blessing's eligibility expression can see.
type ConditionContext struct {
	Difficulty string
	Acts       []string
}

// Conditions compiles and caches blessing eligibility expressions.
type Conditions struct {
	mu    sync.RWMutex
	env   *cel.Env
	cache map[string]cel.Program
}

func NewConditions() (*Conditions, error) {
	env, err := cel.NewEnv(
		cel.Variable("difficulty", cel.StringType),
		cel.Variable("acts", cel.ListType(cel.StringType)),
		cel.Variable("tier", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL env: %w", err)
	}
	return &Conditions{env: env, cache: make(map[string]cel.Program)}, nil
}

// Compile checks expr without evaluating it.
func (c *Conditions) Compile(expr string) error {
	_, err := c.program(expr)
	return err
}

// Eval reports whether expr holds for a blessing of tier under ctx. An empty
// expression always holds.
func (c *Conditions) Eval(expr string, tier int, ctx ConditionContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := c.program(expr)
	if err != nil {
		return false, err
	}
	acts := ctx.Acts
	if acts == nil {
		acts = []string{}
	}
	out, _, err := prg.Eval(map[string]any{
		"difficulty": ctx.Difficulty,
		"acts":       acts,
		"tier":       int64(tier),
	})
	if err != nil {
		return false, fmt.Errorf("CEL evaluation error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return boolean, got %T", out.Value())
	}
	return result, nil
}

func (c *Conditions) program(expr string) (cel.Program, error) {
	c.mu.RLock()
	prg, ok := c.cache[expr]
	c.mu.RUnlock()
	if ok {
		return prg, nil
	}
	ast, issues := c.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}
	prg, err := c.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}
	c.mu.Lock()
	c.cache[expr] = prg
	c.mu.Unlock()
	return prg, nil
}
