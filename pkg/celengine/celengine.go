package celengine

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Variables available to rule condition expressions.
const (
	VarActivityType  = "activity_type"
	VarUserLevel     = "user_level"
	VarUserLevelRank = "user_level_rank"
	VarAmount        = "amount"
	VarTimestamp     = "timestamp"
	VarCustom        = "custom"
)

var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error
)

// RuleEnv returns the shared, type checked environment rule conditions compile against.
func RuleEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Variable(VarActivityType, cel.StringType),
			cel.Variable(VarUserLevel, cel.StringType),
			cel.Variable(VarUserLevelRank, cel.IntType),
			cel.Variable(VarAmount, cel.DoubleType),
			cel.Variable(VarTimestamp, cel.IntType),
			cel.Variable(VarCustom, cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return env, envErr
}

// ValidateExpression compiles expr and requires a boolean result.
func ValidateExpression(env *cel.Env, expr string) error {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return issues.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return fmt.Errorf("expected bool expression, got %s", ast.OutputType())
	}
	return nil
}

// Evaluate runs expr against attrs. Missing variables are an evaluation error.
func Evaluate(env *cel.Env, expr string, attrs map[string]any) (bool, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, issues.Err()
	}

	prg, err := env.Program(ast)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(attrs)
	if err != nil {
		return false, err
	}

	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expected bool from expression, got %T (%v)", out.Value(), out.Value())
	}
	return b, nil
}
