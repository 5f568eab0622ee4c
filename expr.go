package autoslug

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// exprEnv is the environment shape expressions are checked against.
var exprEnv = map[string]any{
	"attr":  func(string) any { return nil },
	"model": "",
}

// compileSource compiles a populate expression into a source function.
func compileSource(expression string) (func(Record) (string, error), error) {
	program, err := expr.Compile(expression, expr.Env(exprEnv))
	if err != nil {
		return nil, errors.Join(ErrInvalidOption, fmt.Errorf("populate expression %q: %w", expression, err))
	}

	return func(rec Record) (string, error) {
		return runSource(program, expression, rec)
	}, nil
}

func runSource(program *vm.Program, expression string, rec Record) (string, error) {
	env := map[string]any{
		"attr": func(path string) any {
			return pathValue(rec, path)
		},
		"model": rec.Model(),
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return "", errors.Join(ErrPopulate, fmt.Errorf("expression %q on %s: %w", expression, rec.Model(), err))
	}
	return stringify(out), nil
}
