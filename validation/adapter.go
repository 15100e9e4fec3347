package validation

import (
	"context"
	"errors"
	"fmt"

	playground "github.com/go-playground/validator/v10"

	"github.com/conduit-lang/remodel/schema"
)

// ruleValidator backs every Rule adapter. go-playground/validator is
// safe for concurrent use and caches compiled tag expressions.
var ruleValidator = playground.New(playground.WithRequiredStructEnabled())

// Rule adapts a go-playground/validator tag expression (e.g.
// "email", "min=3,max=64", "url") into a field validator producing
// soft problems. A malformed tag expression surfaces as an engine
// error, not a problem.
func Rule(tag string) schema.FieldValidator {
	return func(ctx context.Context, value any) ([]schema.Problem, error) {
		err := ruleValidator.VarCtx(ctx, value, tag)
		if err == nil {
			return nil, nil
		}

		var fieldErrs playground.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("rule %q: %w", tag, err)
		}

		problems := make([]schema.Problem, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msg := fmt.Sprintf("failed %q validation", fe.Tag())
			if fe.Param() != "" {
				msg = fmt.Sprintf("failed %q validation (param %s)", fe.Tag(), fe.Param())
			}
			problems = append(problems, schema.Problem{Message: msg})
		}
		return problems, nil
	}
}
