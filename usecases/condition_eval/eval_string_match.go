package condition_eval

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/incentiva/campaign-engine/models/conditions"
)

type StringMatch struct {
	Operator conditions.ConditionOperator
}

func NewStringMatch(op conditions.ConditionOperator) StringMatch {
	return StringMatch{Operator: op}
}

// Evaluate implements the case-sensitive substring operators. Both the
// field value and the literal must be strings.
func (f StringMatch) Evaluate(arguments Arguments) (bool, []error) {
	left, err := adaptArgumentToString(arguments.FieldValue)
	if err != nil {
		return MakeEvaluateError(err)
	}
	right, err := adaptArgumentToString(arguments.Literal)
	if err != nil {
		return MakeEvaluateError(err)
	}

	switch f.Operator {
	case conditions.OperatorContains:
		return strings.Contains(left, right), nil
	case conditions.OperatorStartsWith:
		return strings.HasPrefix(left, right), nil
	case conditions.OperatorEndsWith:
		return strings.HasSuffix(left, right), nil
	default:
		return MakeEvaluateError(errors.New(fmt.Sprintf(
			"StringMatch does not support %s operator", f.Operator)))
	}
}
