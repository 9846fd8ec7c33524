package condition_eval

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/incentiva/campaign-engine/models/conditions"
)

type Equality struct {
	Operator conditions.ConditionOperator
}

func NewEquality(op conditions.ConditionOperator) Equality {
	return Equality{Operator: op}
}

// Evaluate implements exact typed equality. Numeric values compare
// numerically across int/float representations; other types must match
// exactly.
func (f Equality) Evaluate(arguments Arguments) (bool, []error) {
	equal, err := typedEqual(arguments.FieldValue, arguments.Literal)
	if err != nil {
		return MakeEvaluateError(err)
	}

	switch f.Operator {
	case conditions.OperatorEqual:
		return equal, nil
	case conditions.OperatorNotEqual:
		return !equal, nil
	default:
		return MakeEvaluateError(errors.New(fmt.Sprintf(
			"Equality does not support %s operator", f.Operator)))
	}
}

func typedEqual(left, right any) (bool, error) {
	if leftF, rightF, errs := adaptLeftAndRight(left, right, promoteArgumentToFloat64); len(errs) == 0 {
		return leftF == rightF, nil
	}

	switch l := left.(type) {
	case string:
		r, ok := right.(string)
		if !ok {
			return false, conditions.ErrLiteralTypeMismatch
		}
		return l == r, nil
	case bool:
		r, ok := right.(bool)
		if !ok {
			return false, conditions.ErrLiteralTypeMismatch
		}
		return l == r, nil
	case time.Time:
		r, err := adaptArgumentToTime(right)
		if err != nil {
			return false, conditions.ErrLiteralTypeMismatch
		}
		return l.Equal(r), nil
	}
	return false, errors.Wrap(conditions.ErrLiteralTypeMismatch,
		fmt.Sprintf("cannot compare %T and %T", left, right))
}
