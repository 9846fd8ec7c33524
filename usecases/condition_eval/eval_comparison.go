package condition_eval

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/incentiva/campaign-engine/models/conditions"
)

type Comparison struct {
	Operator conditions.ConditionOperator
}

func NewComparison(op conditions.ConditionOperator) Comparison {
	return Comparison{Operator: op}
}

// Evaluate orders the operands when both are numeric or both temporal,
// and fails closed otherwise.
func (f Comparison) Evaluate(arguments Arguments) (bool, []error) {
	leftAny, rightAny := arguments.FieldValue, arguments.Literal

	if left, right, errs := adaptLeftAndRight(leftAny, rightAny, promoteArgumentToFloat64); len(errs) == 0 {
		result, err := f.comparisonFloat(left, right)
		if err != nil {
			return MakeEvaluateError(err)
		}
		return result, nil
	}

	if left, right, errs := adaptLeftAndRight(leftAny, rightAny, adaptArgumentToTime); len(errs) == 0 {
		result, err := f.comparisonTime(left, right)
		if err != nil {
			return MakeEvaluateError(err)
		}
		return result, nil
	}

	return MakeEvaluateError(errors.Wrap(conditions.ErrOperandsNotOrdered,
		fmt.Sprintf("cannot order %T and %T", leftAny, rightAny)))
}

func (f Comparison) comparisonFloat(l, r float64) (bool, error) {
	switch f.Operator {
	case conditions.OperatorGreater:
		return l > r, nil
	case conditions.OperatorGreaterOrEqual:
		return l >= r, nil
	case conditions.OperatorLess:
		return l < r, nil
	case conditions.OperatorLessOrEqual:
		return l <= r, nil
	default:
		return false, errors.New(fmt.Sprintf("Comparison does not support %s operator", f.Operator))
	}
}

func (f Comparison) comparisonTime(l, r time.Time) (bool, error) {
	switch f.Operator {
	case conditions.OperatorGreater:
		return l.After(r), nil
	case conditions.OperatorGreaterOrEqual:
		return l.After(r) || l.Equal(r), nil
	case conditions.OperatorLess:
		return l.Before(r), nil
	case conditions.OperatorLessOrEqual:
		return l.Before(r) || l.Equal(r), nil
	default:
		return false, errors.New(fmt.Sprintf("Comparison does not support %s operator", f.Operator))
	}
}
