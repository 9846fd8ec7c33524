package condition_eval

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/incentiva/campaign-engine/models/conditions"
)

type Between struct{}

// Evaluate checks low <= value <= high, inclusive on both bounds. Both
// bounds and the field value must be numeric, or all three temporal.
func (f Between) Evaluate(arguments Arguments) (bool, []error) {
	bounds, ok := arguments.Literal.(conditions.Range)
	if !ok {
		return MakeEvaluateError(errors.Wrap(conditions.ErrBadRangeLiteral,
			fmt.Sprintf("got %T", arguments.Literal)))
	}

	value, errValue := promoteArgumentToFloat64(arguments.FieldValue)
	low, errLow := promoteArgumentToFloat64(bounds.Low)
	high, errHigh := promoteArgumentToFloat64(bounds.High)
	if errValue == nil && errLow == nil && errHigh == nil {
		return low <= value && value <= high, nil
	}

	valueT, errValue := adaptArgumentToTime(arguments.FieldValue)
	lowT, errLow := adaptArgumentToTime(bounds.Low)
	highT, errHigh := adaptArgumentToTime(bounds.High)
	if errValue == nil && errLow == nil && errHigh == nil {
		return !valueT.Before(lowT) && !valueT.After(highT), nil
	}

	return MakeEvaluateError(errors.Wrap(conditions.ErrOperandsNotOrdered,
		"between operands are neither all numeric nor all temporal"))
}
