package condition_eval

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/incentiva/campaign-engine/models/conditions"
)

type Exists struct {
	Operator conditions.ConditionOperator
}

func NewExists(op conditions.ConditionOperator) Exists {
	return Exists{Operator: op}
}

// Evaluate depends only on the field resolver's presence flag; the
// condition's literal is ignored.
func (f Exists) Evaluate(arguments Arguments) (bool, []error) {
	switch f.Operator {
	case conditions.OperatorExists:
		return arguments.Present, nil
	case conditions.OperatorNotExists:
		return !arguments.Present, nil
	default:
		return MakeEvaluateError(errors.New(fmt.Sprintf(
			"Exists does not support %s operator", f.Operator)))
	}
}
