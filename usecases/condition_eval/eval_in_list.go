package condition_eval

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-set/v2"

	"github.com/incentiva/campaign-engine/models/conditions"
)

type InList struct {
	Operator conditions.ConditionOperator
}

func NewInList(op conditions.ConditionOperator) InList {
	return InList{Operator: op}
}

// Evaluate checks membership of the field value in the declared literal
// set. Values are canonicalized so that 300 and 300.0 are the same
// member.
func (f InList) Evaluate(arguments Arguments) (bool, []error) {
	literals, ok := arguments.Literal.([]any)
	if !ok {
		return MakeEvaluateError(errors.Wrap(conditions.ErrBadSetLiteral,
			fmt.Sprintf("got %T", arguments.Literal)))
	}

	members := set.New[string](len(literals))
	for _, literal := range literals {
		key, err := canonicalKey(literal)
		if err != nil {
			return MakeEvaluateError(err)
		}
		members.Insert(key)
	}

	valueKey, err := canonicalKey(arguments.FieldValue)
	if err != nil {
		return MakeEvaluateError(err)
	}

	contained := members.Contains(valueKey)
	switch f.Operator {
	case conditions.OperatorIn:
		return contained, nil
	case conditions.OperatorNotIn:
		return !contained, nil
	default:
		return MakeEvaluateError(errors.New(fmt.Sprintf(
			"InList does not support %s operator", f.Operator)))
	}
}

// canonicalKey reduces a value to a typed string key so that members of
// mixed numeric representations compare consistently.
func canonicalKey(v any) (string, error) {
	if f, err := promoteArgumentToFloat64(v); err == nil {
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64), nil
	}
	switch v := v.(type) {
	case string:
		return "s:" + v, nil
	case bool:
		return "b:" + strconv.FormatBool(v), nil
	case time.Time:
		return "t:" + v.UTC().Format(time.RFC3339Nano), nil
	}
	return "", errors.Wrap(conditions.ErrLiteralTypeMismatch,
		fmt.Sprintf("value %v cannot be a set member", v))
}
