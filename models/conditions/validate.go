package conditions

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// MaxDepth bounds the nesting of condition groups. The parser refuses
// deeper trees at load time, so evaluation never needs runtime cycle
// detection.
const MaxDepth = 10

// Validate walks the whole tree and returns the first structural error
// found. A campaign whose condition tree does not validate is rejected at
// load; evaluation assumes a validated tree.
func (g Group) Validate() error {
	return g.validate(0)
}

func (g Group) validate(depth int) error {
	if depth >= MaxDepth {
		return errors.Wrap(ErrTreeTooDeep, fmt.Sprintf("maximum depth is %d", MaxDepth))
	}

	switch g.Operator {
	case GroupAll, GroupAny:
	case GroupNot:
		if len(g.Children) > 1 {
			return errors.Wrap(ErrNotGroupArity,
				fmt.Sprintf("NOT group has %d children", len(g.Children)))
		}
	default:
		return ErrUnknownGroupOperator
	}

	for i, child := range g.Children {
		if (child.Group == nil) == (child.Condition == nil) {
			return errors.Wrap(ErrAmbiguousChild, fmt.Sprintf("child %d", i))
		}
		if child.Group != nil {
			if err := child.Group.validate(depth + 1); err != nil {
				return err
			}
			continue
		}
		if err := child.Condition.validate(); err != nil {
			return errors.Wrap(err, fmt.Sprintf("child %d", i))
		}
	}
	return nil
}

func (c Condition) validate() error {
	if c.Field == "" {
		return ErrMissingField
	}

	switch c.Operator {
	case OperatorBetween:
		if _, ok := c.Value.(Range); !ok {
			return ErrBadRangeLiteral
		}
	case OperatorIn, OperatorNotIn:
		if _, ok := c.Value.([]any); !ok {
			return ErrBadSetLiteral
		}
	case OperatorEqual, OperatorNotEqual,
		OperatorGreater, OperatorGreaterOrEqual, OperatorLess, OperatorLessOrEqual,
		OperatorContains, OperatorStartsWith, OperatorEndsWith,
		OperatorExists, OperatorNotExists:
	default:
		return ErrUnknownConditionOperator
	}
	return nil
}
