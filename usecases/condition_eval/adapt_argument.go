package condition_eval

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/incentiva/campaign-engine/models/conditions"
)

func promoteArgumentToFloat64(v any) (float64, error) {
	switch v := v.(type) {
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil

	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil

	case float32:
		return float64(v), nil
	case float64:
		return v, nil

	default:
		return 0, errors.Wrap(conditions.ErrFieldNotNumeric,
			fmt.Sprintf("value %v cannot be converted to float64", v))
	}
}

func adaptArgumentToString(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", errors.Wrap(conditions.ErrFieldNotString,
		fmt.Sprintf("value %v is not a string", v))
}

// adaptArgumentToTime accepts a time.Time or an RFC 3339 string. The dto
// layer already converts timestamp-looking payload values to time.Time,
// the string form covers literals authored as plain strings.
func adaptArgumentToTime(v any) (time.Time, error) {
	switch v := v.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrap(conditions.ErrOperandsNotOrdered,
		fmt.Sprintf("value %v is not a time", v))
}

type funcAdaptArgument[T any] func(argument any) (T, error)

func adaptLeftAndRight[T any](left, right any, adapt funcAdaptArgument[T]) (T, T, []error) {
	leftT, errLeft := adapt(left)
	rightT, errRight := adapt(right)

	var errs []error
	if errLeft != nil {
		errs = append(errs, errLeft)
	}
	if errRight != nil {
		errs = append(errs, errRight)
	}
	if len(errs) > 0 {
		var zero T
		return zero, zero, errs
	}
	return leftT, rightT, nil
}
