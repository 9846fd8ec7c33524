package formula_eval

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/incentiva/campaign-engine/models/formula"
	"github.com/incentiva/campaign-engine/usecases/payload"
)

// EvaluateFormula computes a parsed point-award expression against one
// event payload. Unknown field references and non-numeric fields fail the
// whole formula; the caller reports that as an effect-level error.
func EvaluateFormula(reader payload.FieldReader, node formula.Node) (float64, error) {
	switch node.Function {
	case formula.FuncConstant:
		return node.Constant, nil

	case formula.FuncField:
		value, present := reader.Resolve(node.FieldName)
		if !present {
			return 0, errors.Wrap(formula.ErrUnknownFieldReference, node.FieldName)
		}
		number, err := toFloat64(value)
		if err != nil {
			return 0, errors.Wrap(formula.ErrFieldNotNumeric, node.FieldName)
		}
		return number, nil

	case formula.FuncNegate:
		child, err := EvaluateFormula(reader, node.Children[0])
		if err != nil {
			return 0, err
		}
		return -child, nil

	case formula.FuncAdd, formula.FuncSubtract, formula.FuncMultiply, formula.FuncDivide:
		left, err := EvaluateFormula(reader, node.Children[0])
		if err != nil {
			return 0, err
		}
		right, err := EvaluateFormula(reader, node.Children[1])
		if err != nil {
			return 0, err
		}
		return arithmeticEval(node.Function, left, right)

	case formula.FuncMin, formula.FuncMax:
		result, err := EvaluateFormula(reader, node.Children[0])
		if err != nil {
			return 0, err
		}
		for _, child := range node.Children[1:] {
			value, err := EvaluateFormula(reader, child)
			if err != nil {
				return 0, err
			}
			if node.Function == formula.FuncMin {
				result = math.Min(result, value)
			} else {
				result = math.Max(result, value)
			}
		}
		return result, nil

	case formula.FuncFloor, formula.FuncCeil, formula.FuncRound:
		child, err := EvaluateFormula(reader, node.Children[0])
		if err != nil {
			return 0, err
		}
		switch node.Function {
		case formula.FuncFloor:
			return math.Floor(child), nil
		case formula.FuncCeil:
			return math.Ceil(child), nil
		default:
			return math.Round(child), nil
		}
	}

	return 0, errors.New(fmt.Sprintf("cannot evaluate %s function", node.Function.DebugString()))
}

func arithmeticEval(function formula.Function, l, r float64) (float64, error) {
	switch function {
	case formula.FuncAdd:
		return l + r, nil
	case formula.FuncSubtract:
		return l - r, nil
	case formula.FuncMultiply:
		return l * r, nil
	case formula.FuncDivide:
		if r == 0 {
			return 0, formula.ErrDivisionByZero
		}
		return l / r, nil
	default:
		return 0, errors.New(fmt.Sprintf("arithmetic does not support %s function", function.DebugString()))
	}
}

func toFloat64(v any) (float64, error) {
	switch v := v.(type) {
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, errors.New(fmt.Sprintf("value %v cannot be converted to float64", v))
	}
}
