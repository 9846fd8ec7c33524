package condition_eval

import (
	"github.com/incentiva/campaign-engine/models/conditions"
	"github.com/incentiva/campaign-engine/usecases/payload"
)

type EvaluationMode int

const (
	// ShortCircuit stops ALL/ANY groups at the first deciding child.
	ShortCircuit EvaluationMode = iota
	// FullTrace evaluates every child and records each result, for
	// reproducible audit trails.
	FullTrace
)

// EvaluateGroup recursively evaluates a validated condition tree against
// one event payload. It never returns an error: a condition that cannot
// be evaluated fails closed to false and the failure is recorded in the
// returned trace. Evaluating the same (group, payload) pair twice yields
// an identical result and an identical trace.
func EvaluateGroup(
	environment EvaluatorEnvironment,
	reader payload.FieldReader,
	group conditions.Group,
	mode EvaluationMode,
) (bool, conditions.GroupEvaluation) {
	evaluation := conditions.GroupEvaluation{Operator: group.Operator}

	evalChild := func(child conditions.Child) bool {
		if child.Group != nil {
			result, childEval := EvaluateGroup(environment, reader, *child.Group, mode)
			evaluation.Children = append(evaluation.Children,
				conditions.ChildEvaluation{Group: &childEval})
			return result
		}
		result, condEval := evaluateCondition(environment, reader, *child.Condition)
		evaluation.Children = append(evaluation.Children,
			conditions.ChildEvaluation{Condition: &condEval})
		return result
	}

	switch group.Operator {
	case conditions.GroupAll:
		// An empty ALL group is vacuously true, so a rule with no
		// conditions is a catch-all.
		result := true
		for _, child := range group.Children {
			if !evalChild(child) {
				result = false
				if mode == ShortCircuit {
					break
				}
			}
		}
		evaluation.Result = result

	case conditions.GroupAny:
		// An empty ANY group is vacuously false.
		result := false
		for _, child := range group.Children {
			if evalChild(child) {
				result = true
				if mode == ShortCircuit {
					break
				}
			}
		}
		evaluation.Result = result

	case conditions.GroupNot:
		// A NOT group with no child negates vacuous truth.
		if len(group.Children) == 0 {
			evaluation.Result = true
			break
		}
		evaluation.Result = !evalChild(group.Children[0])
	}

	return evaluation.Result, evaluation
}

func evaluateCondition(
	environment EvaluatorEnvironment,
	reader payload.FieldReader,
	condition conditions.Condition,
) (bool, conditions.ConditionEvaluation) {
	evaluation := conditions.ConditionEvaluation{
		Field:    condition.Field,
		Operator: condition.Operator,
	}

	value, present := reader.Resolve(condition.Field)

	evaluator, err := environment.GetEvaluator(condition.Operator)
	if err != nil {
		evaluation.Errors = []error{err}
		return false, evaluation
	}

	result, errs := evaluator.Evaluate(Arguments{
		FieldValue: value,
		Present:    present,
		Literal:    condition.Value,
	})
	if len(errs) > 0 {
		// fail closed: the condition does not match, the rule evaluation
		// goes on
		evaluation.Errors = errs
		return false, evaluation
	}

	evaluation.Result = result
	return result, evaluation
}
