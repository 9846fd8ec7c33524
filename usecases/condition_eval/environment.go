package condition_eval

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/incentiva/campaign-engine/models/conditions"
)

type EvaluatorEnvironment struct {
	availableEvaluators map[conditions.ConditionOperator]Evaluator
}

func NewEvaluatorEnvironment() EvaluatorEnvironment {
	env := EvaluatorEnvironment{
		availableEvaluators: make(map[conditions.ConditionOperator]Evaluator),
	}

	env.addEvaluator(conditions.OperatorEqual, NewEquality(conditions.OperatorEqual))
	env.addEvaluator(conditions.OperatorNotEqual, NewEquality(conditions.OperatorNotEqual))

	env.addEvaluator(conditions.OperatorGreater, NewComparison(conditions.OperatorGreater))
	env.addEvaluator(conditions.OperatorGreaterOrEqual, NewComparison(conditions.OperatorGreaterOrEqual))
	env.addEvaluator(conditions.OperatorLess, NewComparison(conditions.OperatorLess))
	env.addEvaluator(conditions.OperatorLessOrEqual, NewComparison(conditions.OperatorLessOrEqual))

	env.addEvaluator(conditions.OperatorBetween, Between{})

	env.addEvaluator(conditions.OperatorIn, NewInList(conditions.OperatorIn))
	env.addEvaluator(conditions.OperatorNotIn, NewInList(conditions.OperatorNotIn))

	env.addEvaluator(conditions.OperatorContains, NewStringMatch(conditions.OperatorContains))
	env.addEvaluator(conditions.OperatorStartsWith, NewStringMatch(conditions.OperatorStartsWith))
	env.addEvaluator(conditions.OperatorEndsWith, NewStringMatch(conditions.OperatorEndsWith))

	env.addEvaluator(conditions.OperatorExists, NewExists(conditions.OperatorExists))
	env.addEvaluator(conditions.OperatorNotExists, NewExists(conditions.OperatorNotExists))

	return env
}

func (environment *EvaluatorEnvironment) addEvaluator(op conditions.ConditionOperator, e Evaluator) {
	if _, found := environment.availableEvaluators[op]; found {
		panic(fmt.Sprintf("evaluator for operator '%s' already added", op))
	}
	environment.availableEvaluators[op] = e
}

func (environment EvaluatorEnvironment) GetEvaluator(op conditions.ConditionOperator) (Evaluator, error) {
	if evaluator, ok := environment.availableEvaluators[op]; ok {
		return evaluator, nil
	}
	return nil, errors.Wrap(conditions.ErrUnknownConditionOperator,
		fmt.Sprintf("operator '%s'", op))
}
