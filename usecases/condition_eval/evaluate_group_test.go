package condition_eval

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/incentiva/campaign-engine/models"
	"github.com/incentiva/campaign-engine/models/conditions"
	"github.com/incentiva/campaign-engine/usecases/payload"
)

func testReader(fields map[string]any) payload.FieldReader {
	return payload.NewFieldReader(models.EvaluationContext{Payload: fields})
}

func condition(field string, op conditions.ConditionOperator, value any) conditions.Condition {
	return conditions.Condition{Field: field, Operator: op, Value: value}
}

func TestEvaluateGroup_empty_groups(t *testing.T) {
	environment := NewEvaluatorEnvironment()
	reader := testReader(map[string]any{})

	all, _ := EvaluateGroup(environment, reader, conditions.NewGroup(conditions.GroupAll), ShortCircuit)
	assert.True(t, all, "an empty ALL group is a catch-all")

	any_, _ := EvaluateGroup(environment, reader, conditions.NewGroup(conditions.GroupAny), ShortCircuit)
	assert.False(t, any_, "an empty ANY group never matches")

	not, _ := EvaluateGroup(environment, reader, conditions.NewGroup(conditions.GroupNot), ShortCircuit)
	assert.True(t, not, "an empty NOT group negates vacuous truth")
}

func TestEvaluateGroup_nested(t *testing.T) {
	environment := NewEvaluatorEnvironment()
	reader := testReader(map[string]any{
		"purchase_amount": 300.0,
		"category":        "electronics",
		"customer":        map[string]any{"tier": "gold"},
	})

	group := conditions.NewGroup(conditions.GroupAll).
		AddCondition(condition("purchase_amount", conditions.OperatorGreater, 100.0)).
		AddGroup(conditions.NewGroup(conditions.GroupAny).
			AddCondition(condition("category", conditions.OperatorEqual, "electronics")).
			AddCondition(condition("customer.tier", conditions.OperatorEqual, "platinum")))

	result, evaluation := EvaluateGroup(environment, reader, group, ShortCircuit)
	assert.True(t, result)
	assert.True(t, evaluation.Result)
	assert.Len(t, evaluation.Children, 2)
}

func TestEvaluateGroup_not(t *testing.T) {
	environment := NewEvaluatorEnvironment()
	reader := testReader(map[string]any{"category": "books"})

	group := conditions.NewGroup(conditions.GroupNot).
		AddCondition(condition("category", conditions.OperatorEqual, "electronics"))

	result, _ := EvaluateGroup(environment, reader, group, ShortCircuit)
	assert.True(t, result)
}

func TestEvaluateGroup_fails_closed_on_condition_error(t *testing.T) {
	environment := NewEvaluatorEnvironment()
	reader := testReader(map[string]any{"purchase_amount": "not a number"})

	group := conditions.NewGroup(conditions.GroupAll).
		AddCondition(condition("purchase_amount", conditions.OperatorGreater, 100.0))

	result, evaluation := EvaluateGroup(environment, reader, group, FullTrace)
	assert.False(t, result)
	assert.NotEmpty(t, evaluation.AllErrors(), "the failure is recorded in the trace")
}

func TestEvaluateGroup_short_circuit_stops_at_deciding_child(t *testing.T) {
	environment := NewEvaluatorEnvironment()
	reader := testReader(map[string]any{"a": 1.0, "b": 2.0})

	group := conditions.NewGroup(conditions.GroupAll).
		AddCondition(condition("a", conditions.OperatorEqual, 99.0)).
		AddCondition(condition("b", conditions.OperatorEqual, 2.0))

	_, shortTrace := EvaluateGroup(environment, reader, group, ShortCircuit)
	assert.Len(t, shortTrace.Children, 1)

	_, fullTrace := EvaluateGroup(environment, reader, group, FullTrace)
	assert.Len(t, fullTrace.Children, 2)
}

func TestEvaluateGroup_deterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	environment := NewEvaluatorEnvironment()

	properties.Property("same payload always yields the same result and trace", prop.ForAll(
		func(amount float64, category string) bool {
			reader := testReader(map[string]any{
				"purchase_amount": amount,
				"category":        category,
			})
			group := conditions.NewGroup(conditions.GroupAll).
				AddCondition(condition("purchase_amount", conditions.OperatorGreaterOrEqual, 100.0)).
				AddGroup(conditions.NewGroup(conditions.GroupAny).
					AddCondition(condition("category", conditions.OperatorIn, []any{"electronics", "books"})).
					AddCondition(condition("discount", conditions.OperatorNotExists, nil)))

			result1, trace1 := EvaluateGroup(environment, reader, group, FullTrace)
			result2, trace2 := EvaluateGroup(environment, reader, group, FullTrace)

			return result1 == result2 && len(trace1.Children) == len(trace2.Children)
		},
		gen.Float64Range(-1e6, 1e6),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
