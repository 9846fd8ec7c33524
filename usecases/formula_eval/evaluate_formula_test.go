package formula_eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incentiva/campaign-engine/models"
	"github.com/incentiva/campaign-engine/models/formula"
	"github.com/incentiva/campaign-engine/usecases/payload"
)

func testReader(fields map[string]any) payload.FieldReader {
	return payload.NewFieldReader(models.EvaluationContext{Payload: fields})
}

func mustParse(t *testing.T, input string) formula.Node {
	t.Helper()
	node, err := formula.Parse(input)
	require.NoError(t, err)
	return node
}

func TestEvaluateFormula(t *testing.T) {
	reader := testReader(map[string]any{
		"purchase_amount": 300.0,
		"quantity":        3,
		"customer":        map[string]any{"lifetime_value": 10000.0},
	})

	tests := []struct {
		formula string
		want    float64
	}{
		{formula: "purchase_amount * 0.1", want: 30},
		{formula: "purchase_amount + quantity", want: 303},
		{formula: "min(purchase_amount * 0.1, 25)", want: 25},
		{formula: "max(10, quantity, 2)", want: 10},
		{formula: "floor(purchase_amount / 7)", want: 42},
		{formula: "ceil(purchase_amount / 7)", want: 43},
		{formula: "round(purchase_amount / 8)", want: 38},
		{formula: "-quantity + 10", want: 7},
		{formula: "(purchase_amount - 100) / 2", want: 100},
		{formula: "customer.lifetime_value / 100", want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			value, err := EvaluateFormula(reader, mustParse(t, tt.formula))
			assert.NoError(t, err)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestEvaluateFormula_unknown_field(t *testing.T) {
	reader := testReader(map[string]any{})
	_, err := EvaluateFormula(reader, mustParse(t, "missing_field * 2"))
	assert.ErrorIs(t, err, formula.ErrUnknownFieldReference)
}

func TestEvaluateFormula_non_numeric_field(t *testing.T) {
	reader := testReader(map[string]any{"category": "books"})
	_, err := EvaluateFormula(reader, mustParse(t, "category * 2"))
	assert.ErrorIs(t, err, formula.ErrFieldNotNumeric)
}

func TestEvaluateFormula_division_by_zero(t *testing.T) {
	reader := testReader(map[string]any{"quantity": 0})
	_, err := EvaluateFormula(reader, mustParse(t, "100 / quantity"))
	assert.ErrorIs(t, err, formula.ErrDivisionByZero)
}

func TestComputeAwardPoints_rounds_to_whole_points(t *testing.T) {
	reader := testReader(map[string]any{"purchase_amount": 305.0})
	params := models.AwardPointsParams{
		Formula: "purchase_amount * 0.105",
		Ast:     mustParse(t, "purchase_amount * 0.105"),
	}

	points, err := ComputeAwardPoints(reader, params)
	assert.NoError(t, err)
	assert.Equal(t, int64(32), points)
}

func TestComputeAwardPoints_zero_is_allowed(t *testing.T) {
	reader := testReader(map[string]any{"purchase_amount": 0.0})
	params := models.AwardPointsParams{
		Formula: "purchase_amount * 0.1",
		Ast:     mustParse(t, "purchase_amount * 0.1"),
	}

	points, err := ComputeAwardPoints(reader, params)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), points)
}

func TestComputeAwardPoints_negative_is_rejected(t *testing.T) {
	reader := testReader(map[string]any{"purchase_amount": 100.0})
	params := models.AwardPointsParams{
		Formula: "purchase_amount - 500",
		Ast:     mustParse(t, "purchase_amount - 500"),
	}

	_, err := ComputeAwardPoints(reader, params)
	assert.ErrorIs(t, err, models.ErrNegativePointAward)
}
