package condition_eval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/incentiva/campaign-engine/models/conditions"
)

func TestEquality_Evaluate_numeric(t *testing.T) {
	tests := []struct {
		name    string
		field   any
		literal any
		want    bool
	}{
		{name: "nominal", field: 300.0, literal: 300.0, want: true},
		{name: "int vs float", field: int64(300), literal: 300.0, want: true},
		{name: "not equal", field: 299.99, literal: 300.0, want: false},
		{name: "negative", field: -10.0, literal: -10.0, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, errs := NewEquality(conditions.OperatorEqual).Evaluate(Arguments{
				FieldValue: tt.field, Present: true, Literal: tt.literal,
			})
			assert.Empty(t, errs)
			assert.Equal(t, tt.want, r)
		})
	}
}

func TestEquality_Evaluate_string_case_sensitive(t *testing.T) {
	r, errs := NewEquality(conditions.OperatorEqual).Evaluate(Arguments{
		FieldValue: "Gold", Present: true, Literal: "gold",
	})
	assert.Empty(t, errs)
	assert.Equal(t, false, r)
}

func TestEquality_Evaluate_time(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r, errs := NewEquality(conditions.OperatorEqual).Evaluate(Arguments{
		FieldValue: at, Present: true, Literal: "2026-03-01T12:00:00Z",
	})
	assert.Empty(t, errs)
	assert.Equal(t, true, r)
}

func TestEquality_Evaluate_not_equal(t *testing.T) {
	r, errs := NewEquality(conditions.OperatorNotEqual).Evaluate(Arguments{
		FieldValue: "gold", Present: true, Literal: "silver",
	})
	assert.Empty(t, errs)
	assert.Equal(t, true, r)
}

func TestEquality_Evaluate_type_mismatch(t *testing.T) {
	_, errs := NewEquality(conditions.OperatorEqual).Evaluate(Arguments{
		FieldValue: "300", Present: true, Literal: 300.0,
	})
	assert.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[0], conditions.ErrLiteralTypeMismatch)
}
