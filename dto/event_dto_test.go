package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incentiva/campaign-engine/models"
)

func TestAdaptEvaluationContext_nominal(t *testing.T) {
	evalCtx, err := AdaptEvaluationContext([]byte(`{
		"user_id": "user-1",
		"idempotency_key": "evt-42",
		"timestamp": "2026-03-01T12:00:00Z",
		"payload": {
			"purchase_amount": 300.5,
			"quantity": 3,
			"gift": true,
			"category": "electronics",
			"purchased_at": "2026-03-01T11:59:00Z",
			"customer": {"tier": "gold"},
			"items": ["a", "b"]
		}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "user-1", evalCtx.UserId)
	assert.Equal(t, "evt-42", evalCtx.IdempotencyKey)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), evalCtx.Timestamp)

	assert.Equal(t, 300.5, evalCtx.Payload["purchase_amount"])
	assert.Equal(t, 3.0, evalCtx.Payload["quantity"])
	assert.Equal(t, true, evalCtx.Payload["gift"])
	assert.Equal(t, "electronics", evalCtx.Payload["category"])
	assert.Equal(t, time.Date(2026, 3, 1, 11, 59, 0, 0, time.UTC), evalCtx.Payload["purchased_at"])
	assert.Equal(t, map[string]any{"tier": "gold"}, evalCtx.Payload["customer"])
	assert.Equal(t, []any{"a", "b"}, evalCtx.Payload["items"])
}

func TestAdaptEvaluationContext_defaults_timestamp(t *testing.T) {
	before := time.Now().UTC()
	evalCtx, err := AdaptEvaluationContext([]byte(`{
		"user_id": "user-1",
		"idempotency_key": "evt-42",
		"payload": {}
	}`))
	require.NoError(t, err)
	assert.False(t, evalCtx.Timestamp.Before(before))
}

func TestAdaptEvaluationContext_rejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "invalid json", raw: `{"user_id":`},
		{name: "missing user id", raw: `{"idempotency_key": "evt-42", "payload": {}}`},
		{name: "missing idempotency key", raw: `{"user_id": "user-1", "payload": {}}`},
		{name: "bad timestamp", raw: `{"user_id": "u", "idempotency_key": "k", "timestamp": "yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AdaptEvaluationContext([]byte(tt.raw))
			assert.ErrorIs(t, err, models.BadParameterError)
		})
	}
}
