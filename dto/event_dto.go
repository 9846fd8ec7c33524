package dto

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"

	"github.com/incentiva/campaign-engine/models"
)

// AdaptEvaluationContext parses one raw event into the engine's typed
// view. Payload values become string, float64, bool, time.Time or nested
// maps/slices of those; strings that parse as RFC 3339 timestamps are
// promoted to time.Time so temporal conditions can order them.
func AdaptEvaluationContext(raw []byte) (models.EvaluationContext, error) {
	if !gjson.ValidBytes(raw) {
		return models.EvaluationContext{}, errors.Wrap(models.BadParameterError, "event is not valid JSON")
	}
	root := gjson.ParseBytes(raw)

	userId := root.Get("user_id").String()
	if userId == "" {
		return models.EvaluationContext{}, errors.Wrap(models.BadParameterError, "event has no user_id")
	}

	idempotencyKey := root.Get("idempotency_key").String()
	if idempotencyKey == "" {
		return models.EvaluationContext{}, errors.Wrap(models.BadParameterError, "event has no idempotency_key")
	}

	timestamp := time.Now().UTC()
	if ts := root.Get("timestamp"); ts.Exists() {
		parsed, err := time.Parse(time.RFC3339, ts.String())
		if err != nil {
			return models.EvaluationContext{}, errors.Wrap(models.BadParameterError,
				"event timestamp is not RFC 3339")
		}
		timestamp = parsed
	}

	payload := make(map[string]any)
	root.Get("payload").ForEach(func(key, value gjson.Result) bool {
		payload[key.String()] = adaptPayloadValue(value)
		return true
	})

	return models.EvaluationContext{
		Payload:        payload,
		UserId:         userId,
		Timestamp:      timestamp,
		IdempotencyKey: idempotencyKey,
	}, nil
}

func adaptPayloadValue(value gjson.Result) any {
	switch value.Type {
	case gjson.Number:
		return value.Float()
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.String:
		if t, err := time.Parse(time.RFC3339, value.String()); err == nil {
			return t
		}
		return value.String()
	case gjson.JSON:
		if value.IsArray() {
			var items []any
			value.ForEach(func(_, item gjson.Result) bool {
				items = append(items, adaptPayloadValue(item))
				return true
			})
			return items
		}
		nested := make(map[string]any)
		value.ForEach(func(key, item gjson.Result) bool {
			nested[key.String()] = adaptPayloadValue(item)
			return true
		})
		return nested
	default:
		return nil
	}
}
