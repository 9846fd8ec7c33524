package models

import "time"

// EvaluationContext is the engine's view of one customer event. Payload
// values are already typed (string, float64, bool, time.Time); the dto
// layer is responsible for producing them from raw event JSON.
type EvaluationContext struct {
	Payload        map[string]any
	UserId         string
	Timestamp      time.Time
	IdempotencyKey string
}
