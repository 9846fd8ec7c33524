package payload

import (
	"strings"

	"github.com/incentiva/campaign-engine/models"
)

// FieldReader gives conditions and formulas a read-only view of one
// event payload. Absent fields resolve to (nil, false) rather than
// failing; the exists/not_exists operators consume that flag directly.
type FieldReader struct {
	payload map[string]any
}

func NewFieldReader(evalContext models.EvaluationContext) FieldReader {
	return FieldReader{payload: evalContext.Payload}
}

// Resolve returns the typed value of a field and whether it is present.
// Dotted names walk nested objects ("customer.tier"). A field present
// with a nil value counts as absent.
func (r FieldReader) Resolve(field string) (any, bool) {
	if value, ok := r.payload[field]; ok {
		return value, value != nil
	}

	if !strings.Contains(field, ".") {
		return nil, false
	}

	var current any = r.payload
	for _, part := range strings.Split(field, ".") {
		asMap, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = asMap[part]
		if !ok {
			return nil, false
		}
	}
	return current, current != nil
}
