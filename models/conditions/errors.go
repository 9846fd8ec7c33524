package conditions

import "github.com/cockroachdb/errors"

var (
	ErrUnknownGroupOperator     = errors.New("unknown group operator")
	ErrUnknownConditionOperator = errors.New("unknown condition operator")
	ErrNotGroupArity            = errors.New("NOT group must have at most one child")
	ErrAmbiguousChild           = errors.New("child must be exactly one of group or condition")
	ErrTreeTooDeep              = errors.New("condition tree exceeds maximum depth")
	ErrMissingField             = errors.New("condition field is empty")
	ErrBadRangeLiteral          = errors.New("between literal must be a two-bound range")
	ErrBadSetLiteral            = errors.New("in/not_in literal must be a list")

	// Evaluation-local errors. A condition hitting one of these fails
	// closed and the error is recorded in the trace.
	ErrFieldNotNumeric     = errors.New("field value is not numeric")
	ErrFieldNotString      = errors.New("field value is not a string")
	ErrOperandsNotOrdered  = errors.New("operands are neither both numeric nor both temporal")
	ErrLiteralTypeMismatch = errors.New("literal type does not match field value type")
)
