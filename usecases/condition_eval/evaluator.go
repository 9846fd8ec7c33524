package condition_eval

// Arguments carries one condition's operands: the resolved payload value
// with its presence flag, and the condition's declared literal.
type Arguments struct {
	FieldValue any
	Present    bool
	Literal    any
}

type Evaluator interface {
	Evaluate(arguments Arguments) (bool, []error)
}

func MakeEvaluateError(err error) (bool, []error) {
	return false, []error{err}
}
