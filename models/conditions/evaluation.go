package conditions

// GroupEvaluation is the trace of one group's evaluation. In
// short-circuit mode only the children evaluated before the deciding one
// are present; in full-trace mode every child appears.
type GroupEvaluation struct {
	Operator GroupOperator
	Result   bool
	Children []ChildEvaluation
}

type ChildEvaluation struct {
	Group     *GroupEvaluation
	Condition *ConditionEvaluation
}

type ConditionEvaluation struct {
	Field    string
	Operator ConditionOperator
	Result   bool
	Errors   []error
}

// AllErrors collects every evaluation-local error recorded anywhere in
// the trace, depth first.
func (root GroupEvaluation) AllErrors() (errs []error) {
	var walk func(GroupEvaluation)

	walk = func(g GroupEvaluation) {
		for _, child := range g.Children {
			if child.Condition != nil {
				errs = append(errs, child.Condition.Errors...)
			}
			if child.Group != nil {
				walk(*child.Group)
			}
		}
	}

	walk(root)
	return errs
}
