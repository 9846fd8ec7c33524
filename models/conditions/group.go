package conditions

import "fmt"

// Group is a node of the condition tree. Each group exclusively owns its
// children; there are no back references, so the tree is acyclic by
// construction.
type Group struct {
	Operator GroupOperator
	Children []Child
}

// Child is either a nested Group or a leaf Condition, exactly one of the
// two being set.
type Child struct {
	Group     *Group
	Condition *Condition
}

// Range is the literal of a `between` condition, inclusive on both bounds.
type Range struct {
	Low  any
	High any
}

type Condition struct {
	Field    string
	Operator ConditionOperator

	// Value is the typed literal the field is compared against: a Range
	// for `between`, a []any for `in`/`not_in`, ignored for
	// `exists`/`not_exists`.
	Value any
}

func (g *Group) DebugString() string {
	return fmt.Sprintf("Group %s with %d children", g.Operator, len(g.Children))
}

func (g Group) AddGroup(child Group) Group {
	g.Children = append(g.Children, Child{Group: &child})
	return g
}

func (g Group) AddCondition(child Condition) Group {
	g.Children = append(g.Children, Child{Condition: &child})
	return g
}

func NewGroup(op GroupOperator) Group {
	return Group{Operator: op}
}
