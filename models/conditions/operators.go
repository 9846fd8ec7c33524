package conditions

type GroupOperator int

const (
	GroupAll GroupOperator = iota
	GroupAny
	GroupNot
	UnknownGroupOperator
)

func (op GroupOperator) String() string {
	switch op {
	case GroupAll:
		return "ALL"
	case GroupAny:
		return "ANY"
	case GroupNot:
		return "NOT"
	}
	return "unknown"
}

func GroupOperatorFrom(s string) GroupOperator {
	switch s {
	case "ALL":
		return GroupAll
	case "ANY":
		return GroupAny
	case "NOT":
		return GroupNot
	}
	return UnknownGroupOperator
}

type ConditionOperator int

const (
	OperatorEqual ConditionOperator = iota
	OperatorNotEqual
	OperatorGreater
	OperatorGreaterOrEqual
	OperatorLess
	OperatorLessOrEqual
	OperatorBetween
	OperatorIn
	OperatorNotIn
	OperatorContains
	OperatorStartsWith
	OperatorEndsWith
	OperatorExists
	OperatorNotExists
	UnknownConditionOperator
)

func (op ConditionOperator) String() string {
	switch op {
	case OperatorEqual:
		return "=="
	case OperatorNotEqual:
		return "!="
	case OperatorGreater:
		return ">"
	case OperatorGreaterOrEqual:
		return ">="
	case OperatorLess:
		return "<"
	case OperatorLessOrEqual:
		return "<="
	case OperatorBetween:
		return "between"
	case OperatorIn:
		return "in"
	case OperatorNotIn:
		return "not_in"
	case OperatorContains:
		return "contains"
	case OperatorStartsWith:
		return "starts_with"
	case OperatorEndsWith:
		return "ends_with"
	case OperatorExists:
		return "exists"
	case OperatorNotExists:
		return "not_exists"
	}
	return "unknown"
}

func ConditionOperatorFrom(s string) ConditionOperator {
	switch s {
	case "==":
		return OperatorEqual
	case "!=":
		return OperatorNotEqual
	case ">":
		return OperatorGreater
	case ">=":
		return OperatorGreaterOrEqual
	case "<":
		return OperatorLess
	case "<=":
		return OperatorLessOrEqual
	case "between":
		return OperatorBetween
	case "in":
		return OperatorIn
	case "not_in":
		return OperatorNotIn
	case "contains":
		return OperatorContains
	case "starts_with":
		return OperatorStartsWith
	case "ends_with":
		return OperatorEndsWith
	case "exists":
		return OperatorExists
	case "not_exists":
		return OperatorNotExists
	}
	return UnknownConditionOperator
}
