package formula

import "fmt"

type Function int

const (
	FuncConstant Function = iota
	FuncField
	FuncAdd
	FuncSubtract
	FuncMultiply
	FuncDivide
	FuncNegate
	FuncMin
	FuncMax
	FuncFloor
	FuncCeil
	FuncRound
)

func (f Function) DebugString() string {
	switch f {
	case FuncConstant:
		return "CONSTANT"
	case FuncField:
		return "FIELD"
	case FuncAdd:
		return "ADD"
	case FuncSubtract:
		return "SUBTRACT"
	case FuncMultiply:
		return "MULTIPLY"
	case FuncDivide:
		return "DIVIDE"
	case FuncNegate:
		return "NEGATE"
	case FuncMin:
		return "MIN"
	case FuncMax:
		return "MAX"
	case FuncFloor:
		return "FLOOR"
	case FuncCeil:
		return "CEIL"
	case FuncRound:
		return "ROUND"
	default:
		return fmt.Sprintf("Invalid function: %d", f)
	}
}

// Node is one node of a parsed point-award formula. A node is a constant
// xOR a field reference xOR a function over its children.
type Node struct {
	Function  Function
	Constant  float64
	FieldName string
	Children  []Node
}

func NewNodeConstant(value float64) Node {
	return Node{Function: FuncConstant, Constant: value}
}

func NewNodeField(fieldName string) Node {
	return Node{Function: FuncField, FieldName: fieldName}
}
