package formula

import "github.com/cockroachdb/errors"

// Parse-time errors, fatal to loading the campaign that carries the
// formula.
var (
	ErrEmptyFormula       = errors.New("formula is empty")
	ErrUnexpectedToken    = errors.New("unexpected token in formula")
	ErrUnexpectedEnd      = errors.New("unexpected end of formula")
	ErrUnknownFunction    = errors.New("unknown function in formula")
	ErrWrongArgumentCount = errors.New("wrong number of function arguments")
	ErrUnbalancedParens   = errors.New("unbalanced parentheses in formula")
)

// Evaluation-time errors, reported as effect-level errors.
var (
	ErrUnknownFieldReference = errors.New("formula references an unknown field")
	ErrFieldNotNumeric       = errors.New("formula references a non-numeric field")
	ErrDivisionByZero        = errors.New("division by zero in formula")
)
