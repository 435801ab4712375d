package internal

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// Reference errors.
	DuplicateIdentifier ErrorKind = iota
	UndefinedVariable
	UndefinedFunction
	UndefinedMethod
	NonLocalAssignment
	InvalidAssignTarget

	// Type errors.
	InvalidSuperclass
	UnknownType
	InitializerMismatch
	TypeMismatch
	ConditionNotBool
	OperatorMismatch
	ArityError
	MemberError
	MissingReturn
	TopLevelReturn
	InvalidConstructor
	InvalidReceiver
	InvalidBody
	Unsupported
)

var errorKindNames = map[ErrorKind]string{
	DuplicateIdentifier: "DuplicateIdentifier",
	UndefinedVariable:   "UndefinedVariable",
	UndefinedFunction:   "UndefinedFunction",
	UndefinedMethod:     "UndefinedMethod",
	NonLocalAssignment:  "NonLocalAssignment",
	InvalidAssignTarget: "InvalidAssignTarget",
	InvalidSuperclass:   "InvalidSuperclass",
	UnknownType:         "UnknownType",
	InitializerMismatch: "InitializerMismatch",
	TypeMismatch:        "TypeMismatch",
	ConditionNotBool:    "ConditionNotBool",
	OperatorMismatch:    "OperatorMismatch",
	ArityError:          "ArityError",
	MemberError:         "MemberError",
	MissingReturn:       "MissingReturn",
	TopLevelReturn:      "TopLevelReturn",
	InvalidConstructor:  "InvalidConstructor",
	InvalidReceiver:     "InvalidReceiver",
	InvalidBody:         "InvalidBody",
	Unsupported:         "Unsupported",
}

func (kind ErrorKind) String() string {
	name, ok := errorKindNames[kind]
	if !ok {
		return fmt.Sprintf("ErrorKind(%d)", int(kind))
	}
	return name
}

// Category is the python style error class reported to the user.
func (kind ErrorKind) Category() string {
	if kind <= InvalidAssignTarget {
		return "ReferenceError"
	}
	return "TypeError"
}

// CompileError is the error returned by every compile time check. Compilation stops at the first one.
type CompileError struct {
	Kind ErrorKind
	Msg  string
}

func (err *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", err.Kind.Category(), err.Msg)
}

// IsKind reports whether err, or an error it wraps, is a CompileError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var compileErr *CompileError
	if !errors.As(err, &compileErr) {
		return false
	}
	return compileErr.Kind == kind
}

func makeSemanticError(kind ErrorKind, format string, msg ...interface{}) error {
	return &CompileError{Kind: kind, Msg: fmt.Sprintf(format, msg...)}
}
