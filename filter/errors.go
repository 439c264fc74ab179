package filter

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match with errors.Is.
var (
	ErrUnknownOperator    = errors.New("unknown operator")
	ErrUnresolvedPath     = errors.New("unresolved path")
	ErrValueArityMismatch = errors.New("value arity mismatch")
	ErrInvalidValue       = errors.New("invalid value")
	ErrMalformedParameter = errors.New("malformed parameter")
)

// Error is a compile-time filter error carrying the offending path and operator.
type Error struct {
	Kind     error    `json:"-"`
	Path     []string `json:"path,omitempty"`
	Operator string   `json:"operator,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, " at %q", strings.Join(e.Path, "."))
	}
	if e.Operator != "" {
		fmt.Fprintf(&b, " operator %q", e.Operator)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// KindName returns a stable short name for the error kind.
func (e *Error) KindName() string {
	switch e.Kind {
	case ErrUnknownOperator:
		return "UnknownOperator"
	case ErrUnresolvedPath:
		return "UnresolvedPath"
	case ErrValueArityMismatch:
		return "ValueArityMismatch"
	case ErrInvalidValue:
		return "InvalidValue"
	case ErrMalformedParameter:
		return "MalformedParameter"
	default:
		return "Unknown"
	}
}

func newError(kind error, path []string, op, format string, args ...interface{}) *Error {
	return &Error{
		Kind:     kind,
		Path:     path,
		Operator: op,
		Reason:   fmt.Sprintf(format, args...),
	}
}
