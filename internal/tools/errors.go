package tools

import (
	"errors"
	"fmt"
)

// ErrUnknownTool reports an invocation naming none of the recognized
// tools.
var ErrUnknownTool = errors.New("unknown tool")

// MissingParameterError reports a required parameter absent from the
// invocation.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Name)
}

// TypeMismatchError reports a supplied parameter whose value does not
// match its declared type.
type TypeMismatchError struct {
	Name string
	Want ParamType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("parameter %q must be of type %s", e.Name, e.Want)
}

// UnknownParameterError reports a supplied parameter the tool schema
// does not declare.
type UnknownParameterError struct {
	Name string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("unknown parameter %q", e.Name)
}
