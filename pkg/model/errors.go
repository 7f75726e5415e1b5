package model

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrMalformedGeometry = errors.New("malformed geometry: vertex buffer length is not a multiple of 3")
	ErrDepthExceeded     = errors.New("maximum traversal depth exceeded")
	ErrNilNode           = errors.New("nil node")
	ErrInvalidProperty   = errors.New("invalid property")
)

// Error provides structured error information for model operations.
type Error struct {
	Op     string // Operation that failed (e.g., "offset", "flatten")
	Node   string // Name or application id of the node involved
	Field  string // Field or property key
	Index  int    // Payload index within a sequence, -1 when not applicable
	Length int    // Offending buffer length, 0 when not applicable
	Depth  int    // Traversal depth, 0 when not applicable
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Op
	if e.Node != "" {
		msg += fmt.Sprintf(" node %q", e.Node)
	}
	if e.Field != "" {
		if e.Index >= 0 {
			msg += fmt.Sprintf(" (field %s[%d])", e.Field, e.Index)
		} else {
			msg += fmt.Sprintf(" (field %s)", e.Field)
		}
	}
	if e.Length > 0 {
		msg += fmt.Sprintf(" length %d", e.Length)
	}
	if e.Depth > 0 {
		msg += fmt.Sprintf(" at depth %d", e.Depth)
	}
	return fmt.Sprintf("%s: %v", msg, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building Errors.
type ErrorBuilder struct {
	err Error
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: Error{Op: op, Index: -1}}
}

// Node sets the node label, preferring the name over the application id.
func (b *ErrorBuilder) Node(n *Node) *ErrorBuilder {
	if n != nil {
		b.err.Node = n.Label()
	}
	return b
}

func (b *ErrorBuilder) Field(name string) *ErrorBuilder {
	b.err.Field = name
	return b
}

func (b *ErrorBuilder) Index(i int) *ErrorBuilder {
	b.err.Index = i
	return b
}

func (b *ErrorBuilder) Length(n int) *ErrorBuilder {
	b.err.Length = n
	return b
}

func (b *ErrorBuilder) Depth(d int) *ErrorBuilder {
	b.err.Depth = d
	return b
}

func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Build returns the constructed Error.
func (b *ErrorBuilder) Build() *Error {
	return &b.err
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// IsMalformedGeometry returns true if the error chain contains a malformed geometry error.
func IsMalformedGeometry(err error) bool {
	return errors.Is(err, ErrMalformedGeometry)
}

// IsDepthExceeded returns true if a traversal gave up on an over-deep tree.
func IsDepthExceeded(err error) bool {
	return errors.Is(err, ErrDepthExceeded)
}

// CountMalformedGeometry counts the malformed geometry errors joined into err.
func CountMalformedGeometry(err error) int {
	if err == nil {
		return 0
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		n := 0
		for _, e := range joined.Unwrap() {
			n += CountMalformedGeometry(e)
		}
		return n
	}
	if IsMalformedGeometry(err) {
		return 1
	}
	return 0
}
