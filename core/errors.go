package core

// These errors cover user input (parse, validation) as well as misuse
// of the graph and evaluation APIs.
//
// Graph API misuse wraps ErrInval or ErrNoEnt so that callers can
// distinguish "you gave me a bad node" from "I don't know that node"
// with errors.Is.

import (
	"errors"
	"strconv"
)

var (
	// ErrInval indicates a misuse of an API: a nil node, a node that
	// already has an owner, conflicting evaluation state calls, and
	// the like.
	ErrInval = errors.New("invalid argument")

	// ErrNoEnt indicates a lookup of something the graph or factory
	// does not know about.
	ErrNoEnt = errors.New("no such entry")
)

// ParseError occurs when s-expression text is malformed.  Position is
// a zero-based byte offset into the input.
type ParseError struct {
	Position int
	Message  string
}

func (e *ParseError) Error() string {
	return e.Message + " at position " + strconv.Itoa(e.Position)
}

// GraphError occurs on misuse of MergeGraph or Node APIs.  It wraps
// either ErrInval or ErrNoEnt.
type GraphError struct {
	What string
	Err  error
}

func (e *GraphError) Error() string {
	return e.What
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

// Einval makes a GraphError wrapping ErrInval.
func Einval(what string) error {
	return &GraphError{What: what, Err: ErrInval}
}

// Enoent makes a GraphError wrapping ErrNoEnt.
func Enoent(what string) error {
	return &GraphError{What: what, Err: ErrNoEnt}
}

// EvalStateError occurs when a call implementation violates the
// evaluation state protocol: append before setup, mutate after finish,
// or mixing binding modes.  These indicate bugs in calls, not bad user
// input, so they abort evaluation immediately.
type EvalStateError struct {
	What string
}

func (e *EvalStateError) Error() string {
	return e.What
}
