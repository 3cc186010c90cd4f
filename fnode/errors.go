package fnode

import (
	"errors"
	"fmt"
)

// Sentinel errors for plug registration and plug I/O.
var (
	ErrPlugNotFound  = errors.New("plug not found")
	ErrDuplicatePlug = errors.New("plug already registered")
	ErrInvalidPlug   = errors.New("invalid plug")
	ErrPortsSealed   = errors.New("ports sealed")
	ErrKindMismatch  = errors.New("resource kind mismatch")
	ErrFanIn         = errors.New("unexpected number of connections")
	ErrNoPlugIO      = errors.New("context has no plug access")
)

// KindError reports a value whose resource kind does not match what a plug
// expects. It matches ErrKindMismatch with errors.Is.
type KindError struct {
	Plug string
	Want Kind
	Got  Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s: plug %q wants %s, got %s", ErrKindMismatch, e.Plug, e.Want, e.Got)
}

func (e *KindError) Is(target error) bool {
	return target == ErrKindMismatch
}
