package amqp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors returned by Message operations. Use errors.Is to test for them,
// returned errors may carry additional context.
var (
	// ErrInvalidArgument is returned when a required argument is nil,
	// an index is out of range, or the Message has been destroyed.
	ErrInvalidArgument = errorNew("amqp: invalid argument")

	// ErrOutOfMemory is returned when the Message's Allocator refuses
	// an allocation.
	ErrOutOfMemory = errorNew("amqp: out of memory")

	// ErrCloneFailed is matched by every *CloneError.
	ErrCloneFailed = errorNew("amqp: clone failed")

	// ErrConflictingBodyKind is returned when adding a body item of a kind
	// other than the one the body already holds.
	ErrConflictingBodyKind = errorNew("amqp: conflicting body kind")

	// ErrWrongBodyKind is returned by body getters when the body does not
	// hold the requested kind.
	ErrWrongBodyKind = errorNew("amqp: wrong body kind")
)

// CloneError is returned when a section or body value fails to clone.
type CloneError struct {
	Section string // section or body part being cloned
	Err     error  // error returned by Clone, may be nil if Clone returned nil
}

func (e *CloneError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("amqp: clone of %s failed", e.Section)
	}
	return fmt.Sprintf("amqp: clone of %s failed: %v", e.Section, e.Err)
}

// Is reports ErrCloneFailed as a match.
func (e *CloneError) Is(target error) bool {
	return target == ErrCloneFailed
}

func (e *CloneError) Unwrap() error {
	return e.Err
}

var errNilClone = errorNew("clone returned nil")

func errorNew(msg string) error {
	return errors.New(msg)
}

func errorErrorf(format string, v ...interface{}) error {
	return errors.Errorf(format, v...)
}

func errorWrapf(err error, format string, v ...interface{}) error {
	return errors.Wrapf(err, format, v...)
}
