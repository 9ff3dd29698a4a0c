package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable matches any dependency failure caused by the network, a timeout or a 5xx answer.
	ErrUnavailable = errors.New("dependency unavailable")
	// ErrRejected matches any dependency failure where the remote answered with a business error.
	ErrRejected = errors.New("dependency rejected request")
)

// Kind distinguishes the two failure families a dependency call can produce.
type Kind int

const (
	KindUnavailable Kind = iota + 1
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Error describes a failed call to a named dependency.
type Error struct {
	Dependency string
	Operation  string
	Kind       Kind
	StatusCode int
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Dependency, e.Operation, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the sentinel of the error family.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnavailable:
		return e.Kind == KindUnavailable
	case ErrRejected:
		return e.Kind == KindRejected
	default:
		return false
	}
}

// IsNotFound reports whether err is a rejection carrying a 404 status.
func IsNotFound(err error) bool {
	var remoteErr *Error
	if errors.As(err, &remoteErr) {
		return remoteErr.Kind == KindRejected && remoteErr.StatusCode == 404
	}
	return false
}

// KindOf extracts the failure kind, returning zero for non-remote errors.
func KindOf(err error) Kind {
	var remoteErr *Error
	if errors.As(err, &remoteErr) {
		return remoteErr.Kind
	}
	return 0
}
