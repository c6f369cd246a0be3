package mgmt

import (
	"fmt"
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// Kind classifies a transport failure.
type Kind int

const (
	// KindConnection means creating or binding the control socket failed.
	KindConnection Kind = iota + 1
	// KindTimeout means Read spent its whole retry budget without a message.
	KindTimeout
	// KindOversize means a response grew past the maximum response size.
	KindOversize
	// KindWriteShortfall means Write sent fewer bytes than requested.
	KindWriteShortfall
	// KindCanceled means the context ended a Read before any data arrived.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindOversize:
		return "oversize"
	case KindWriteShortfall:
		return "write shortfall"
	case KindCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by every failing Transport operation. Errno holds the OS
// error captured at the point of failure, or 0 if there was none.
type Error struct {
	Kind  Kind
	Op    string
	Errno syscall.Errno

	// Written is the byte count actually sent for KindWriteShortfall.
	Written int

	Err error
}

func (e *Error) Error() string {
	if e.Errno != 0 {
		return fmt.Sprintf("%s on Bluetooth management socket error (%d): %s", e.Op, int(e.Errno), e.Errno.Error())
	}
	if e.Err != nil {
		return fmt.Sprintf("%s on Bluetooth management socket error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s on Bluetooth management socket error: %s", e.Op, e.Kind)
}

// Unwrap exposes the errno, or the underlying error when there is none, to
// errors.Is and errors.As.
func (e *Error) Unwrap() error {
	if e.Errno != 0 {
		return e.Errno
	}
	return e.Err
}

// Cause lets github.com/pkg/errors.Cause reach the underlying error.
func (e *Error) Cause() error {
	return e.Unwrap()
}

// KindOf returns the Kind of err, or 0 if err is not a transport error.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return 0
}

func IsTimeout(err error) bool  { return KindOf(err) == KindTimeout }
func IsOversize(err error) bool { return KindOf(err) == KindOversize }
func IsCanceled(err error) bool { return KindOf(err) == KindCanceled }

// errnoOf digs the raw errno out of err, looking through pkg/errors wrapping
// and *os.SyscallError.
func errnoOf(err error) syscall.Errno {
	switch e := errors.Cause(err).(type) {
	case syscall.Errno:
		return e
	case *os.SyscallError:
		if no, ok := e.Err.(syscall.Errno); ok {
			return no
		}
	}
	return 0
}

// syscallOf returns the name of the failing syscall carried by err, if any.
func syscallOf(err error) string {
	if se, ok := errors.Cause(err).(*os.SyscallError); ok {
		return se.Syscall
	}
	return ""
}

// newError builds an Error for op, capturing the errno from cause.
func newError(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Errno: errnoOf(cause), Err: cause}
}
