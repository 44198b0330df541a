package faults

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// Kind classifies a pipeline failure for the user-facing reply.
type Kind int

const (
	KindUpstream Kind = iota
	KindTimeout
	KindParse
	KindLocalIO
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindParse:
		return "parse"
	case KindLocalIO:
		return "local_io"
	default:
		return "upstream"
	}
}

// Error is a typed failure produced by a client operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Upstream marks a non-success response from an external dependency.
func Upstream(op string, err error) error {
	return &Error{Kind: KindUpstream, Op: op, Err: err}
}

// Upstreamf is Upstream with a formatted cause.
func Upstreamf(op, format string, args ...interface{}) error {
	return &Error{Kind: KindUpstream, Op: op, Err: fmt.Errorf(format, args...)}
}

// Timeout marks a network call that exceeded its bound.
func Timeout(op string, err error) error {
	return &Error{Kind: KindTimeout, Op: op, Err: err}
}

// Parse marks a malformed response from the extraction service.
func Parse(op string, err error) error {
	return &Error{Kind: KindParse, Op: op, Err: err}
}

// LocalIO marks a failure writing or deleting the transient audio file.
func LocalIO(op string, err error) error {
	return &Error{Kind: KindLocalIO, Op: op, Err: err}
}

// FromTransport wraps a transport-level error, distinguishing timeouts
// from other failures. Anything that is not a timeout counts as upstream.
func FromTransport(op string, err error) error {
	if IsTimeout(err) {
		return Timeout(op, err)
	}
	return Upstream(op, err)
}

// IsTimeout reports whether err is a network timeout of any flavor.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Classify returns the kind of err. Errors outside the taxonomy are
// treated as upstream failures.
func Classify(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUpstream
}
