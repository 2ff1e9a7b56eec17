package esio

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Status is the closed set of outcome codes carried by every failure.
// Zero is success and is never carried by an error.
type Status int

const (
	SUCCESS Status = 0
	EFAULT  Status = 3 // invalid pointer-like argument (empty path)
	EINVAL  Status = 4 // invalid argument or wrong handle state
	EFAILED Status = 5 // a substrate rejected the request
	ESANITY Status = 7 // internal contract broken; indicates a bug
	ENOMEM  Status = 8 // auxiliary allocation failure
)

func (s Status) String() string {
	switch s {
	case SUCCESS:
		return "SUCCESS"
	case EFAULT:
		return "EFAULT"
	case EINVAL:
		return "EINVAL"
	case EFAILED:
		return "EFAILED"
	case ESANITY:
		return "ESANITY"
	case ENOMEM:
		return "ENOMEM"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Error is the concrete error returned by every public operation, carrying
// the status code and the call site that raised it.
type Error struct {
	Status Status
	Reason string
	File   string
	Line   int
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("esio: %s (%s at %s:%d): %v", e.Reason, e.Status, e.File, e.Line, e.Cause)
	}
	return fmt.Sprintf("esio: %s (%s at %s:%d)", e.Reason, e.Status, e.File, e.Line)
}

func (e *Error) Unwrap() error { return e.Cause }

// StatusOf extracts the status from an error returned by this package.
// nil maps to SUCCESS; foreign errors map to EFAILED.
func StatusOf(err error) Status {
	if err == nil {
		return SUCCESS
	}
	if e, ok := err.(*Error); ok {
		return e.Status
	}
	return EFAILED
}

// ErrorHandler observes every raised error before it is returned to the
// caller. The default handler logs the failure and aborts the process;
// long-running callers install a pass-through handler and inspect returned
// statuses instead.
type ErrorHandler func(reason, file string, line int, status Status)

// The handler is process-wide state with a well-defined lifecycle; it is
// swapped atomically so installation never races an in-flight raise.
var errorHandler atomic.Pointer[ErrorHandler]

func init() {
	h := ErrorHandler(defaultErrorHandler)
	errorHandler.Store(&h)
}

func defaultErrorHandler(reason, file string, line int, status Status) {
	logrus.WithFields(logrus.Fields{
		"status": status.String(),
		"file":   file,
		"line":   line,
	}).Fatal("esio: " + reason)
}

// SetErrorHandler installs h and returns the previous handler.
func SetErrorHandler(h ErrorHandler) ErrorHandler {
	prev := errorHandler.Swap(&h)
	return *prev
}

// SetErrorHandlerOff installs a no-op handler and returns the previous
// handler, so callers can restore it later.
func SetErrorHandlerOff() ErrorHandler {
	return SetErrorHandler(func(string, string, int, Status) {})
}

// silenceHandler suppresses the handler for the duration of a probe and
// returns the restoring function. Pair with defer so unwinds restore too.
func silenceHandler() (restore func()) {
	noop := ErrorHandler(func(string, string, int, Status) {})
	prev := errorHandler.Swap(&noop)
	return func() { errorHandler.Store(prev) }
}

// raise reports an error through the installed handler and builds the
// *Error carrying the caller's location.
func raise(status Status, reason string) error {
	return emit(status, nil, reason)
}

func raisef(status Status, format string, args ...interface{}) error {
	return emit(status, nil, fmt.Sprintf(format, args...))
}

func raiseCause(status Status, cause error, reason string) error {
	return emit(status, cause, reason)
}

func emit(status Status, cause error, reason string) error {
	file, line := "?", 0
	// Caller 2 is the operation that invoked raise/raisef/raiseCause.
	if _, f, l, ok := runtime.Caller(2); ok {
		file, line = f, l
	}
	(*errorHandler.Load())(reason, file, line, status)
	return &Error{Status: status, Reason: reason, File: file, Line: line, Cause: cause}
}
