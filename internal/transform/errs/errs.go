// Package errs defines the error taxonomy of the transformation service.
//
// Errors are split into two kinds. Known errors carry a message meant for the
// end user and are returned verbatim by the HTTP layer. Internal errors carry
// a message that is still returned (the original service surfaces it with a
// 400 as well) but whose full detail belongs in the logs. Anything else is
// replaced by the canonical "Unexpected error" message.
package errs

import (
	"errors"
	"fmt"
)

// knownError marks errors whose message is safe to show to the end user.
type knownError interface {
	error
	knownError()
}

// internalError marks faults of the transformation itself.
type internalError interface {
	error
	internalError()
}

// IsKnown reports whether err is a user-visible error.
func IsKnown(err error) bool {
	var ke knownError
	return errors.As(err, &ke)
}

// IsInternal reports whether err is an internal transformation fault.
func IsInternal(err error) bool {
	var ie internalError
	return errors.As(err, &ie)
}

// UnexpectedMessage is the canonical message for unclassified faults.
const UnexpectedMessage = "Unexpected error"

// ─── Known errors ───

// UnexpectedQueryParameter reports a missing or invalid query parameter.
type UnexpectedQueryParameter struct {
	Param string
}

func (e *UnexpectedQueryParameter) Error() string {
	return fmt.Sprintf("unexpected query parameter %q", e.Param)
}

func (*UnexpectedQueryParameter) knownError() {}

// UnnamedLane reports a lane that has members but no name, which makes the
// participant mapping impossible.
type UnnamedLane struct{}

func (*UnnamedLane) Error() string {
	return "lane with flow node references must have a name"
}

func (*UnnamedLane) knownError() {}

// MalformedInput reports XML that could not be parsed into a model.
type MalformedInput struct {
	Err error
}

func (e *MalformedInput) Error() string {
	return fmt.Sprintf("malformed input: %v", e.Err)
}

func (e *MalformedInput) Unwrap() error { return e.Err }

func (*MalformedInput) knownError() {}

// TokenCheckUnsuccessful reports a failed external token check.
type TokenCheckUnsuccessful struct{}

func (*TokenCheckUnsuccessful) Error() string {
	return "token check unsuccessful"
}

func (*TokenCheckUnsuccessful) knownError() {}

// NoRequestTokensAvailable reports an exhausted request token budget.
type NoRequestTokensAvailable struct{}

func (*NoRequestTokensAvailable) Error() string {
	return "no request tokens available"
}

func (*NoRequestTokensAvailable) knownError() {}

// ─── Internal errors ───

// InternalTransformation reports a violated precondition inside a pipeline,
// for example removing a node whose in or out degree is not exactly one.
type InternalTransformation struct {
	Msg string
}

// Internalf builds an InternalTransformation with a formatted message.
func Internalf(format string, args ...any) *InternalTransformation {
	return &InternalTransformation{Msg: fmt.Sprintf(format, args...)}
}

func (e *InternalTransformation) Error() string {
	return "internal transformation error: " + e.Msg
}

func (*InternalTransformation) internalError() {}

// MissingEnvironmentVariable reports a required environment variable that was
// not set at startup.
type MissingEnvironmentVariable struct {
	Name string
}

func (e *MissingEnvironmentVariable) Error() string {
	return fmt.Sprintf("missing environment variable %q", e.Name)
}

func (*MissingEnvironmentVariable) internalError() {}
