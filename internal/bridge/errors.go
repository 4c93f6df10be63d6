package bridge

import (
	"errors"
	"fmt"

	"github.com/danmuck/httpebble/internal/appmessage"
	"github.com/danmuck/httpebble/internal/providers"
	"github.com/danmuck/httpebble/internal/upstream"
	"github.com/danmuck/httpebble/internal/wiretype"
)

var (
	ErrProtocolViolation        = errors.New("bridge: protocol violation")
	ErrNoCommandIdentified      = fmt.Errorf("%w: no command identified", ErrProtocolViolation)
	ErrMultipleCommands         = fmt.Errorf("%w: more than one command", ErrProtocolViolation)
	ErrMissingRequiredParameter = errors.New("bridge: missing required parameter")
	ErrCookieKeyNotFound        = errors.New("bridge: cookie key not found")

	ErrUnknownTypeCode    = wiretype.ErrUnknownTypeCode
	ErrPreconditionFailed = providers.ErrPreconditionFailed
	ErrUpstream           = upstream.ErrUpstream
)

// NoCommandError carries the parameter keys of a message without a command.
type NoCommandError struct {
	Received []appmessage.Key
}

func (e *NoCommandError) Error() string {
	return fmt.Sprintf("%v: received=%s", ErrNoCommandIdentified, formatKeys(e.Received))
}

func (e *NoCommandError) Unwrap() error {
	return ErrNoCommandIdentified
}

// MultipleCommandsError is returned in strict mode when a message names several commands.
type MultipleCommandsError struct {
	Commands []CommandKind
}

func (e *MultipleCommandsError) Error() string {
	return fmt.Sprintf("%v: %v", ErrMultipleCommands, e.Commands)
}

func (e *MultipleCommandsError) Unwrap() error {
	return ErrMultipleCommands
}

func missingParam(key appmessage.Key) error {
	return fmt.Errorf("%w: %s", ErrMissingRequiredParameter, KeyName(key))
}

// errorClass buckets err for metrics labels.
func errorClass(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrProtocolViolation):
		return "protocol_violation"
	case errors.Is(err, ErrUnknownTypeCode):
		return "unknown_type_code"
	case errors.Is(err, ErrMissingRequiredParameter):
		return "missing_parameter"
	case errors.Is(err, ErrPreconditionFailed):
		return "precondition_failed"
	case errors.Is(err, ErrUpstream):
		return "upstream_error"
	default:
		return "error"
	}
}
