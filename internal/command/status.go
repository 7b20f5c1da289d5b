// Package command maps named remote commands onto gesture engine calls.
package command

import (
	"errors"

	"github.com/frudas24/qaagent/internal/action"
	"github.com/frudas24/qaagent/internal/element"
	"github.com/frudas24/qaagent/internal/pending"
)

// Status is the numeric outcome carried in every reply.
type Status int

// Reply statuses.
const (
	StatusOK            Status = 0
	StatusNotFound      Status = 1
	StatusNotPerformed  Status = 2
	StatusTimeout       Status = 3
	StatusInputDisabled Status = 4
	StatusUnknown       Status = 405
)

var (
	// ErrUnknownCommand reports a command name with no handler.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrBadParams reports parameters of the wrong shape.
	ErrBadParams = errors.New("bad parameters")
	// ErrInputDisabled reports a gesture refused by the input kill switch.
	ErrInputDisabled = errors.New("input disabled")
)

// StatusFor maps a handler error to its reply status.
func StatusFor(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrUnknownCommand):
		return StatusUnknown
	case errors.Is(err, ErrInputDisabled):
		return StatusInputDisabled
	case errors.Is(err, pending.ErrTimeout):
		return StatusTimeout
	case errors.Is(err, element.ErrNotFound), errors.Is(err, ErrBadParams), errors.Is(err, action.ErrMalformed):
		return StatusNotFound
	default:
		return StatusNotPerformed
	}
}
