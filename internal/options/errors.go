package options

import (
	"errors"
	"fmt"

	"github.com/ben-ranford/presetenv/internal/pattern"
)

var (
	ErrUnknownOption    = errors.New("unknown option")
	ErrInvalidOption    = errors.New("invalid option value")
	ErrCoreJSRange      = errors.New("unsupported corejs version")
	ErrConflict         = errors.New("include and exclude overlap")
	ErrUnmatchedPattern = pattern.ErrUnmatched
)

// Error is a configuration error attributed to one option.
type Error struct {
	Option  string
	Message string
	kind    error
}

func (e *Error) Error() string {
	return "invalid option: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.kind
}

func invalidf(option string, format string, args ...any) error {
	return &Error{Option: option, Message: fmt.Sprintf(format, args...), kind: ErrInvalidOption}
}

// NewError builds an *Error for option that unwraps to kind.
func NewError(option string, kind error, format string, args ...any) error {
	return &Error{Option: option, Message: fmt.Sprintf(format, args...), kind: kind}
}
