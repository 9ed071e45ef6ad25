package errorx

import (
	"errors"
	"fmt"
)

type Error struct {
	Code    Code
	Message string
}

func New(code Code, format string, a ...any) Error {
	return Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

func (e Error) Error() string {
	return e.Message
}

// From returns the errorx.Error wrapped in err, or Unknown if err carries none.
func From(err error) Error {
	var errx Error
	if errors.As(err, &errx) {
		return errx
	}

	return Unknown
}

func Is(err error, code Code) bool {
	var errx Error
	return errors.As(err, &errx) && errx.Code == code
}
