package errorx

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Code    uint64
	Message string
}

func (e Error) Error() string {
	return e.Message
}

func New(code Code, format string, a ...any) Error {
	return Error{Code: uint64(code), Message: fmt.Sprintf(format, a...)}
}

// Is reports whether err is an Error carrying code.
func Is(err error, code Code) bool {
	var errx Error
	if !errors.As(err, &errx) {
		return false
	}

	return errx.Code == uint64(code)
}

// CodeOf returns the code of err, or the code of Unknown when err is not an Error.
func CodeOf(err error) Code {
	var errx Error
	if !errors.As(err, &errx) {
		return Code(Unknown.Code)
	}

	return Code(errx.Code)
}

// HTTPStatus maps err to the status code written by the router.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	return status(CodeOf(err))
}
