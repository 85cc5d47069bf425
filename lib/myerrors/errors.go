package myerrors

import (
	"errors"
	"fmt"
	"log"
	"net/http"
)

// HTTPErrorCoder is implemented by errors that know which http-status they should be reported with
type HTTPErrorCoder interface {
	error
	GetHTTPErrorCode() int
}

type httpError struct {
	httpCode int
	err      error
}

func (e httpError) Error() string {
	return fmt.Sprintf("status: %d, err: %s", e.httpCode, e.err.Error())
}

func (e httpError) GetHTTPErrorCode() int {
	return e.httpCode
}

func (e httpError) Unwrap() error {
	return e.err
}

func newError(httpCode int, err error) *httpError {
	return &httpError{
		httpCode: httpCode,
		err:      err,
	}
}

func NewInvalidInputError(err error) *httpError {
	log.Printf("Returning 400: %s", err.Error())
	return newError(http.StatusBadRequest, err)
}

func NewInvalidInputErrorf(format string, args ...interface{}) *httpError {
	return NewInvalidInputError(fmt.Errorf(format, args...))
}

func NewNotFoundError(err error) *httpError {
	return newError(http.StatusNotFound, err)
}

func NewConflictError(err error) *httpError {
	return newError(http.StatusConflict, err)
}

func NewGoneError(err error) *httpError {
	return newError(http.StatusGone, err)
}

func NewUnprocessableError(err error) *httpError {
	return newError(http.StatusUnprocessableEntity, err)
}

func NewInternalError(err error) *httpError {
	return newError(http.StatusInternalServerError, err)
}

func NewNotImplementedError(err error) *httpError {
	return newError(http.StatusNotImplemented, err)
}

func NewBadGatewayError(err error) *httpError {
	return newError(http.StatusBadGateway, err)
}

// GetHTTPStatus returns the status of the outermost error in the chain that carries one
func GetHTTPStatus(err error) int {
	if err != nil {
		var coder HTTPErrorCoder
		if errors.As(err, &coder) {
			return coder.GetHTTPErrorCode()
		}
	}
	return http.StatusInternalServerError
}
