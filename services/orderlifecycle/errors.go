package orderlifecycle

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MarcGrol/cryptocheckout/lib/myerrors"
)

var (
	ErrOrderNotFound     = myerrors.NewNotFoundError(errors.New("order not found"))
	ErrSigningInProgress = myerrors.NewConflictError(errors.New("signing already in progress"))
	ErrPollInFlight      = myerrors.NewConflictError(errors.New("status fetch already in flight"))
	ErrControllerClosed  = myerrors.NewGoneError(errors.New("controller closed"))
)

// ValidationError reports caller input that can never succeed. It is raised before the provider is contacted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) GetHTTPErrorCode() int {
	return http.StatusBadRequest
}

// ProviderError carries the status and message of a failed or malformed provider response.
type ProviderError struct {
	Operation  string
	HTTPStatus int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.HTTPStatus == 0 {
		return fmt.Sprintf("provider %s failed: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("provider %s failed with status %d: %s", e.Operation, e.HTTPStatus, e.Message)
}

func (e *ProviderError) GetHTTPErrorCode() int {
	return http.StatusBadGateway
}

// PollError is a single failed status fetch. It never ends the order.
type PollError struct {
	Attempt int
	Err     error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("status fetch %d failed: %s", e.Attempt, e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

func (e *PollError) GetHTTPErrorCode() int {
	return http.StatusBadGateway
}

type SigningError struct {
	Attempt     int
	MaxAttempts int
	Err         error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing attempt %d of %d failed: %s", e.Attempt, e.MaxAttempts, e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

func (e *SigningError) GetHTTPErrorCode() int {
	return http.StatusUnprocessableEntity
}

// Exhausted tells whether this failure used up the signing budget and failed the order.
func (e *SigningError) Exhausted() bool {
	return e.Attempt >= e.MaxAttempts
}

type ExpirationError struct {
	OrderUID  string
	ExpiresAt time.Time
}

func (e *ExpirationError) Error() string {
	return fmt.Sprintf("quote of order %s expired at %s", e.OrderUID, e.ExpiresAt.Format(time.RFC3339))
}

func (e *ExpirationError) GetHTTPErrorCode() int {
	return http.StatusGone
}

type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition from %s to %s is not allowed", e.From, e.To)
}

func (e *TransitionError) GetHTTPErrorCode() int {
	return http.StatusConflict
}

// InvalidStateError rejects an operation that the current state does not permit.
type InvalidStateError struct {
	Operation string
	State     State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s an order in state %s", e.Operation, e.State)
}

func (e *InvalidStateError) GetHTTPErrorCode() int {
	return http.StatusConflict
}
