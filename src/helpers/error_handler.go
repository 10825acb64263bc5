package helpers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"sensor-etl/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type ETLError struct {
	Message string
	Cause   error
}

func (e *ETLError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ETLError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As classification
type ConfigurationError struct{ ETLError }
type DatabaseError struct{ ETLError }
type ValidationError struct{ ETLError }

// TransportError means the source collaborator could not be reached.
type TransportError struct{ ETLError }

// HTTPStatusError means the source collaborator answered with a non-2xx status.
type HTTPStatusError struct {
	ETLError
	StatusCode int
}

// CatalogMissError means an aggregate names a signal absent from the catalog.
type CatalogMissError struct {
	ETLError
	Signal string
}

// InvalidFieldError lists requested fields that are not known columns.
type InvalidFieldError struct {
	ETLError
	Fields []string
}

// -----------------------------------------------------------------------------

func NewConfigurationError(format string, args ...interface{}) error {
	return &ConfigurationError{ETLError{Message: fmt.Sprintf(format, args...)}}
}

func NewDatabaseError(message string, cause error) error {
	return &DatabaseError{ETLError{Message: message, Cause: cause}}
}

func NewValidationError(message string, cause error) error {
	return &ValidationError{ETLError{Message: message, Cause: cause}}
}

func NewTransportError(message string, cause error) error {
	return &TransportError{ETLError{Message: message, Cause: cause}}
}

func NewHTTPStatusError(url string, status int) error {
	return &HTTPStatusError{
		ETLError:   ETLError{Message: fmt.Sprintf("unexpected status %d from %s", status, url)},
		StatusCode: status,
	}
}

func NewCatalogMissError(signal string) error {
	return &CatalogMissError{
		ETLError: ETLError{Message: fmt.Sprintf("signal %q not found in catalog", signal)},
		Signal:   signal,
	}
}

func NewInvalidFieldError(fields []string) error {
	return &InvalidFieldError{
		ETLError: ETLError{Message: fmt.Sprintf("invalid fields: %s", strings.Join(fields, ", "))},
		Fields:   fields,
	}
}

// -----------------------------------------------------------------------------

// IsExtractionFailure reports whether err belongs to the class of errors that
// degrade a run to an empty dataset instead of aborting it.
func IsExtractionFailure(err error) bool {
	var te *TransportError
	var se *HTTPStatusError
	return errors.As(err, &te) || errors.As(err, &se)
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn up to attempts times, doubling the delay after
// each failure. It stops early when ctx is done.
func RetryWithBackoff(ctx context.Context, operation string, attempts int, baseDelay time.Duration, log *logger.Logger, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		if log != nil {
			log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, attempts, operation, lastErr, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, attempts, lastErr)
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

type ErrorHandler struct {
	Logger     *logger.Logger
	errorCount atomic.Int64
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	return &ErrorHandler{Logger: log.Named("ErrorHandler")}
}

// -----------------------------------------------------------------------------

// Handle logs an absorbed error and counts it.
func (e *ErrorHandler) Handle(err error, context string) {
	if err == nil {
		return
	}
	e.errorCount.Add(1)
	e.Logger.Error("Error in %s: %v", context, err)
}

// ErrorCount returns the number of errors handled so far.
func (e *ErrorHandler) ErrorCount() int64 {
	return e.errorCount.Load()
}

// ResetErrorCount zeroes the counter.
func (e *ErrorHandler) ResetErrorCount() {
	e.errorCount.Store(0)
}
