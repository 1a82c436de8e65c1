package crawler

import (
	"errors"
	"fmt"
)

// BadStatusError indicates a response status outside the retryable set and
// not 200. It is fatal for the page: no retry is attempted.
type BadStatusError struct {
	URL    string
	Status int
}

func (e *BadStatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d (no retry)", e.URL, e.Status)
}

// ExhaustedError indicates the attempt budget ran out without a 200.
type ExhaustedError struct {
	URL      string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("fetch %s: %d attempts exhausted, last: %v", e.URL, e.Attempts, e.Last)
	}
	return fmt.Sprintf("fetch %s: %d attempts exhausted", e.URL, e.Attempts)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// ErrTimeout indicates a timeout while issuing a request.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var bad *BadStatusError
	if errors.As(err, &bad) {
		switch bad.Status {
		case 403:
			return "forbidden"
		case 404:
			return "not_found"
		case 429:
			return "rate_limited"
		}
		return "bad_status"
	}
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		return "exhausted"
	}
	return "other"
}
