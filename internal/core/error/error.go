// Package errx carries an HTTP status and a public message alongside the
// underlying error, so handlers can answer without leaking internals.
package errx

import (
	"errors"
	"fmt"
)

// Public messages. These are the only error texts a client or lead ever sees.
const (
	SystemErrorMessage    = "internal server error"
	RedisErrorMessage     = "redis operation failed"
	RedisNotFoundMessage  = "redis key not found"
	ProviderErrorMessage  = "messaging provider request failed"
	ProviderConfigMessage = "messaging provider not configured"
	AgentErrorMessage     = "agent run failed"
)

type AppError struct {
	Err     error
	Status  int
	Message string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func New(err error, status int, message string) *AppError {
	return &AppError{Err: err, Status: status, Message: message}
}

func find(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// StatusOf returns the status carried anywhere in err's chain, or fallback.
func StatusOf(err error, fallback int) int {
	if appErr, ok := find(err); ok && appErr.Status != 0 {
		return appErr.Status
	}
	return fallback
}

// MessageOf returns the public message carried anywhere in err's chain, or fallback.
func MessageOf(err error, fallback string) string {
	if appErr, ok := find(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
