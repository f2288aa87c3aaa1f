// Package server provides the HTTP API for the portfolio agent.
package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ErrInvalidCredentials indicates an invalid admin password
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid credentials"
}

// ErrTestCaseNotFound indicates a prompt test case was not found
type ErrTestCaseNotFound struct {
	ID uuid.UUID
}

func (e *ErrTestCaseNotFound) Error() string {
	return fmt.Sprintf("test case not found: %s", e.ID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrRejectedInput indicates input that failed sanitization checks
type ErrRejectedInput struct {
	Reason string
}

func (e *ErrRejectedInput) Error() string {
	return e.Reason
}

// ErrUpstream indicates a failure from the language model provider
type ErrUpstream struct {
	Err error
}

func (e *ErrUpstream) Error() string {
	return fmt.Sprintf("upstream model error: %v", e.Err)
}

func (e *ErrUpstream) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrInvalidCredentials:
		return http.StatusUnauthorized
	case *ErrTestCaseNotFound:
		return http.StatusNotFound
	case *ErrValidation, *ErrRejectedInput:
		return http.StatusBadRequest
	case *ErrUpstream:
		// Provider failures surface as a generic server error; the response
		// never describes the upstream.
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
