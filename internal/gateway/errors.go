package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrCatalogFetch wraps every failure to list documents.
	ErrCatalogFetch = errors.New("failed to fetch document catalog")

	// ErrRequestTimeout means no response arrived within the timeout.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrConnection means the request failed at the transport level.
	ErrConnection = errors.New("connection failed")

	// ErrService means the gateway answered with a non-success status.
	ErrService = errors.New("service error")

	// ErrEmptySelection rejects an analysis request with no documents.
	ErrEmptySelection = errors.New("no document numbers to submit")
)

// ServiceError carries a non-success response from the gateway.
// Body holds the decoded JSON error when the response was JSON, otherwise
// it is nil and RawBody holds the text.
type ServiceError struct {
	StatusCode int
	Body       any
	RawBody    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error (status %d): %s", e.StatusCode, e.RawBody)
}

func (e *ServiceError) Unwrap() error {
	return ErrService
}
