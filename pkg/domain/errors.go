package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by collaborators when an entity does not exist
var ErrNotFound = errors.New("not found")

// IntegrationError reports an upstream rejection by an external service
type IntegrationError struct {
	Service    string
	Operation  string
	StatusCode int
	Err        error
}

func (e *IntegrationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Service, e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Operation, e.Err)
}

func (e *IntegrationError) Unwrap() error {
	return e.Err
}

// NewIntegrationError wraps err as an IntegrationError
func NewIntegrationError(service, operation string, statusCode int, err error) *IntegrationError {
	return &IntegrationError{
		Service:    service,
		Operation:  operation,
		StatusCode: statusCode,
		Err:        err,
	}
}
