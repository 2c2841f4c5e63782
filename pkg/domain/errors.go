package domain

import (
	"errors"
	"net/http"

	"github.com/Abraxas-365/craftable/errx"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrRegistry holds the flow error taxonomy. Each code maps to a distinct
// errx type so callers can classify with errx.IsType.
var ErrRegistry = errx.NewRegistry("FLOW")

var (
	CodeNotPublished           = ErrRegistry.Register("NOT_PUBLISHED", errx.TypeNotFound, http.StatusNotFound, "no published workflow")
	CodeInvalidUserInput       = ErrRegistry.Register("INVALID_USER_INPUT", errx.TypeValidation, http.StatusBadRequest, "invalid user input")
	CodeMalformedGraph         = ErrRegistry.Register("MALFORMED_GRAPH", errx.TypeBusiness, http.StatusUnprocessableEntity, "workflow graph is malformed")
	CodeExternalServiceFailure = ErrRegistry.Register("EXTERNAL_SERVICE_FAILURE", errx.TypeExternal, http.StatusBadGateway, "external service failure")
)

// ErrNotPublished reports that no workflow has been authored and executed.
func ErrNotPublished() *errx.Error {
	return ErrRegistry.New(CodeNotPublished)
}

// ErrInvalidUserInput reports input the awaiting handler cannot accept.
func ErrInvalidUserInput(input string) *errx.Error {
	return ErrRegistry.New(CodeInvalidUserInput).WithDetail("input", input)
}

// ErrMalformedGraph reports a structural defect found while running a graph.
func ErrMalformedGraph(reason string) *errx.Error {
	return ErrRegistry.New(CodeMalformedGraph).WithDetail("reason", reason)
}

// ErrExternalService wraps a failed call to the inventory or sale service.
func ErrExternalService(service string, err error) *errx.Error {
	return errx.Wrap(err, "external service failure", errx.TypeExternal).WithDetail("service", service)
}

func IsNotPublished(err error) bool     { return errx.IsType(err, errx.TypeNotFound) }
func IsInvalidUserInput(err error) bool { return errx.IsType(err, errx.TypeValidation) }
func IsMalformedGraph(err error) bool   { return errx.IsType(err, errx.TypeBusiness) }
func IsExternalFailure(err error) bool  { return errx.IsType(err, errx.TypeExternal) }
