package api

import (
	"errors"
	"fmt"
)

// NotFoundError represents a resource not found error with contextual
// information. It is returned by the registry and the engine for unknown
// scenarios and unknown test bindings.
type NotFoundError struct {
	// ResourceType categorizes the type of resource that was not found
	// (e.g., "scenario", "binding")
	ResourceType string

	// ResourceName is the specific identifier of the resource
	ResourceName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceName)
}

// NewNotFoundError creates a new NotFoundError with the specified resource
// type and name.
func NewNotFoundError(resourceType, resourceName string) *NotFoundError {
	return &NotFoundError{ResourceType: resourceType, ResourceName: resourceName}
}

// IsNotFound checks if an error is a NotFoundError using error unwrapping.
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// AlreadyExistsError is returned when registering a scenario whose ID is
// already taken. Duplicate IDs are a configuration mistake and are rejected
// at registration time, never silently overwritten.
type AlreadyExistsError struct {
	ResourceType string
	ResourceName string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.ResourceType, e.ResourceName)
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceName string) *AlreadyExistsError {
	return &AlreadyExistsError{ResourceType: resourceType, ResourceName: resourceName}
}

// IsAlreadyExists checks if an error is an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var existsErr *AlreadyExistsError
	return errors.As(err, &existsErr)
}

// ValidationError describes an invalid scenario definition. Field carries a
// dotted location within the definition (e.g., "mocks[2].captureState") so
// authors can find the offending declaration.
type ValidationError struct {
	ScenarioID string
	Field      string
	Message    string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("scenario %s: %s: %s", e.ScenarioID, e.Field, e.Message)
	}
	return fmt.Sprintf("scenario %s: %s", e.ScenarioID, e.Message)
}

// NewValidationError creates a new ValidationError for the given scenario,
// field location, and message.
func NewValidationError(scenarioID, field, message string) *ValidationError {
	return &ValidationError{ScenarioID: scenarioID, Field: field, Message: message}
}

// IsValidation checks if an error is a ValidationError.
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// NoMockFoundError is the policy-driven error raised when neither the active
// tier nor the default tier yields a matching rule for a request.
type NoMockFoundError struct {
	TestID     string
	Method     string
	URL        string
	ScenarioID string
}

func (e *NoMockFoundError) Error() string {
	if e.ScenarioID != "" {
		return fmt.Sprintf("no mock found for %s %s (test %s, scenario %s)", e.Method, e.URL, e.TestID, e.ScenarioID)
	}
	return fmt.Sprintf("no mock found for %s %s (test %s)", e.Method, e.URL, e.TestID)
}

// IsNoMockFound checks if an error is a NoMockFoundError.
func IsNoMockFound(err error) bool {
	var noMockErr *NoMockFoundError
	return errors.As(err, &noMockErr)
}

// SequenceExhaustedError is raised when every rule that matched a request is
// a non-repeating sequence that has already served its last response, and no
// other candidate exists in either tier.
type SequenceExhaustedError struct {
	TestID     string
	ScenarioID string
	RuleIndex  int
}

func (e *SequenceExhaustedError) Error() string {
	return fmt.Sprintf("sequence exhausted for test %s (scenario %s, mock %d)", e.TestID, e.ScenarioID, e.RuleIndex)
}

// IsSequenceExhausted checks if an error is a SequenceExhaustedError.
func IsSequenceExhausted(err error) bool {
	var exhaustedErr *SequenceExhaustedError
	return errors.As(err, &exhaustedErr)
}

// MissingTestIDError is raised when the caller could not supply a test ID and
// the configured behavior does not tolerate that.
type MissingTestIDError struct {
	Method string
	URL    string
}

func (e *MissingTestIDError) Error() string {
	return fmt.Sprintf("no test ID for %s %s", e.Method, e.URL)
}

// IsMissingTestID checks if an error is a MissingTestIDError.
func IsMissingTestID(err error) bool {
	var missingErr *MissingTestIDError
	return errors.As(err, &missingErr)
}

// HandlerError wraps an unexpected internal failure during selection. Unlike
// the policy-driven errors above it is never downgraded by configured error
// behaviors: it is always logged and always returned to the caller.
type HandlerError struct {
	TestID string
	Cause  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("internal error selecting response for test %s: %v", e.TestID, e.Cause)
}

func (e *HandlerError) Unwrap() error {
	return e.Cause
}

// NewHandlerError wraps an internal failure for the given test session.
func NewHandlerError(testID string, cause error) *HandlerError {
	return &HandlerError{TestID: testID, Cause: cause}
}

// IsHandlerError checks if an error is a HandlerError.
func IsHandlerError(err error) bool {
	var handlerErr *HandlerError
	return errors.As(err, &handlerErr)
}
