package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
	ErrCodeUnavailable      = "UNAVAILABLE"
)

// Validation errors
var (
	ErrEmptyQuestion     = NewDomainError(ErrCodeValidation, "question text and image are both empty")
	ErrMissingRequired   = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidCategory   = NewDomainError(ErrCodeValidation, "unknown category")
	ErrInvalidEmbedding  = NewDomainError(ErrCodeValidation, "embedding has unexpected dimensions")
	ErrInvalidStructCode = NewDomainError(ErrCodeValidation, "structured code is empty after normalization")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrChunkNotFound    = NewDomainError(ErrCodeNotFound, "chunk not found")
)

// Collaborator errors
var (
	ErrSolverUnavailable    = NewDomainError(ErrCodeUnavailable, "solver backend not configured")
	ErrOCRUnavailable       = NewDomainError(ErrCodeUnavailable, "image text extraction not configured")
	ErrEmbedderUnavailable  = NewDomainError(ErrCodeUnavailable, "embedding backend not configured")
	ErrStorageOperationFail = NewDomainError(ErrCodeInternalError, "storage operation failed")
)
