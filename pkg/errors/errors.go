package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation represents input validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeEmbedding represents embedding provider errors
	ErrorTypeEmbedding ErrorType = "embedding"
	// ErrorTypeVector represents vector store errors
	ErrorTypeVector ErrorType = "vector"
	// ErrorTypeGraph represents graph store errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypePartialWrite represents a one-sided ingestion write
	ErrorTypePartialWrite ErrorType = "partial_write"
	// ErrorTypeRetrieval represents retrieval coordination errors
	ErrorTypeRetrieval ErrorType = "retrieval"
	// ErrorTypeAdmin represents bulk management errors
	ErrorTypeAdmin ErrorType = "admin"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// Store names used in classified errors
const (
	StoreVector = "vector"
	StoreGraph  = "graph"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Validation Errors

// ErrValidationFailed is returned when a required input field is missing or empty
type ErrValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewValidationFailed(field, reason string) *ErrValidationFailed {
	return &ErrValidationFailed{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("invalid input: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Embedding Errors

// ErrEmbeddingFailed is returned when the embedding provider request fails
type ErrEmbeddingFailed struct {
	*BaseError
	Model string
}

func NewEmbeddingFailed(model string, err error) *ErrEmbeddingFailed {
	return &ErrEmbeddingFailed{
		BaseError: NewBaseError(ErrorTypeEmbedding, fmt.Sprintf("embedding request failed: model %s", model), err),
		Model:     model,
	}
}

// ErrEmbeddingDimensionMismatch is returned when the provider returns a vector
// of an unexpected length
type ErrEmbeddingDimensionMismatch struct {
	*BaseError
	Want int
	Got  int
}

func NewEmbeddingDimensionMismatch(want, got int) *ErrEmbeddingDimensionMismatch {
	return &ErrEmbeddingDimensionMismatch{
		BaseError: NewBaseError(ErrorTypeEmbedding, fmt.Sprintf("embedding dimension mismatch: want %d, got %d", want, got), nil),
		Want:      want,
		Got:       got,
	}
}

// Store Errors

// ErrVectorStoreFailed is returned when a vector store operation fails
type ErrVectorStoreFailed struct {
	*BaseError
	Operation string
	ChunkID   string
}

func NewVectorStoreFailed(operation, chunkID string, err error) *ErrVectorStoreFailed {
	return &ErrVectorStoreFailed{
		BaseError: NewBaseError(ErrorTypeVector, fmt.Sprintf("vector store %s failed", operation), err),
		Operation: operation,
		ChunkID:   chunkID,
	}
}

// ErrGraphStoreFailed is returned when a graph store operation fails
type ErrGraphStoreFailed struct {
	*BaseError
	Operation string
	Key       string
}

func NewGraphStoreFailed(operation, key string, err error) *ErrGraphStoreFailed {
	return &ErrGraphStoreFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("graph store %s failed", operation), err),
		Operation: operation,
		Key:       key,
	}
}

// Ingestion Errors

// ErrPartialWrite is returned when one store accepted the chunk and the other
// rejected it. FailedStore names the half that failed; the chunk is retry-safe
// because both stores upsert by chunk_id.
type ErrPartialWrite struct {
	*BaseError
	ChunkID        string
	SucceededStore string
	FailedStore    string
}

func NewPartialWrite(chunkID, succeededStore, failedStore string, err error) *ErrPartialWrite {
	return &ErrPartialWrite{
		BaseError: NewBaseError(ErrorTypePartialWrite,
			fmt.Sprintf("partial write for chunk %s: %s write succeeded, %s write failed", chunkID, succeededStore, failedStore), err),
		ChunkID:        chunkID,
		SucceededStore: succeededStore,
		FailedStore:    failedStore,
	}
}

// Retrieval Errors

// ErrTwoSourceFailure is returned when both the graph and vector queries fail
// during a single retrieval. Distinct from an empty result.
type ErrTwoSourceFailure struct {
	*BaseError
	GraphErr  error
	VectorErr error
}

func NewTwoSourceFailure(graphErr, vectorErr error) *ErrTwoSourceFailure {
	return &ErrTwoSourceFailure{
		BaseError: NewBaseError(ErrorTypeRetrieval,
			fmt.Sprintf("both retrieval sources failed: graph: %v; vector: %v", graphErr, vectorErr), nil),
		GraphErr:  graphErr,
		VectorErr: vectorErr,
	}
}

// Admin Errors

// ErrStoreClearFailed is returned when clearing one or both stores fails
type ErrStoreClearFailed struct {
	*BaseError
	FailedStores []string
}

func NewStoreClearFailed(failedStores []string, err error) *ErrStoreClearFailed {
	return &ErrStoreClearFailed{
		BaseError:    NewBaseError(ErrorTypeAdmin, fmt.Sprintf("store clear failed: %v", failedStores), err),
		FailedStores: failedStores,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	if baseErr, ok := err.(*BaseError); ok {
		return baseErr.Type == errType
	}
	if typed, ok := err.(interface{ Base() *BaseError }); ok {
		return typed.Base().Type == errType
	}
	// Check wrapped errors
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		return IsErrorType(wrapped.Unwrap(), errType)
	}
	return false
}

// Base exposes the embedded BaseError for type checks on concrete errors
func (e *ErrValidationFailed) Base() *BaseError           { return e.BaseError }
func (e *ErrEmbeddingFailed) Base() *BaseError            { return e.BaseError }
func (e *ErrEmbeddingDimensionMismatch) Base() *BaseError { return e.BaseError }
func (e *ErrVectorStoreFailed) Base() *BaseError          { return e.BaseError }
func (e *ErrGraphStoreFailed) Base() *BaseError           { return e.BaseError }
func (e *ErrPartialWrite) Base() *BaseError               { return e.BaseError }
func (e *ErrTwoSourceFailure) Base() *BaseError           { return e.BaseError }
func (e *ErrStoreClearFailed) Base() *BaseError           { return e.BaseError }
func (e *ErrConfigMissingRequired) Base() *BaseError      { return e.BaseError }

// IsPartialWrite checks whether err represents one-sided ingestion state
func IsPartialWrite(err error) bool {
	_, ok := err.(*ErrPartialWrite)
	return ok
}

// IsValidation checks whether err is an input validation error
func IsValidation(err error) bool {
	_, ok := err.(*ErrValidationFailed)
	return ok
}
