// Package core provides the agent memory Manager: importance-scored storage,
// time-weighted retrieval and reflection over one agent's memory stream.
package core

import (
	"errors"
	"fmt"

	"github.com/oceanbase/agentmem-go/pkg/intelligence"
	"github.com/oceanbase/agentmem-go/pkg/storage"
)

// Predefined errors for common failure scenarios.
var (
	// ErrNotFound indicates that a requested memory was not found.
	ErrNotFound = storage.ErrNotFound

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidInput indicates that the provided input is invalid, such as a
	// blank FetchMemories observation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyContent indicates that a memory had no content after trimming.
	ErrEmptyContent = errors.New("empty memory content")

	// ErrEmbeddingFailed indicates that embedding generation failed.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrStorageOperation indicates that a storage operation failed.
	ErrStorageOperation = errors.New("storage operation failed")

	// ErrLLMOperation indicates that an LLM operation failed.
	ErrLLMOperation = errors.New("llm operation failed")

	// ErrScoreCountMismatch indicates that a batch rating response did not
	// hold one rating per memory. Nothing is stored.
	ErrScoreCountMismatch = intelligence.ErrScoreCountMismatch

	// ErrUnparsableRating is returned with strict ratings enabled when the
	// model's rating cannot be read.
	ErrUnparsableRating = intelligence.ErrUnparsableRating

	// ErrReflectionInProgress indicates that a reflection pass is already
	// running for this Manager.
	ErrReflectionInProgress = intelligence.ErrReflectionInProgress
)

// MemoryError wraps errors with operation context.
//
// Example:
//
//	err := &MemoryError{
//	    Op:  "AddMemory",
//	    Err: ErrEmbeddingFailed,
//	}
//	// Error() returns: "agentmem: AddMemory: embedding generation failed"
type MemoryError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
func (e *MemoryError) Error() string {
	return fmt.Sprintf("agentmem: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error so errors.Is and errors.As see
// through MemoryError.
func (e *MemoryError) Unwrap() error {
	return e.Err
}

// NewMemoryError creates a new MemoryError wrapping err. A nil err yields nil,
// so it can wrap unconditionally:
//
//	return id, NewMemoryError("AddMemory", err)
func NewMemoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &MemoryError{
		Op:  op,
		Err: err,
	}
}

// wrapKind tags err with a sentinel while keeping the cause reachable.
func wrapKind(kind, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
