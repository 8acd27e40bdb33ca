package service

import (
	"errors"
	"fmt"
)

// ErrorKind separates "couldn't search the knowledge base" from
// "couldn't generate a response" so handlers can message the user
// appropriately.
type ErrorKind string

const (
	ErrorKindEmbedding  ErrorKind = "embedding"
	ErrorKindRetrieval  ErrorKind = "retrieval"
	ErrorKindGeneration ErrorKind = "generation"
	ErrorKindValidation ErrorKind = "validation"
)

// PipelineError is a typed failure from one of the pipeline's
// external collaborators or from input validation.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func NewEmbeddingError(message string, err error) *PipelineError {
	return &PipelineError{Kind: ErrorKindEmbedding, Message: message, Err: err}
}

func NewRetrievalError(message string, err error) *PipelineError {
	return &PipelineError{Kind: ErrorKindRetrieval, Message: message, Err: err}
}

func NewGenerationError(message string, err error) *PipelineError {
	return &PipelineError{Kind: ErrorKindGeneration, Message: message, Err: err}
}

func NewValidationError(message string) *PipelineError {
	return &PipelineError{Kind: ErrorKindValidation, Message: message}
}

// KindOf reports the pipeline error kind, or "" for untyped errors.
func KindOf(err error) ErrorKind {
	var pErr *PipelineError
	if errors.As(err, &pErr) {
		return pErr.Kind
	}
	return ""
}
