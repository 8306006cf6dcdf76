package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session has not been opened or was already closed.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionsNotFound indicates the question set could not be loaded from its backing store.
	ErrQuestionsNotFound = errors.New("questions not found")
	// ErrInvalidQuestion indicates a loaded question is malformed.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrUnexpectedStatus is returned when a question source answers with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)
