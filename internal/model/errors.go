package model

import "errors"

// Common errors used across the application
var (
	// Participation errors
	ErrEmptyPlayerName     = errors.New("player name is required")
	ErrEmptyQuiz           = errors.New("quiz has no questions")
	ErrInvalidState        = errors.New("operation not allowed in current state")
	ErrNoAnswerSelected    = errors.New("no answer selected for current question")
	ErrInvalidAnswer       = errors.New("answer index out of range")
	ErrOperationInProgress = errors.New("another operation is in progress")

	// Admin errors
	ErrNotAuthenticated = errors.New("admin is not authenticated")
	ErrInvalidQuestion  = errors.New("invalid question")

	// Storage errors
	ErrKeyNotFound = errors.New("key not found")
)
