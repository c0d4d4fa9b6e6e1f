package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")

	ErrProgressNotFound  = errors.New("progress not found")
	ErrConcurrentUpdate  = errors.New("progress was modified concurrently")
	ErrInvalidAmount     = errors.New("amount must not be negative")
	ErrInvalidTopicOrder = errors.New("topic order must be positive")
	ErrInvalidDay        = errors.New("invalid calendar day")
	ErrEmptyBadgeName    = errors.New("badge name must not be empty")

	ErrTopicNotFound = errors.New("topic not found")
	ErrTopicLocked   = errors.New("topic is locked")
	ErrNoTestCases   = errors.New("topic has no test cases")

	ErrProjectNotFound  = errors.New("project not found")
	ErrEmptyProjectName = errors.New("project name must not be empty")
	ErrEmptyFileName    = errors.New("file name must not be empty")

	ErrEmptyCode            = errors.New("code must not be empty")
	ErrUnsupportedLanguage  = errors.New("unsupported language")
	ErrExecutionTimeout     = errors.New("execution service timed out")
	ErrExecutionUnavailable = errors.New("execution service unavailable")
	ErrContentUnavailable   = errors.New("content service unavailable")
	ErrMalformedResponse    = errors.New("content service returned a malformed response")
)
