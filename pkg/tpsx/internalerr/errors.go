package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnknownTopic        = errors.New("unknown topic")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrPersistence         = errors.New("persistence failure")
	ErrNotFound            = errors.New("not found")
)
