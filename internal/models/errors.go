package models

import "errors"

var (
	ErrEmptyBusinessName = errors.New("business name is required")
	ErrNoProviders       = errors.New("no AI providers are enabled with a valid API key")
	ErrUnknownProvider   = errors.New("unsupported provider")
	ErrRunNotFound       = errors.New("run not found")
	ErrNoQueries         = errors.New("no queries to run")
)
