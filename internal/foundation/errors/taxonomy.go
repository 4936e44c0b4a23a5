package errors

import "maps"

// ErrorCategory routes an error to an exit code or HTTP status.
type ErrorCategory string

const (
	// Caller input.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// A fragment that cannot become a page. Always skippable.
	CategoryContent ErrorCategory = "content"

	// Save preconditions and lookups.
	CategoryAlreadyExists ErrorCategory = "already_exists"
	CategoryNotFound      ErrorCategory = "not_found"

	// Build pipeline.
	CategoryBuild      ErrorCategory = "build"
	CategoryCompiler   ErrorCategory = "compiler"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Side channels of a build and the dev server.
	CategoryEventStore ErrorCategory = "eventstore"
	CategoryNetwork    ErrorCategory = "network"

	// Bugs, including recovered panics.
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity tells whether the failed operation stopped or carried on.
type ErrorSeverity string

const (
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
)

// ErrorContext holds structured fields attached to an error.
type ErrorContext map[string]any

// Set stores value under key, allocating the map when c is nil.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get returns the value stored under key.
func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

func (c ErrorContext) clone() ErrorContext {
	out := make(ErrorContext, len(c)+1)
	maps.Copy(out, c)
	return out
}
