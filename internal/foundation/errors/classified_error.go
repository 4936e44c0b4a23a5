package errors

import (
	stderrors "errors"
)

// ClassifiedError is an error with a category, a severity, a retry hint and
// structured context. Build one with NewError or WrapError.
type ClassifiedError struct {
	category  ErrorCategory
	severity  ErrorSeverity
	retryable bool
	message   string
	cause     error
	context   ErrorContext
}

// Error renders "category: message" followed by the cause, if any.
func (e *ClassifiedError) Error() string {
	s := string(e.category) + ": " + e.message
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory { return e.category }

func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }

// Message is the error text without category or cause.
func (e *ClassifiedError) Message() string { return e.message }

func (e *ClassifiedError) Cause() error { return e.cause }

func (e *ClassifiedError) Context() ErrorContext { return e.context }

// CanRetry reports whether repeating the operation may succeed.
func (e *ClassifiedError) CanRetry() bool { return e.retryable }

// WithContext returns a copy of e with key set; e is not modified.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	clone := *e
	clone.context = e.context.clone().Set(key, value)
	return &clone
}

// Is treats two classified errors as equal when category and message match,
// so sentinel errors survive WithContext.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	return ok && e.category == other.category && e.message == other.message
}

// AsClassified returns the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// HasCategory reports whether the first classified error in err's chain has
// the given category.
func HasCategory(err error, category ErrorCategory) bool {
	c, ok := AsClassified(err)
	return ok && c.category == category
}

// GetCategory returns err's category, CategoryInternal for unclassified errors.
func GetCategory(err error) ErrorCategory {
	if c, ok := AsClassified(err); ok {
		return c.category
	}
	return CategoryInternal
}

// GetSeverity returns err's severity, SeverityError for unclassified errors.
func GetSeverity(err error) ErrorSeverity {
	if c, ok := AsClassified(err); ok {
		return c.severity
	}
	return SeverityError
}

// IsRetryable reports whether err is classified as retryable.
func IsRetryable(err error) bool {
	c, ok := AsClassified(err)
	return ok && c.retryable
}
