// Package errors provides the classified error primitives used across blogbuilder.
//
// Errors carry a category (config, content, filesystem, ...), a severity and a
// retry hint, plus structured context. A fluent builder creates them and the
// CLI and HTTP adapters turn them into exit codes and JSON responses.
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryContent, "fragment has no article body").
//		Warning().
//		WithContext("file", name).
//		Build()
package errors
