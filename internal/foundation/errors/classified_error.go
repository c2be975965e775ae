package errors

import (
	stderrors "errors"
	"maps"
)

// ClassifiedError is an error tagged with a category and context fields.
type ClassifiedError struct {
	category ErrorCategory
	message  string
	cause    error
	fields   Fields
}

func (e *ClassifiedError) Error() string {
	s := string(e.category) + ": " + e.message
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory { return e.category }
func (e *ClassifiedError) Message() string         { return e.message }
func (e *ClassifiedError) Cause() error            { return e.cause }

// Context returns a copy of the error's fields.
func (e *ClassifiedError) Context() Fields { return maps.Clone(e.fields) }

// AsClassified finds the first ClassifiedError in the chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// HasCategory reports whether the first ClassifiedError in the chain has
// category c.
func HasCategory(err error, c ErrorCategory) bool {
	ce, ok := AsClassified(err)
	return ok && ce.category == c
}

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{category: category, message: message}}
}

// WrapError starts an error of the given category caused by err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

// WithContext sets one field; a repeated key keeps the last value.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	if b.err.fields == nil {
		b.err.fields = Fields{}
	}
	b.err.fields[key] = value
	return b
}

// Build returns the error. The builder can keep being used without
// affecting it.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	out.fields = maps.Clone(b.err.fields)
	return &out
}

func ConfigError(message string) *ErrorBuilder     { return NewError(CategoryConfig, message) }
func ValidationError(message string) *ErrorBuilder { return NewError(CategoryValidation, message) }
func NotFoundError(message string) *ErrorBuilder   { return NewError(CategoryNotFound, message) }
func ToolError(message string) *ErrorBuilder       { return NewError(CategoryTool, message) }
func TaskError(message string) *ErrorBuilder       { return NewError(CategoryTask, message) }
func InternalError(message string) *ErrorBuilder   { return NewError(CategoryInternal, message) }
