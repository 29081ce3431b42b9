package utils

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrorRecordNotFound = errors.New("record not found")

// NotFoundError is returned when a lookup by id or natural key matches nothing.
type NotFoundError struct {
	Resource string
	Field    string
	Value    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with %s: %v", e.Resource, e.Field, e.Value)
}

// Is lets callers keep using errors.Is(err, ErrorRecordNotFound).
func (e *NotFoundError) Is(target error) bool {
	return target == ErrorRecordNotFound
}

func NewNotFoundError(resource string, field string, value any) error {
	return &NotFoundError{Resource: resource, Field: field, Value: value}
}

// BusinessRuleError reports a broken lifecycle or amount rule.
type BusinessRuleError struct {
	Message string
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

func NewBusinessRuleError(format string, args ...any) error {
	return &BusinessRuleError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError carries one message per offending input field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field string, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// ErrOrNil returns nil when no field failed.
func (e *ValidationError) ErrOrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func IsBusinessRuleError(err error) bool {
	var target *BusinessRuleError
	return errors.As(err, &target)
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
