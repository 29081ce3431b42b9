package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("Expense", "id", 42)
	if err.Error() != "Expense not found with id: 42" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	wrapped := fmt.Errorf("load: %w", err)
	if !errors.Is(wrapped, ErrorRecordNotFound) {
		t.Fatalf("wrapped not found must match ErrorRecordNotFound")
	}
	if IsBusinessRuleError(err) || IsValidationError(err) {
		t.Fatalf("not found must not match other kinds")
	}
}

func TestBusinessRuleError(t *testing.T) {
	err := NewBusinessRuleError("Remaining: %s", "0.00")
	if err.Error() != "Remaining: 0.00" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if !IsBusinessRuleError(fmt.Errorf("wrap: %w", err)) {
		t.Fatalf("expected business rule error")
	}
	if errors.Is(err, ErrorRecordNotFound) {
		t.Fatalf("business rule must not match not found")
	}
}

func TestValidationError(t *testing.T) {
	var empty *ValidationError
	if empty.ErrOrNil() != nil {
		t.Fatalf("nil validation error must be nil")
	}
	v := &ValidationError{}
	if v.ErrOrNil() != nil {
		t.Fatalf("empty validation error must be nil")
	}
	v.Add("b", "b is required")
	v.Add("a", "a is required")
	v.Add("a", "a is ignored")
	err := v.ErrOrNil()
	if err == nil {
		t.Fatalf("expected error")
	}
	if err.Error() != "validation failed: a is required; b is required" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if !IsValidationError(err) {
		t.Fatalf("expected validation error kind")
	}
}
