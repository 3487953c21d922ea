package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCategories(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		isValidation bool
		isNotFound   bool
		isConflict   bool
	}{
		{
			name:         "validation error",
			err:          NewValidationError("name", "is required"),
			isValidation: true,
		},
		{
			name:         "wrapped validation error",
			err:          fmt.Errorf("create menu: %w", NewValidationError("parent_id", "does not exist")),
			isValidation: true,
		},
		{
			name:       "menu not found",
			err:        MenuNotFound(42),
			isNotFound: true,
		},
		{
			name:       "menu has children",
			err:        ErrMenuHasChildren,
			isConflict: true,
		},
		{
			name: "update failed is internal",
			err:  ErrMenuUpdateFailed,
		},
		{
			name: "nil error",
			err:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidation(tt.err); got != tt.isValidation {
				t.Errorf("IsValidation() = %v, want %v", got, tt.isValidation)
			}
			if got := IsNotFound(tt.err); got != tt.isNotFound {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.isNotFound)
			}
			if got := IsConflict(tt.err); got != tt.isConflict {
				t.Errorf("IsConflict() = %v, want %v", got, tt.isConflict)
			}
		})
	}
}

func TestMenuUpdateFailedIsInternal(t *testing.T) {
	if !errors.Is(ErrMenuUpdateFailed, ErrInternal) {
		t.Fatal("ErrMenuUpdateFailed must match ErrInternal")
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidationError("name", "is required")
	if err.Error() != "name: is required" {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	var target *ValidationError
	if !errors.As(fmt.Errorf("wrap: %w", err), &target) {
		t.Fatal("expected errors.As to find ValidationError")
	}
	if target.Field != "name" {
		t.Fatalf("expected field name, got %q", target.Field)
	}
}

func TestMenuNotFoundMessage(t *testing.T) {
	err := MenuNotFound(7)
	if err.Error() != "menu with id 7: menu not found" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
