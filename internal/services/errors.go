// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/querylab/internal/utils"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidInput            = errors.New("invalid input")
	ErrReferencedEntityMissing = errors.New("referenced entity missing")
)

type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type InvalidInputError struct {
	Fields []utils.ValidationError
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Reason != "" {
		return "invalid input: " + e.Reason
	}
	return "invalid input"
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

type MissingReferenceError struct {
	Resource string
	ID       int64
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("referenced %s %d does not exist", e.Resource, e.ID)
}

func (e *MissingReferenceError) Is(target error) bool {
	return target == ErrReferencedEntityMissing
}

// validateRequest runs struct validation and converts failures to InvalidInputError.
func validateRequest(req interface{}) error {
	if err := utils.ValidateStruct(req); err != nil {
		return &InvalidInputError{Fields: utils.GetValidationErrors(err), Reason: "validation failed"}
	}
	return nil
}

// lookupError maps gorm's not-found to NotFoundError and wraps anything else.
func lookupError(err error, resource string, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return fmt.Errorf("database error: %w", err)
}
