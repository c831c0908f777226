package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineInput struct {
	ProductID int64 `validate:"required,gt=0"`
	Quantity  int   `validate:"required,gt=0"`
}

type orderInput struct {
	UserID int64       `validate:"required,gt=0"`
	Status string      `validate:"omitempty,order_status"`
	Items  []lineInput `validate:"required,min=1,dive"`
}

func TestValidateStructReportsNestedFields(t *testing.T) {
	err := ValidateStruct(orderInput{UserID: 1, Items: []lineInput{{ProductID: 1, Quantity: 0}}})
	require.Error(t, err)

	errs := GetValidationErrors(err)
	require.Len(t, errs, 1)
	assert.Equal(t, "items[0].quantity", errs[0].Field)
	assert.Equal(t, "required", errs[0].Tag)
}

func TestValidateStructEmptyItems(t *testing.T) {
	errs := GetValidationErrors(ValidateStruct(orderInput{UserID: 1, Items: []lineInput{}}))
	require.Len(t, errs, 1)
	assert.Equal(t, "items", errs[0].Field)
	assert.Equal(t, "min", errs[0].Tag)
}

func TestOrderStatusValidation(t *testing.T) {
	ok := orderInput{UserID: 1, Status: "shipped", Items: []lineInput{{ProductID: 1, Quantity: 1}}}
	assert.NoError(t, ValidateStruct(ok))

	bad := ok
	bad.Status = "lost"
	errs := GetValidationErrors(ValidateStruct(bad))
	require.Len(t, errs, 1)
	assert.Equal(t, "order_status", errs[0].Tag)
}

func TestGetValidationErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Empty(t, GetValidationErrors(nil))
	assert.Empty(t, GetValidationErrors(assert.AnError))
}
