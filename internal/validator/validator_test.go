package validator_test

import (
	"testing"

	"jobportal_backend/internal/dto"
	"jobportal_backend/internal/validator"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_InitiatePaymentRequest(t *testing.T) {
	v := validator.New()

	assert.NoError(t, v.Validate(&dto.InitiatePaymentRequest{Plan: "standard"}))
	assert.NoError(t, v.Validate(&dto.InitiatePaymentRequest{PlanID: uuid.NewString()}))

	err := v.Validate(&dto.InitiatePaymentRequest{})
	var vErr *validator.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Errors, "plan")

	err = v.Validate(&dto.InitiatePaymentRequest{Plan: "gold"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Must be one of: standard, premium", vErr.Errors["plan"])

	err = v.Validate(&dto.InitiatePaymentRequest{PlanID: "not-a-uuid"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Must be a valid UUID", vErr.Errors["plan_id"])
}

func TestValidator_StatusCheckRequest(t *testing.T) {
	v := validator.New()

	assert.NoError(t, v.Validate(&dto.StatusCheckRequest{TransactionUUID: "abc", TotalAmount: "999.00"}))

	err := v.Validate(&dto.StatusCheckRequest{TotalAmount: "ten"})
	var vErr *validator.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "This field is required", vErr.Errors["transaction_uuid"])
	assert.Equal(t, "Must be a number", vErr.Errors["total_amount"])
	assert.Contains(t, vErr.Error(), "field 'total_amount'")
}
