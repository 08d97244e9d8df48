package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequestReportsEachViolatedTag(t *testing.T) {
	type credentials struct {
		AccountNumber string `validate:"required,len=14,numeric"`
		PIN           string `validate:"required,len=4,numeric"`
	}

	errs := ValidateRequest(credentials{AccountNumber: "123", PIN: "12"})
	require.Len(t, errs, 2)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "len", byField["AccountNumber"].Type)
	assert.Equal(t, "Value must be exactly 14 characters", byField["AccountNumber"].Message)
	assert.Equal(t, "Value must be exactly 4 characters", byField["PIN"].Message)
}

func TestValidateRequestPassesValidStruct(t *testing.T) {
	type credentials struct {
		AccountNumber string `validate:"required,len=14,numeric"`
	}
	assert.Nil(t, ValidateRequest(credentials{AccountNumber: "12345678901234"}))
}

func TestValidateRequestRequiredAndNumericMessages(t *testing.T) {
	type credentials struct {
		AccountNumber string `validate:"required"`
		PIN           string `validate:"numeric"`
	}

	errs := ValidateRequest(credentials{PIN: "abcd"})
	require.Len(t, errs, 2)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "This field is required", byField["AccountNumber"].Message)
	assert.Equal(t, "Value must contain only digits", byField["PIN"].Message)
}
