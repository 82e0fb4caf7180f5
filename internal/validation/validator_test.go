package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/doableapp/doable-server/internal/errors"
)

type registerInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

func TestValidatePasses(t *testing.T) {
	v := New()
	err := v.Validate(registerInput{
		Email:    "a@example.com",
		Password: "longenough",
		Priority: "high",
	})
	assert.NoError(t, err)
}

func TestValidateReturnsDomainError(t *testing.T) {
	v := New()
	err := v.Validate(registerInput{Email: "not-an-email", Password: "short"})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email address", details["email"])
	assert.Equal(t, "must be at least 8 characters", details["password"])
}

func TestValidateUsesJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Validate(registerInput{Email: "a@example.com", Password: "longenough", Priority: "urgent"})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr))
	details := domainErr.Details.(map[string]string)
	assert.Contains(t, details, "priority")
	assert.Equal(t, "must be one of: low medium high", details["priority"])
}
