package services

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "labelcli/internal/errors"
)

func TestNewValidatorRegistersFontFamily(t *testing.T) {
	var v *Validator
	require.NotPanics(t, func() { v = NewValidator() })

	type sample struct {
		Font string `json:"font" validate:"font_family"`
	}
	assert.NoError(t, v.Struct(sample{Font: "Arial"}))

	err := v.Struct(sample{Font: "Comic Sans"})
	var apiErr *apperrors.APIError
	require.True(t, errors.As(err, &apiErr))
	details, ok := apiErr.Details.([]apperrors.ValidationError)
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, "font", details[0].Field)
	assert.Contains(t, details[0].Message, "font must be one of")
}

func TestRegisterTagsReportsFailure(t *testing.T) {
	v := validator.New()

	err := registerTags(v, map[string]validator.Func{"": isFontFamily})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register")

	assert.NoError(t, registerTags(v, labelTags))
}
