package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
)

type sample struct {
	Email string `form:"email" validate:"required,email"`
	Name  string `form:"first_name" validate:"required,max=5"`
	DOB   string `form:"dob" validate:"required,datetime=2006-01-02"`
	Year  int    `validate:"gte=1900"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{Email: "a@x.com", Name: "Ann", DOB: "2000-01-01", Year: 2024}))
}

func TestStruct_FieldMessages(t *testing.T) {
	err := Struct(sample{Email: "not-an-email", Name: "Annabelle", DOB: "01/01/2000"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	verr, ok := apperrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Enter a valid email address.", verr.For("email"))
	assert.Equal(t, "Ensure this value has at most 5 characters.", verr.For("first_name"))
	assert.Equal(t, "Enter a valid date (YYYY-MM-DD).", verr.For("dob"))
	assert.Equal(t, "Ensure this value is at least 1900.", verr.For("Year"))
}

func TestStruct_Required(t *testing.T) {
	verr, ok := apperrors.AsValidation(Struct(sample{Year: 2000}))
	require.True(t, ok)
	assert.Equal(t, "This field is required.", verr.For("email"))
	assert.Equal(t, "This field is required.", verr.For("dob"))
}
