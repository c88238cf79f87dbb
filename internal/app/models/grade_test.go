package models

import (
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGrade(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"85.50", "85.50", true},
		{"85.5", "85.50", true},
		{"85", "85.00", true},
		{" 0 ", "0.00", true},
		{"999.99", "999.99", true},
		{"1000", "", false},
		{"85.555", "", false},
		{"-1", "", false},
		{"abc", "", false},
		{"", "", false},
		{".5", "", false},
		{"5.", "", false},
		{"85.-5", "", false},
		{"0.-1", "", false},
		{"85.+5", "", false},
		{"1.2.3", "", false},
		{"1_0", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			g, err := ParseGrade(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidGrade)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.String())
		})
	}
}

func TestGradeNumericConversion(t *testing.T) {
	g, err := ParseGrade("85.50")
	require.NoError(t, err)

	back, err := GradeFromNumeric(g.Numeric())
	require.NoError(t, err)
	require.NotNil(t, back)
	assert.Equal(t, g, *back)

	// 8550e-2 and 855e-1 are the same value.
	other, err := GradeFromNumeric(pgtype.Numeric{Int: big.NewInt(855), Exp: -1, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, g, *other)

	null, err := GradeFromNumeric(pgtype.Numeric{})
	require.NoError(t, err)
	assert.Nil(t, null)

	_, err = GradeFromNumeric(pgtype.Numeric{Int: big.NewInt(1), Exp: -3, Valid: true})
	assert.ErrorIs(t, err, ErrInvalidGrade)
}
