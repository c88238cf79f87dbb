package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2000-01-01 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, "2000-01-01", FormatDate(d))

	_, err = ParseDate("01/01/2000")
	assert.Error(t, err)
	assert.Equal(t, "", FormatDate(time.Time{}))
}

func TestSafeRedirect(t *testing.T) {
	assert.Equal(t, "/classes", SafeRedirect("/classes", "/"))
	assert.Equal(t, "/", SafeRedirect("", "/"))
	assert.Equal(t, "/", SafeRedirect("https://evil.example", "/"))
	assert.Equal(t, "/", SafeRedirect("//evil.example", "/"))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, ParseDuration("3s", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("nope", time.Minute))
}
