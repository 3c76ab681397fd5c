package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManualPasteRawCode(t *testing.T) {
	result, err := parseManualPaste("abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", result.Code)
	assert.Equal(t, "", result.State)
}

func TestParseManualPasteCodeHashState(t *testing.T) {
	result, err := parseManualPaste("abc123#xyz789")
	require.NoError(t, err)
	assert.Equal(t, "abc123", result.Code)
	assert.Equal(t, "xyz789", result.State)
}

func TestParseManualPasteFullURL(t *testing.T) {
	result, err := parseManualPaste("http://127.0.0.1:1455/auth/callback?code=abc123&state=xyz789")
	require.NoError(t, err)
	assert.Equal(t, "abc123", result.Code)
	assert.Equal(t, "xyz789", result.State)
}

func TestParseManualPasteEmpty(t *testing.T) {
	_, err := parseManualPaste("   ")
	assert.Error(t, err)
}

func TestVerifyState(t *testing.T) {
	assert.NoError(t, verifyState("a", "a"))
	assert.Error(t, verifyState("a", "b"))
}
