package invitecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	matchID := "match_2f9c"
	encodedCode := Generate(matchID)
	assert.NotEmpty(t, encodedCode, "Encoded code should not be empty")
}

func TestDecode(t *testing.T) {
	// First, generate a code
	matchID := "match_2f9c"
	encodedCode := Generate(matchID)

	// Now, decode the encoded code
	decodedMatchID, decodedUUID, err := Decode(encodedCode)

	// Check if there are any errors
	assert.Nil(t, err, "Should not have an error during decoding")
	assert.Equal(t, matchID, decodedMatchID, "Decoded match ID should match the original")
	assert.NotEmpty(t, decodedUUID, "Decoded UUID should not be empty")
}

func TestDecode_ErrorHandling(t *testing.T) {
	// Pass an incorrectly formatted string
	_, _, err := Decode("this is not a base64 string")
	assert.NotNil(t, err, "Expected an error for incorrect base64 string")

	// Valid base64 but missing the separator
	_, _, err = Decode("bm9zZXBhcmF0b3I=")
	assert.NotNil(t, err, "Expected an error for a code without a separator")
}
