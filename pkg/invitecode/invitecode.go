package invitecode

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samborkent/uuidv7"
)

// Generate builds an opaque invite code for a private duel match. The code
// embeds the match ID so joining through a code needs no extra lookup.
func Generate(matchID string) string {
	uniqueID := uuidv7.New()

	code := fmt.Sprintf("%s|%s", matchID, uniqueID.String())

	return base64.StdEncoding.EncodeToString([]byte(code))
}

// Decode splits an invite code back into the match ID and the unique suffix
// it was issued with.
func Decode(code string) (matchID, uniqueID string, err error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(code)
	if err != nil {
		return "", "", err
	}
	res := strings.Split(string(decodedBytes), "|")
	if len(res) != 2 {
		return "", "", fmt.Errorf("not correct format")
	}
	return res[0], res[1], nil
}
