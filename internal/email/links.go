package email

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// VerificationHash derives the hash embedded in verification links.
// The verify endpoint recomputes it from the stored address, so a
// link only works for the address it was mailed to.
func VerificationHash(address string) string {
	sum := sha1.Sum([]byte(address))
	return hex.EncodeToString(sum[:])
}

// VerificationLink builds the link mailed to a user to confirm their
// email address.
func VerificationLink(baseURL, userID, address string) string {
	return fmt.Sprintf("%s/%s/%s", baseURL, userID, VerificationHash(address))
}
