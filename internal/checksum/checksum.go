// Package checksum computes content digests used for change detection and HTTP ETags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag returns a strong entity tag for a response body.
func ETag(body []byte) string {
	return `"` + Sum(body)[:32] + `"`
}
