package checksum

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Fingerprint hashes a name and a body separated by a newline and returns
// the digest as unpadded URL-safe base64. Weave uses it to tell whether an
// embedded script changed since it last ran.
func Fingerprint(name, body string) string {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write([]byte("\n"))
	h.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
