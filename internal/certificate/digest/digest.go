// Package digest derives the integrity fingerprint of a certificate.
//
// The digest is SHA-256 over the separator-less concatenation of four
// fields, rendered as lowercase hex. Changing the hash function or the field
// order invalidates every previously issued certificate, so both are frozen
// here. Inputs are opaque strings: no trimming, no case folding, no date
// formatting. Callers resolve fallback substitutions (enrollment reference →
// identifier, course reference → kind) before calling in.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the length of the rendered digest in hex characters.
const Size = sha256.Size * 2

// Compute derives the certificate digest from the four hashed fields in
// canonical order. Deterministic, no side effects.
func Compute(subjectName, enrollmentRef, courseRef, identifier string) string {
	h := sha256.New()
	h.Write([]byte(subjectName))
	h.Write([]byte(enrollmentRef))
	h.Write([]byte(courseRef))
	h.Write([]byte(identifier))
	return hex.EncodeToString(h.Sum(nil))
}
