package verify

import "veriseal/internal/certificate/models"

// Classify produces the trust verdict for a record that was found in
// storage. This is pure domain logic - no I/O, no side effects.
//
// Verdict precedence is fixed and must not be reordered:
//
//	revoked > hash mismatch > valid
//
// Revocation is checked before tamper detection, so a certificate that is
// both revoked and tampered reports as revoked. Reordering would let an
// attacker choose which signal the public sees, which changes the security
// semantics of the endpoint. The not-found case precedes all of these and
// is handled by the caller, since a missing record has nothing to classify.
//
// The recompute callback keeps the function lazy: the digest is only
// re-derived when the verdict actually depends on it. The second return
// value reports whether the comparison ran, and its outcome.
func Classify(cert *models.Certificate, recompute func(*models.Certificate) string) (Classification, *bool) {
	if cert.IsRevoked() {
		return ClassificationRevoked, nil
	}
	match := recompute(cert) == cert.Digest
	if !match {
		return ClassificationTampered, &match
	}
	return ClassificationValid, &match
}
