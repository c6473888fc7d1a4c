package models

import (
	"time"

	dErrors "veriseal/pkg/domain-errors"
)

// Kind selects which optional fields of a certificate are semantically
// meaningful. It never changes how the digest is derived.
//
// The canonical capitalized form is an external contract: when a certificate
// has no course reference, the kind string substitutes for it inside the
// digest, so renaming a kind invalidates previously issued certificates.
type Kind string

const (
	KindGeneral   Kind = "General"
	KindMarksheet Kind = "Marksheet"
	KindHackathon Kind = "Hackathon"
	KindSports    Kind = "Sports"
)

// Valid reports whether k is one of the known certificate kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindGeneral, KindMarksheet, KindHackathon, KindSports:
		return true
	}
	return false
}

// Status is the persisted lifecycle flag. Only two values are ever stored;
// the richer four-way verification verdict (tampered, invalid) is derived at
// read time and never written back.
type Status string

const (
	StatusValid   Status = "valid"
	StatusRevoked Status = "revoked"
)

// Certificate is the unit of trust.
//
// Invariants:
//   - Identifier is globally unique and immutable once assigned
//   - Digest is frozen at issuance; it is recomputed only transiently during
//     verification for comparison, never persisted over the original
//   - SubjectName is non-empty
//   - Status transitions: valid → revoked only (no un-revoke path)
//
// Authenticity is a derived property: the stored digest against a fresh
// recomputation over the hashed fields. Storing it as a boolean would defeat
// tamper detection, since an out-of-band edit could flip the boolean along
// with the data.
type Certificate struct {
	Identifier    string         `json:"identifier"`
	Kind          Kind           `json:"kind"`
	SubjectName   string         `json:"subject_name"`
	EnrollmentRef string         `json:"enrollment_ref,omitempty"`
	CourseRef     string         `json:"course_ref,omitempty"`
	IssuedAt      time.Time      `json:"issued_at"`
	Status        Status         `json:"status"`
	Digest        string         `json:"digest"`
	Extra         map[string]any `json:"extra,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// HashFields returns the four strings that feed the digest, in canonical
// order, with fallbacks applied: an absent enrollment reference falls back
// to the identifier, an absent course reference to the kind. The fallback is
// resolved here, before hashing, so issuance and verification can never
// disagree on the substitution.
func (c *Certificate) HashFields() (subjectName, enrollmentRef, courseRef, identifier string) {
	enrollmentRef = c.EnrollmentRef
	if enrollmentRef == "" {
		enrollmentRef = c.Identifier
	}
	courseRef = c.CourseRef
	if courseRef == "" {
		courseRef = string(c.Kind)
	}
	return c.SubjectName, enrollmentRef, courseRef, c.Identifier
}

// IsRevoked reports whether the certificate has been revoked.
func (c *Certificate) IsRevoked() bool {
	return c.Status == StatusRevoked
}

// CanRevoke checks if the certificate can transition to revoked status.
// Returns an error if the transition is not allowed.
func (c *Certificate) CanRevoke() error {
	if c.Status == StatusRevoked {
		return dErrors.New(dErrors.CodeInvariantViolation, "certificate is already revoked")
	}
	return nil
}

// ApplyRevocation transitions the certificate to revoked status. Call
// CanRevoke first to validate the transition.
func (c *Certificate) ApplyRevocation(now time.Time) {
	c.Status = StatusRevoked
	c.UpdatedAt = now
}

// Revoke validates and applies revocation in one call.
func (c *Certificate) Revoke(now time.Time) error {
	if err := c.CanRevoke(); err != nil {
		return err
	}
	c.ApplyRevocation(now)
	return nil
}

// NewCertificate constructs a Certificate with the lifecycle fields set. The
// digest is filled in by the issuing service after the identifier is known.
func NewCertificate(identifier string, kind Kind, subjectName, enrollmentRef, courseRef string, issuedAt, now time.Time, extra map[string]any) (*Certificate, error) {
	if subjectName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "subject name cannot be empty")
	}
	if !kind.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown certificate kind")
	}
	if issuedAt.IsZero() {
		issuedAt = now
	}
	return &Certificate{
		Identifier:    identifier,
		Kind:          kind,
		SubjectName:   subjectName,
		EnrollmentRef: enrollmentRef,
		CourseRef:     courseRef,
		IssuedAt:      issuedAt,
		Status:        StatusValid,
		Extra:         extra,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
