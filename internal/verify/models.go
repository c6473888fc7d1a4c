package verify

import (
	"time"

	"veriseal/internal/certificate/models"
)

// Classification is the four-way trust verdict. Only valid and revoked are
// ever stored on a record; tampered and invalid exist purely as derived
// outcomes of verification.
type Classification string

const (
	ClassificationValid    Classification = "valid"
	ClassificationTampered Classification = "tampered"
	ClassificationRevoked  Classification = "revoked"
	ClassificationInvalid  Classification = "invalid"
)

// CertificateDetail is the public projection of a record returned alongside
// a verdict. The stored digest is deliberately absent: the verdict already
// communicates the integrity outcome, and echoing the digest would hand a
// forger the value to aim for.
type CertificateDetail struct {
	Identifier    string         `json:"identifier"`
	Kind          models.Kind    `json:"kind"`
	SubjectName   string         `json:"subject_name"`
	EnrollmentRef string         `json:"enrollment_ref,omitempty"`
	CourseRef     string         `json:"course_ref,omitempty"`
	IssuedAt      time.Time      `json:"issued_at"`
	Details       models.Details `json:"details,omitempty"`
}

// Result is the outcome of one verification. HashMatch is set only when the
// digest comparison actually ran, so revoked and not-found results carry no
// misleading integrity signal.
type Result struct {
	Status      Classification     `json:"status"`
	Message     string             `json:"message"`
	HashMatch   *bool              `json:"hash_match,omitempty"`
	HashMessage string             `json:"hash_message,omitempty"`
	Certificate *CertificateDetail `json:"certificate,omitempty"`
}

func detailOf(cert *models.Certificate) *CertificateDetail {
	return &CertificateDetail{
		Identifier:    cert.Identifier,
		Kind:          cert.Kind,
		SubjectName:   cert.SubjectName,
		EnrollmentRef: cert.EnrollmentRef,
		CourseRef:     cert.CourseRef,
		IssuedAt:      cert.IssuedAt,
		Details:       models.ResolveDetails(cert),
	}
}
