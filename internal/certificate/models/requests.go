package models

import "time"

// IssueRequest carries the issuer-supplied fields of a new certificate.
// IssuedAt defaults to the issuance time when zero.
type IssueRequest struct {
	Kind          Kind           `json:"kind"`
	SubjectName   string         `json:"subject_name"`
	EnrollmentRef string         `json:"enrollment_ref,omitempty"`
	CourseRef     string         `json:"course_ref,omitempty"`
	IssuedAt      time.Time      `json:"issued_at,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}
