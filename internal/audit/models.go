package audit

import (
	"context"
	"time"
)

// Actions recorded by the audit trail.
const (
	ActionCertificateIssued   = "certificate.issued"
	ActionCertificateRevoked  = "certificate.revoked"
	ActionCertificateVerified = "certificate.verified"
)

// Event is one append-only audit record. Verification events carry the
// verdict and the public caller's client metadata; issuance and revocation
// events carry the acting issuer.
type Event struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	ActorID    string    `json:"actor_id,omitempty"`
	Identifier string    `json:"identifier,omitempty"`
	Verdict    string    `json:"verdict,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	Browser    string    `json:"browser,omitempty"`
	OS         string    `json:"os,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Sink receives drained audit events. The memory store implements it for
// development and tests; the Kafka sink is the production path.
type Sink interface {
	Append(ctx context.Context, event Event) error
}
