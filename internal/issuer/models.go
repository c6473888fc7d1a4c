package issuer

import "time"

// Issuer is an organization allowed to mint certificates. Secrets are stored
// bcrypt-hashed; the plaintext exists only at registration time.
type Issuer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SecretHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
