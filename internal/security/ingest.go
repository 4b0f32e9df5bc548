package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidIngestToken = errors.New("invalid ingest token")

// IngestVerifier checks the shared secret presented by confirmation feeds
// against a bcrypt hash, so the plain secret never sits in config.
type IngestVerifier struct {
	hash []byte
}

func NewIngestVerifier(tokenHash string) *IngestVerifier {
	return &IngestVerifier{hash: []byte(tokenHash)}
}

func (v *IngestVerifier) Verify(token string) error {
	if len(v.hash) == 0 || token == "" {
		return ErrInvalidIngestToken
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(token)); err != nil {
		return ErrInvalidIngestToken
	}
	return nil
}

// HashIngestToken produces the value for ingest.token_hash.
func HashIngestToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
