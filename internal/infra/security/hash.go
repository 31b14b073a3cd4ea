package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/bastianbaeza/JackdawSoft/internal/infra/config"
)

// ErrMalformedHash indicates a stored hash is not in the salt:hash format.
var ErrMalformedHash = errors.New("malformed password hash")

// Hasher derives and verifies Argon2id password hashes. Stored values are
// base64(salt):base64(key).
type Hasher struct {
	cfg config.Argon2Settings
}

func NewHasher(cfg config.Argon2Settings) *Hasher {
	return &Hasher{cfg: cfg}
}

func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt,
		h.cfg.Iterations, h.cfg.Memory, h.cfg.Parallelism, h.cfg.KeyLength)

	return base64.RawStdEncoding.EncodeToString(salt) + ":" +
		base64.RawStdEncoding.EncodeToString(key), nil
}

func (h *Hasher) Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 2 {
		return false, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return false, ErrMalformedHash
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, ErrMalformedHash
	}

	key := argon2.IDKey([]byte(password), salt,
		h.cfg.Iterations, h.cfg.Memory, h.cfg.Parallelism, uint32(len(expected)))

	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}
