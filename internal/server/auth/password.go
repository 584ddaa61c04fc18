package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/csemotors/internal/logging"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for every stored password hash.
const BcryptCost = 10

// Hasher hashes and verifies account passwords with bcrypt. Each hash
// embeds its own random salt.
type Hasher struct {
	cost   int
	logger logging.Logger

	dummyOnce sync.Once
	dummy     []byte
}

func NewHasher(logger logging.Logger) *Hasher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Hasher{cost: BcryptCost, logger: logger.With("module", "password_hasher")}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plaintext matches hash. A malformed stored hash
// is logged and reported as a mismatch.
func (h *Hasher) Verify(plaintext, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true
	}
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		h.logger.Error(context.Background(), "stored password hash is unusable", "error", err)
	}
	return false
}

// Equalize spends the same work as a real Verify so that logins for
// unknown emails take as long as logins with a wrong password.
func (h *Hasher) Equalize(plaintext string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("equalize-login-timing"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
}
