package bcrypt

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/nexopanel/tenantcore/internal/domain"
)

// Compile-time check: Hasher implements domain.PasswordHasher.
var _ domain.PasswordHasher = (*Hasher)(nil)

// Hasher implements domain.PasswordHasher with bcrypt. The output of a
// single pass carries bcrypt's "$2a$" algorithm marker, which lets
// callers detect accidental double hashing.
type Hasher struct {
	cost int
}

// New creates a hasher at bcrypt's default cost.
func New() *Hasher {
	return &Hasher{cost: bcrypt.DefaultCost}
}

// NewWithCost creates a hasher at the given cost. Tests use
// bcrypt.MinCost to keep hashing fast.
func NewWithCost(cost int) *Hasher {
	return &Hasher{cost: cost}
}

// Hash derives a salted hash from the plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(out), nil
}

// Verify reports whether plaintext matches the stored hash.
func (h *Hasher) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
