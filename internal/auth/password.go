// Package auth hashes and verifies user passwords.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/Veraticus/fraudwatch/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// Password hashing parameters.
const (
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
	DefaultCost       = 12
	MinCost           = bcrypt.MinCost
)

// Password validation errors.
var (
	ErrPasswordEmpty   = fmt.Errorf("%w: password cannot be empty", common.ErrInvalidInput)
	ErrPasswordTooLong = fmt.Errorf("%w: password must be at most %d bytes", common.ErrInvalidInput, MaxPasswordLength)
)

// Hasher hashes passwords with bcrypt at a fixed cost.
type Hasher struct {
	dummyHash []byte
	dummyOnce sync.Once
	cost      int
}

// NewHasher creates a hasher. Costs outside bcrypt's range fall back to
// DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the bcrypt cost used for new hashes.
func (h *Hasher) Cost() int {
	return h.cost
}

// ValidatePassword checks the rules every stored password must satisfy.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordEmpty
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// Hash validates and hashes a password. Every call uses a fresh salt.
func (h *Hasher) Hash(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify checks password against a stored hash of either format. needsRehash
// is true when the password matched a legacy digest and should be replaced.
func (h *Hasher) Verify(password, hash string) (ok, needsRehash bool) {
	if IsLegacyHash(hash) {
		return CheckLegacy(password, hash), true
	}
	return h.Check(password, hash), false
}

// IsLegacyHash reports whether hash is an unsalted SHA-256 hex digest, the
// format written by the first version of the credential store.
func IsLegacyHash(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

// CheckLegacy compares password with a legacy SHA-256 digest in constant time.
func CheckLegacy(password, hash string) bool {
	sum := sha256.Sum256([]byte(password))
	want := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(hash))) == 1
}

// Check reports whether password matches hash. The comparison is constant
// time with respect to the password.
func (h *Hasher) Check(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckMissing spends the time of one comparison when no user exists, so
// unknown usernames cost the same as wrong passwords.
func (h *Hasher) CheckMissing(password string) {
	h.dummyOnce.Do(func() {
		h.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("fraudwatch"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
}
