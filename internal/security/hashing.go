package security

import "golang.org/x/crypto/bcrypt"

// Hasher derives and verifies bcrypt password hashes at a fixed cost.
type Hasher struct {
	Cost int
}

// NewHasher clamps cost into bcrypt's supported range; zero or a negative
// value selects the library default.
func NewHasher(cost int) *Hasher {
	switch {
	case cost <= 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash returns the bcrypt hash of password. Only the hash ever reaches the
// users table; the plaintext stays in the login request.
func (h *Hasher) Hash(password []byte) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare reports whether password matches the stored hash. A mismatch
// surfaces as bcrypt.ErrMismatchedHashAndPassword.
func (h *Hasher) Compare(hash string, password []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), password)
}
