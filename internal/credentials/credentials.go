package credentials

import (
	"golang.org/x/crypto/bcrypt"
)

// Store owns the password hashing policy. It keeps no state beyond the bcrypt
// cost factor.
type Store struct {
	cost int
}

func NewStore(cost int) *Store {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Store{cost: cost}
}

// Hash returns the salted bcrypt hash of password.
func (s *Store) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. Comparison timing is handled
// by the bcrypt primitive.
func (s *Store) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
