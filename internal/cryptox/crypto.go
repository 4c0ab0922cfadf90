// Package cryptox implements one-way password hashing for stored
// credentials. bcrypt embeds a fresh random salt in every hash, so two
// hashes of the same password never compare equal; verification goes
// through CheckPassword only.
package cryptox

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a salted bcrypt hash of the given password. cost
// controls the work factor; values below bcrypt.MinCost fall back to
// bcrypt.DefaultCost.
func HashPassword(password string, cost int) ([]byte, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

// CheckPassword reports whether password matches the stored hash. The
// comparison runs in constant time. A malformed or truncated hash yields
// false, never an error or a panic.
func CheckPassword(password string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
