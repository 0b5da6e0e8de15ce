package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a bcrypt hash. Costs outside bcrypt's range fall back
// to bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// NeedsRehash reports whether hash was produced with a cost other than cost.
func NeedsRehash(hash string, cost int) bool {
	got, err := bcrypt.Cost([]byte(hash))
	return err != nil || got != cost
}
