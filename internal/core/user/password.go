package user

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultBCryptCost matches the cost used by the hash-password helper.
const DefaultBCryptCost = 10

func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = DefaultBCryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
