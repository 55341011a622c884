package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// hashCost is the bcrypt cost used for new password hashes.
var hashCost = bcrypt.DefaultCost

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash is compared against when the email is unknown, so both failure paths cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	hash, err := HashPassword("hexblog-dummy-password")
	if err != nil {
		return ""
	}
	return hash
})
