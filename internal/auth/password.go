package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/ifrit/internal/model"
)

// HashPassword validates and hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	if err := model.ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// dummyHash is compared against when the user does not exist, so that a
// missing account takes as long as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("ifrit-timing-equalizer"), bcrypt.DefaultCost)

// CheckPasswordOrDummy is CheckPassword that also burns a comparison when
// hash is empty.
func CheckPasswordOrDummy(hash, password string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	return CheckPassword(hash, password)
}

// ErrBadCredentials is returned on a failed login.
var ErrBadCredentials = errors.New("invalid username or password")
