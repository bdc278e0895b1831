package auth

import (
	"errors"
	"fmt"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher хеширует пароли bcrypt
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher cost <= 0 означает bcrypt.DefaultCost
func NewBcryptHasher(cost int) BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return BcryptHasher{Cost: cost}
}

func (h BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare несовпадение пароля дает domain.ErrInvalidCredentials
func (h BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return domain.ErrInvalidCredentials
	}
	return err
}
