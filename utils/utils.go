package utils

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

const (
	idAlphabet   = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	clientIDSize = 21
	tokenIDSize  = 16
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// NewClientID генерирует идентификатор браузерного клиента для cookie hm_client.
func NewClientID() string {
	return gonanoid.MustGenerate(idAlphabet, clientIDSize)
}

// NewTokenID генерирует jti для access-токена.
func NewTokenID() string {
	return gonanoid.MustGenerate(idAlphabet, tokenIDSize)
}

// ValidClientID проверяет, что значение cookie похоже на выданный нами идентификатор.
func ValidClientID(id string) bool {
	if len(id) != clientIDSize {
		return false
	}
	for _, c := range id {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
