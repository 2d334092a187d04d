package user

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash is checked for unknown emails so that path costs one bcrypt
// comparison too.
var dummyHash = sync.OnceValue(func() string {
	h, _ := HashPassword("restobar-no-such-account")
	return h
})

var checkPassword = CheckPasswordHash
