package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword 生成密码哈希 using bcrypt at the default cost.
// Plaintext passwords must never be stored or logged; callers hash before
// the password leaves the request scope.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPasswordHash reports whether the plaintext password matches the
// stored bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
