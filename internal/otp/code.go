// Package otp implements password-reset one-time codes: issue with cooldown, non-consuming verify,
// and a transactional consume that rotates the password.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
)

var ten = big.NewInt(10)

// GenerateCode returns a numeric code of n digits whose first digit is never zero.
func GenerateCode(n int) (string, error) {
	s := make([]byte, n)
	for i := 0; i < n; i++ {
		for {
			d, err := rand.Int(rand.Reader, ten)
			if err != nil {
				return "", err
			}
			if i == 0 && d.Int64() == 0 {
				continue
			}
			s[i] = '0' + byte(d.Int64())
			break
		}
	}
	return string(s), nil
}

// GenerateSalt returns 16 random bytes, hex-encoded.
func GenerateSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashCode returns hex(SHA-256(code || salt)).
func HashCode(code, salt string) string {
	h := sha256.Sum256([]byte(code + salt))
	return hex.EncodeToString(h[:])
}

// CodeEqual reports in constant time whether code with salt hashes to storedHash.
func CodeEqual(code, salt, storedHash string) bool {
	if code == "" || storedHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashCode(code, salt)), []byte(storedHash)) == 1
}
