package helpers

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// KeyPhoneOTP is the Redis key holding the pending challenge for a phone number
func KeyPhoneOTP(phone string) string {
	return "otp:phone:" + phone
}

// GenOTPCode generates a secure random 6-digit OTP code as a zero-padded string
func GenOTPCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint32(b)
	return fmt.Sprintf("%06d", n%1000000), nil
}

// HashOTP returns the hex SHA-256 of a code; only the hash is stored.
func HashOTP(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// OTPEqual compares a provided code against a stored hash in constant time.
func OTPEqual(code, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashOTP(code)), []byte(storedHash)) == 1
}
