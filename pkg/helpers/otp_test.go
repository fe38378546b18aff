package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenOTPCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenOTPCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "non-digit in %q", code)
		}
	}
}

func TestOTPEqual(t *testing.T) {
	stored := HashOTP("123456")
	assert.Len(t, stored, 64)
	assert.True(t, OTPEqual("123456", stored))
	assert.False(t, OTPEqual("654321", stored))
	assert.Equal(t, "otp:phone:+15551234567", KeyPhoneOTP("+15551234567"))
}
