package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Cheaper cost parameters keep the test suite fast; the comparison logic is
// identical at every cost.
func testScryptParams() ScryptParams {
	return ScryptParams{N: 1 << 10, R: 8, P: 1, KeyLen: 32}
}

func TestVerifyPasswordRoundTrip(t *testing.T) {
	v := NewPasswordVerifier(testScryptParams())

	salt, hash, err := v.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.Len(t, salt, saltLength)
	require.Len(t, hash, 32)

	assert.True(t, v.Verify("correct horse battery staple", salt, hash))
}

func TestVerifyPasswordSingleCharMutation(t *testing.T) {
	v := NewPasswordVerifier(testScryptParams())

	password := "s3cret-passphrase"
	salt, hash, err := v.Hash(password)
	require.NoError(t, err)

	for i := range password {
		mutated := []byte(password)
		mutated[i] ^= 0x01
		assert.False(t, v.Verify(string(mutated), salt, hash), "mutation at index %d must fail", i)
	}
}

func TestVerifyPasswordMissingCredentialFields(t *testing.T) {
	v := NewPasswordVerifier(testScryptParams())

	salt, hash, err := v.Hash("whatever")
	require.NoError(t, err)

	// A record missing its salt or hash must fail exactly like a wrong
	// password, not error out.
	assert.False(t, v.Verify("whatever", nil, hash))
	assert.False(t, v.Verify("whatever", salt, nil))
	assert.False(t, v.Verify("whatever", nil, nil))
}

func TestVerifyPasswordDistinctSalts(t *testing.T) {
	v := NewPasswordVerifier(testScryptParams())

	salt1, hash1, err := v.Hash("same password")
	require.NoError(t, err)
	salt2, hash2, err := v.Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, hash1, hash2)
	assert.False(t, v.Verify("same password", salt1, hash2))
}
