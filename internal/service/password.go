package service

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

const saltLength = 16

// ScryptParams are the fixed cost parameters shared by every credential in
// the system: CPU/memory work factor N, block size r, parallelism p, and
// derived key length.
type ScryptParams struct {
	N      int
	R      int
	P      int
	KeyLen int
}

func DefaultScryptParams() ScryptParams {
	return ScryptParams{N: 1 << 15, R: 8, P: 1, KeyLen: 32}
}

type PasswordVerifier struct {
	params ScryptParams
}

func NewPasswordVerifier(params ScryptParams) *PasswordVerifier {
	return &PasswordVerifier{params: params}
}

// Verify derives a hash from the plaintext and stored salt and compares it
// to the stored hash in constant time. A record with a missing salt or hash
// fails verification exactly like a wrong password; callers cannot tell the
// two apart. The plaintext is never logged.
func (v *PasswordVerifier) Verify(password string, salt, hash []byte) bool {
	if len(salt) == 0 || len(hash) == 0 {
		return false
	}

	derived, err := scrypt.Key([]byte(password), salt, v.params.N, v.params.R, v.params.P, v.params.KeyLen)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(derived, hash) == 1
}

// Hash derives a credential from a plaintext with a fresh random salt. The
// identity subsystem owns user records; this exists for seeding and tests.
func (v *PasswordVerifier) Hash(password string) (salt, hash []byte, err error) {
	salt = make([]byte, saltLength)
	if _, err = rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	hash, err = scrypt.Key([]byte(password), salt, v.params.N, v.params.R, v.params.P, v.params.KeyLen)
	if err != nil {
		return nil, nil, fmt.Errorf("derive key: %w", err)
	}

	return salt, hash, nil
}
