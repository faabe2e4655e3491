package models

// User is owned by the platform's identity subsystem; this service reads
// the credential columns and hands back only an id, a role, and a verdict.
type User struct {
	ID           string
	Email        string
	Role         string
	PasswordSalt []byte
	PasswordHash []byte
}
