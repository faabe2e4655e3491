package models

//nolint:gosec // header and context key names, not credentials
const (
	MwAPIKeyHeader = "X-API-Key"

	MwUserIDKey = "userID"
	MwRoleKey   = "role"
	MwTokenKey  = "token"
)
