package auth

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"

	// HeaderActingAs carries the worker id an admin is impersonating.
	HeaderActingAs = "X-Acting-As-Worker"
)
