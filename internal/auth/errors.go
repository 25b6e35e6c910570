package auth

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoPassword         = errors.New("account has no password sign-in")
	ErrCodeExpired        = errors.New("sign-in code expired")
	ErrCodeInvalid        = errors.New("sign-in code invalid")
	ErrCodeUsed           = errors.New("sign-in code already used")
	ErrStateMismatch      = errors.New("oauth state mismatch")
	ErrUnknownProvider    = errors.New("unknown oauth provider")
	ErrWeakPassword       = errors.New("password too short")
	ErrFailedToCreateUser = errors.New("failed to create user")
)
