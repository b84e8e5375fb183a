package users

import "github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/apperr"

var (
	ErrNotFound           = apperr.NotFound("user")
	ErrUsernameTaken      = apperr.Conflict("USERNAME_TAKEN", "username is already in use")
	ErrEmailTaken         = apperr.Conflict("EMAIL_TAKEN", "email is already in use")
	ErrInvalidCredentials = apperr.Unauthorized("invalid username or password")
	ErrNotProvisioned     = apperr.Forbidden("no account is registered for this email")
	ErrLastAdmin          = apperr.Conflict("LAST_ADMIN", "the company must keep at least one admin")
	ErrSelfDelete         = apperr.Conflict("SELF_DELETE", "you cannot delete your own account")
)
