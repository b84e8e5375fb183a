package users

import (
	"time"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server/middleware"
)

// User is a back-office account scoped to one company.
type User struct {
	ID           string     `json:"id"`
	CompanyID    string     `json:"companyId"`
	Username     string     `json:"username"`
	Email        string     `json:"email,omitempty"`
	Name         string     `json:"name,omitempty"`
	Role         string     `json:"role"`
	PasswordHash string     `json:"-"`
	GoogleSub    string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// Roles, from most to least privileged.
const (
	RoleAdmin    = middleware.RoleAdmin
	RoleManager  = middleware.RoleManager
	RoleOperator = middleware.RoleOperator
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleOperator:
		return true
	}
	return false
}
