package auth

import (
	"github.com/hexblog/hexblog/internal/database"
	"github.com/samber/lo"
)

// IsAdmin reports whether the user holds the admin role.
func IsAdmin(user *database.User) bool {
	if user == nil {
		return false
	}
	return lo.ContainsBy(user.Roles, func(r database.Role) bool {
		return r.Name == database.RoleAdmin
	})
}

// RoleNames returns the names of the user's roles.
func RoleNames(user *database.User) []string {
	if user == nil {
		return nil
	}
	return lo.Map(user.Roles, func(r database.Role, _ int) string {
		return r.Name
	})
}
