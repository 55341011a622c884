package database

import (
	"context"

	"gorm.io/gorm"
)

// RoleAdmin is the only role that grants administrative privilege.
const RoleAdmin = "admin"

// Role is a named permission set assigned to users.
type Role struct {
	ID          uint   `gorm:"primarykey"`
	Name        string `gorm:"uniqueIndex;not null"`
	Description string
}

var defaultRoles = []Role{
	{Name: RoleAdmin, Description: "Administrator"},
}

func (c *Client) seedRoles(ctx context.Context) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range defaultRoles {
			role := r
			if err := tx.Where(Role{Name: role.Name}).FirstOrCreate(&role).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
