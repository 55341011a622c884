package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// User represents a registered account.
// Backup codes live in their own table and are only ever stored as fingerprints.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null" json:"-"`
	Active       bool
	Approved     bool   `gorm:"index"`
	Roles        []Role `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE;"`
	// Uniquifier is the identity stored in sessions. It changes when an account is recreated.
	Uniquifier string `gorm:"uniqueIndex;not null" json:"-"`

	TOTPSecret  *string `gorm:"column:totp_secret" json:"-"`
	TOTPEnabled bool    `gorm:"column:totp_enabled"`
	// RegistrationEnabled is only meaningful on the site admin record.
	RegistrationEnabled bool

	DisplayName string
	Bio         string
	Website     string
	LastLoginAt *time.Time

	BackupCodes []BackupCode `gorm:"constraint:OnDelete:CASCADE;"`
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// UserDB defines the user related database operations.
type UserDB interface {
	CreateUser(ctx context.Context, user *User) (bool, error)
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByUniquifier(ctx context.Context, uniquifier string) (*User, error)
	GetSiteAdmin(ctx context.Context) (*User, error)
	GetAdmins(ctx context.Context) ([]User, error)
	CountUsers(ctx context.Context) (int64, error)
	ListUsers(ctx context.Context, page, pageSize int) ([]User, int64, error)
	GrantRole(ctx context.Context, userID uint, roleName string) error
	SetUserApproved(ctx context.Context, userID uint, approved bool) error
	SetRegistrationEnabled(ctx context.Context, userID uint, enabled bool) error
	UpdateUserProfile(ctx context.Context, userID uint, displayName, bio, website string) error
	UpdateUserLastLogin(ctx context.Context, userID uint, at time.Time) error
	DeleteUser(ctx context.Context, userID uint) error
	BackupCodeDB
}

// CreateUser stores a new user. The first user ever created is promoted to admin,
// approved, and has registration enabled. It returns whether the user was the first one.
func (c *Client) CreateUser(ctx context.Context, user *User) (bool, error) {
	var first bool
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Count(&count).Error; err != nil {
			return err
		}
		first = count == 0

		if user.Uniquifier == "" {
			user.Uniquifier = uuid.NewString()
		}
		if first {
			var admin Role
			if err := tx.Where("name = ?", RoleAdmin).First(&admin).Error; err != nil {
				return err
			}
			user.Approved = true
			user.RegistrationEnabled = true
			if !user.HasRole(RoleAdmin) {
				user.Roles = append(user.Roles, admin)
			}
		}

		return tx.Omit("Roles.*").Create(user).Error
	})
	if err != nil {
		log.Error("failed to create user", "error", err)
		return false, err
	}
	return first, nil
}

func (c *Client) getUser(ctx context.Context, query string, args ...any) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Preload("Roles").Where(query, args...).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserByID(ctx context.Context, id uint) (*User, error) {
	return c.getUser(ctx, "id = ?", id)
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return c.getUser(ctx, "email = ?", email)
}

func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return c.getUser(ctx, "username = ?", username)
}

func (c *Client) GetUserByUniquifier(ctx context.Context, uniquifier string) (*User, error) {
	return c.getUser(ctx, "uniquifier = ?", uniquifier)
}

func (c *Client) adminQuery(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx).
		Preload("Roles").
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name = ?", RoleAdmin).
		Order("users.id ASC")
}

// GetSiteAdmin returns the admin record that owns site wide settings (the oldest admin).
func (c *Client) GetSiteAdmin(ctx context.Context) (*User, error) {
	var user User
	if err := c.adminQuery(ctx).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get site admin", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetAdmins(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.adminQuery(ctx).Find(&users).Error; err != nil {
		log.Error("failed to get admins", "error", err)
		return nil, err
	}
	return users, nil
}

func (c *Client) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&User{}).Count(&count).Error; err != nil {
		log.Error("failed to count users", "error", err)
		return 0, err
	}
	return count, nil
}

func (c *Client) ListUsers(ctx context.Context, page, pageSize int) ([]User, int64, error) {
	_, pageSize, offset := normalizePage(page, pageSize)

	var total int64
	if err := c.db.WithContext(ctx).Model(&User{}).Count(&total).Error; err != nil {
		log.Error("failed to count users", "error", err)
		return nil, 0, err
	}

	var users []User
	if err := c.db.WithContext(ctx).
		Preload("Roles").
		Order("created_at DESC").
		Order("id DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&users).Error; err != nil {
		log.Error("failed to list users", "error", err)
		return nil, 0, err
	}
	return users, total, nil
}

func (c *Client) GrantRole(ctx context.Context, userID uint, roleName string) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role Role
		if err := tx.Where("name = ?", roleName).First(&role).Error; err != nil {
			return err
		}
		link := map[string]any{"user_id": userID, "role_id": role.ID}
		return tx.Table("user_roles").Clauses(clause.OnConflict{DoNothing: true}).Create(link).Error
	})
}

func (c *Client) updateUser(ctx context.Context, userID uint, values map[string]any) error {
	result := c.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Updates(values)
	if result.Error != nil {
		log.Error("failed to update user", "user_id", userID, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (c *Client) SetUserApproved(ctx context.Context, userID uint, approved bool) error {
	return c.updateUser(ctx, userID, map[string]any{"approved": approved})
}

func (c *Client) SetRegistrationEnabled(ctx context.Context, userID uint, enabled bool) error {
	return c.updateUser(ctx, userID, map[string]any{"registration_enabled": enabled})
}

func (c *Client) UpdateUserProfile(ctx context.Context, userID uint, displayName, bio, website string) error {
	return c.updateUser(ctx, userID, map[string]any{
		"display_name": displayName,
		"bio":          bio,
		"website":      website,
	})
}

func (c *Client) UpdateUserLastLogin(ctx context.Context, userID uint, at time.Time) error {
	return c.updateUser(ctx, userID, map[string]any{"last_login_at": at})
}

// DeleteUser removes a user together with their comments, their posts (and the
// comments on those posts), their backup codes and their role links.
func (c *Client) DeleteUser(ctx context.Context, userID uint) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		postIDs := tx.Model(&Post{}).Select("id").Where("author_id = ?", userID)
		if err := tx.Unscoped().Where("author_id = ? OR post_id IN (?)", userID, postIDs).Delete(&Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("author_id = ?", userID).Delete(&Post{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&BackupCode{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_roles WHERE user_id = ?", userID).Error; err != nil {
			return err
		}
		result := tx.Unscoped().Delete(&User{}, userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error("failed to delete user", "user_id", userID, "error", err)
	}
	return err
}
