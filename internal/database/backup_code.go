package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// BackupCode is a single-use recovery code. Only a fingerprint of the code is stored.
type BackupCode struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_backup_code_user_hash"`
	CodeHash  string `gorm:"not null;uniqueIndex:idx_backup_code_user_hash"`
	CreatedAt time.Time
}

// BackupCodeDB defines the two factor persistence operations.
type BackupCodeDB interface {
	SetTOTPSecret(ctx context.Context, userID uint, secret string) error
	EnableTOTP(ctx context.Context, userID uint, codeHashes []string) error
	DisableTOTP(ctx context.Context, userID uint) error
	ReplaceBackupCodes(ctx context.Context, userID uint, codeHashes []string) error
	ConsumeBackupCode(ctx context.Context, userID uint, codeHash string, loginAt time.Time) (bool, error)
	CountBackupCodes(ctx context.Context, userID uint) (int64, error)
}

// SetTOTPSecret stores a pending secret. It does not enable two factor authentication.
func (c *Client) SetTOTPSecret(ctx context.Context, userID uint, secret string) error {
	return c.updateUser(ctx, userID, map[string]any{"totp_secret": secret})
}

// EnableTOTP marks two factor authentication active and stores a fresh set of backup codes.
func (c *Client) EnableTOTP(ctx context.Context, userID uint, codeHashes []string) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&User{}).Where("id = ?", userID).Update("totp_enabled", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return replaceBackupCodes(tx, userID, codeHashes)
	})
	if err != nil {
		log.Error("failed to enable totp", "user_id", userID, "error", err)
	}
	return err
}

// DisableTOTP clears the secret, the enabled flag and every backup code.
func (c *Client) DisableTOTP(ctx context.Context, userID uint) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&User{}).Where("id = ?", userID).Updates(map[string]any{
			"totp_secret":  nil,
			"totp_enabled": false,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("user_id = ?", userID).Delete(&BackupCode{}).Error
	})
	if err != nil {
		log.Error("failed to disable totp", "user_id", userID, "error", err)
	}
	return err
}

// ReplaceBackupCodes drops every existing code of the user and stores the new set.
func (c *Client) ReplaceBackupCodes(ctx context.Context, userID uint, codeHashes []string) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceBackupCodes(tx, userID, codeHashes)
	})
	if err != nil {
		log.Error("failed to replace backup codes", "user_id", userID, "error", err)
	}
	return err
}

func replaceBackupCodes(tx *gorm.DB, userID uint, codeHashes []string) error {
	if err := tx.Where("user_id = ?", userID).Delete(&BackupCode{}).Error; err != nil {
		return err
	}
	if len(codeHashes) == 0 {
		return nil
	}
	codes := make([]BackupCode, 0, len(codeHashes))
	for _, h := range codeHashes {
		codes = append(codes, BackupCode{UserID: userID, CodeHash: h})
	}
	return tx.Create(&codes).Error
}

// ConsumeBackupCode deletes the matching code and records the login in one transaction.
// It reports false when no unused code matched.
func (c *Client) ConsumeBackupCode(ctx context.Context, userID uint, codeHash string, loginAt time.Time) (bool, error) {
	var consumed bool
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND code_hash = ?", userID, codeHash).Delete(&BackupCode{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return nil
		}
		if err := tx.Model(&User{}).Where("id = ?", userID).Update("last_login_at", loginAt).Error; err != nil {
			return err
		}
		consumed = true
		return nil
	})
	if err != nil {
		log.Error("failed to consume backup code", "user_id", userID, "error", err)
		return false, err
	}
	return consumed, nil
}

func (c *Client) CountBackupCodes(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&BackupCode{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		log.Error("failed to count backup codes", "user_id", userID, "error", err)
		return 0, err
	}
	return count, nil
}
