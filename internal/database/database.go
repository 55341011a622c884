package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ DB = (*Client)(nil) // Ensure Client implements DB

// DB is the persistence interface used by the services.
type DB interface {
	UserDB
	PostDB
	CommentDB

	// Stats returns row counts for the main tables.
	Stats(ctx context.Context) (*Stats, error)
	// Close closes the underlying connection pool.
	Close() error
}

// Stats holds row counts for the main tables.
type Stats struct {
	Users       int64
	Admins      int64
	Pending     int64
	Posts       int64
	Drafts      int64
	Comments    int64
	BackupCodes int64
}

// Client wraps the gorm.DB instance.
type Client struct {
	db *gorm.DB
}

// newGormLogger reports slow and failed queries through w. Query arguments are
// never printed, and missed lookups are expected on the login path.
func newGormLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
		Colorful:                  false,
	})
}

// New creates a new database connection and performs migrations.
func New(dbpath string) (*Client, error) {
	if dir := filepath.Dir(dbpath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbpath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(log.Default()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// sqlite only allows a single writer, so transactions queue on one connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&Role{},
		&User{},
		&BackupCode{},
		&Post{},
		&Comment{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	c := &Client{db: db}
	if err := c.seedRoles(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to seed roles: %w", err)
	}

	return c, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Stats returns row counts for the main tables.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	db := c.db.WithContext(ctx)

	counts := []struct {
		target *int64
		query  *gorm.DB
	}{
		{&s.Users, db.Model(&User{})},
		{&s.Admins, db.Model(&User{}).
			Joins("JOIN user_roles ON user_roles.user_id = users.id").
			Joins("JOIN roles ON roles.id = user_roles.role_id").
			Where("roles.name = ?", RoleAdmin)},
		{&s.Pending, db.Model(&User{}).Where("approved = ?", false)},
		{&s.Posts, db.Model(&Post{})},
		{&s.Drafts, db.Model(&Post{}).Where("is_published = ?", false)},
		{&s.Comments, db.Model(&Comment{})},
		{&s.BackupCodes, db.Model(&BackupCode{})},
	}
	for _, cnt := range counts {
		if err := cnt.query.Count(cnt.target).Error; err != nil {
			return nil, fmt.Errorf("failed to count rows: %w", err)
		}
	}
	return &s, nil
}

// normalizePage clamps page and pageSize to sane values and returns the offset.
func normalizePage(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return page, pageSize, (page - 1) * pageSize
}
