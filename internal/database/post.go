package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Post is a blog entry. PublishedAt is set if and only if IsPublished is true.
type Post struct {
	gorm.Model
	Title           string `gorm:"not null"`
	Slug            string `gorm:"uniqueIndex;not null"`
	Content         string `gorm:"type:text;not null"`
	Summary         string
	MetaDescription string
	IsPublished     bool `gorm:"index"`
	IsFeatured      bool
	PublishedAt     *time.Time `gorm:"index"`
	AuthorID        uint       `gorm:"index;not null"`
	Author          User       `gorm:"constraint:OnDelete:CASCADE;"`
	Comments        []Comment  `gorm:"constraint:OnDelete:CASCADE;"`
}

// PostDB defines the post related database operations.
type PostDB interface {
	CreatePost(ctx context.Context, post *Post) error
	UpdatePost(ctx context.Context, post *Post) error
	DeletePost(ctx context.Context, id uint) error
	GetPostByID(ctx context.Context, id uint) (*Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*Post, error)
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	ListPosts(ctx context.Context, page, pageSize int) ([]Post, int64, error)
	ListPublishedPosts(ctx context.Context, page, pageSize int) ([]Post, int64, error)
	SearchPublishedPosts(ctx context.Context, query string, page, pageSize int) ([]Post, int64, error)
	CountPosts(ctx context.Context) (int64, error)
	CountDrafts(ctx context.Context) (int64, error)
	RecentPosts(ctx context.Context, limit int) ([]Post, error)
}

func (c *Client) CreatePost(ctx context.Context, post *Post) error {
	if err := c.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		log.Error("failed to create post", "slug", post.Slug, "error", err)
		return err
	}
	return nil
}

// UpdatePost saves every column of the post, including zero values.
func (c *Client) UpdatePost(ctx context.Context, post *Post) error {
	if err := c.db.WithContext(ctx).Omit(clause.Associations).Save(post).Error; err != nil {
		log.Error("failed to update post", "id", post.ID, "error", err)
		return err
	}
	return nil
}

// DeletePost removes a post and its comments.
func (c *Client) DeletePost(ctx context.Context, id uint) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("post_id = ?", id).Delete(&Comment{}).Error; err != nil {
			return err
		}
		result := tx.Unscoped().Delete(&Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error("failed to delete post", "id", id, "error", err)
	}
	return err
}

func (c *Client) getPost(ctx context.Context, query string, args ...any) (*Post, error) {
	var post Post
	if err := c.db.WithContext(ctx).Preload("Author").Where(query, args...).First(&post).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get post", "error", err)
		}
		return nil, err
	}
	return &post, nil
}

func (c *Client) GetPostByID(ctx context.Context, id uint) (*Post, error) {
	return c.getPost(ctx, "id = ?", id)
}

func (c *Client) GetPostBySlug(ctx context.Context, slug string) (*Post, error) {
	return c.getPost(ctx, "slug = ?", slug)
}

// SlugExists reports whether another post (not excludeID) already uses slug.
func (c *Client) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	q := c.db.WithContext(ctx).Model(&Post{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		log.Error("failed to check slug", "slug", slug, "error", err)
		return false, err
	}
	return count > 0, nil
}

func (c *Client) paginatePosts(q *gorm.DB, order string, page, pageSize int) ([]Post, int64, error) {
	_, pageSize, offset := normalizePage(page, pageSize)

	var total int64
	if err := q.Session(&gorm.Session{}).Model(&Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []Post
	if err := q.Session(&gorm.Session{}).
		Preload("Author").
		Order(order).
		Order("id DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListPosts returns all posts, drafts included, newest first.
func (c *Client) ListPosts(ctx context.Context, page, pageSize int) ([]Post, int64, error) {
	posts, total, err := c.paginatePosts(c.db.WithContext(ctx).Model(&Post{}), "created_at DESC", page, pageSize)
	if err != nil {
		log.Error("failed to list posts", "error", err)
	}
	return posts, total, err
}

// ListPublishedPosts returns published posts ordered by publication time.
func (c *Client) ListPublishedPosts(ctx context.Context, page, pageSize int) ([]Post, int64, error) {
	q := c.db.WithContext(ctx).Model(&Post{}).Where("is_published = ?", true)
	posts, total, err := c.paginatePosts(q, "published_at DESC", page, pageSize)
	if err != nil {
		log.Error("failed to list published posts", "error", err)
	}
	return posts, total, err
}

// SearchPublishedPosts matches query case-insensitively against title, summary and content.
func (c *Client) SearchPublishedPosts(ctx context.Context, query string, page, pageSize int) ([]Post, int64, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	q := c.db.WithContext(ctx).Model(&Post{}).
		Where("is_published = ?", true).
		Where(
			"LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(summary) LIKE ? ESCAPE '\\' OR LOWER(content) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern,
		)
	posts, total, err := c.paginatePosts(q, "published_at DESC", page, pageSize)
	if err != nil {
		log.Error("failed to search posts", "query", query, "error", err)
	}
	return posts, total, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (c *Client) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&Post{}).Count(&count).Error; err != nil {
		log.Error("failed to count posts", "error", err)
		return 0, err
	}
	return count, nil
}

func (c *Client) CountDrafts(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&Post{}).Where("is_published = ?", false).Count(&count).Error; err != nil {
		log.Error("failed to count drafts", "error", err)
		return 0, err
	}
	return count, nil
}

func (c *Client) RecentPosts(ctx context.Context, limit int) ([]Post, error) {
	var posts []Post
	if err := c.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		log.Error("failed to get recent posts", "error", err)
		return nil, err
	}
	return posts, nil
}
