package database

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Comment is a reader comment on a post.
type Comment struct {
	gorm.Model
	Content  string `gorm:"type:text;not null"`
	PostID   uint   `gorm:"index;not null"`
	AuthorID uint   `gorm:"index;not null"`
	Author   User   `gorm:"constraint:OnDelete:CASCADE;"`
}

// CommentDB defines the comment related database operations.
type CommentDB interface {
	CreateComment(ctx context.Context, comment *Comment) error
	GetCommentByID(ctx context.Context, id uint) (*Comment, error)
	ListCommentsByPost(ctx context.Context, postID uint) ([]Comment, error)
	DeleteComment(ctx context.Context, id uint) error
	CountComments(ctx context.Context) (int64, error)
}

func (c *Client) CreateComment(ctx context.Context, comment *Comment) error {
	if err := c.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		log.Error("failed to create comment", "post_id", comment.PostID, "error", err)
		return err
	}
	return nil
}

func (c *Client) GetCommentByID(ctx context.Context, id uint) (*Comment, error) {
	var comment Comment
	if err := c.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get comment", "id", id, "error", err)
		}
		return nil, err
	}
	return &comment, nil
}

// ListCommentsByPost returns the comments of a post, oldest first.
func (c *Client) ListCommentsByPost(ctx context.Context, postID uint) ([]Comment, error) {
	var comments []Comment
	if err := c.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error; err != nil {
		log.Error("failed to list comments", "post_id", postID, "error", err)
		return nil, err
	}
	return comments, nil
}

func (c *Client) DeleteComment(ctx context.Context, id uint) error {
	result := c.db.WithContext(ctx).Unscoped().Delete(&Comment{}, id)
	if result.Error != nil {
		log.Error("failed to delete comment", "id", id, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (c *Client) CountComments(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&Comment{}).Count(&count).Error; err != nil {
		log.Error("failed to count comments", "error", err)
		return 0, err
	}
	return count, nil
}
