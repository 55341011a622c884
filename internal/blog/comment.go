package blog

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/hexblog/hexblog/internal/database"
)

const maxCommentLength = 1000

// AddComment adds a comment to a published post.
func (s *Service) AddComment(ctx context.Context, slug string, authorID uint, content string) (*database.Comment, error) {
	post, err := s.GetPublishedBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("content", "Comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, invalid("content", "Comment must be at most 1000 characters")
	}

	comment := &database.Comment{
		Content:  content,
		PostID:   post.ID,
		AuthorID: authorID,
	}
	if err := s.db.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// ListComments returns the comments of a post, oldest first.
func (s *Service) ListComments(ctx context.Context, postID uint) ([]database.Comment, error) {
	return s.db.ListCommentsByPost(ctx, postID)
}

// DeleteComment deletes a comment on behalf of actorID. Only the comment's author may
// delete it. It returns the post the comment belonged to.
func (s *Service) DeleteComment(ctx context.Context, commentID, actorID uint) (*database.Post, error) {
	comment, err := s.db.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, notFound(err)
	}
	if comment.AuthorID != actorID {
		log.Warn("refused to delete comment of another user", "comment_id", commentID, "actor_id", actorID)
		return nil, ErrForbidden
	}

	post, err := s.db.GetPostByID(ctx, comment.PostID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.db.DeleteComment(ctx, comment.ID); err != nil {
		return nil, notFound(err)
	}
	return post, nil
}
