package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/hexblog/hexblog/internal/database"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	postsPerPage      = 5
	adminPostsPerPage = 10
	recentPostsLimit  = 5
)

// Store is the persistence the blog service needs.
type Store interface {
	database.PostDB
	database.CommentDB
	CountUsers(ctx context.Context) (int64, error)
}

// ListingCache caches rendered pages of the public post listing.
type ListingCache interface {
	Get(ctx context.Context, page int) (Page, bool)
	Set(ctx context.Context, page int, p Page)
	Invalidate(ctx context.Context)
}

// Page is one page of a post listing.
type Page struct {
	Posts    []database.Post `json:"posts"`
	Total    int64           `json:"total"`
	Number   int             `json:"number"`
	PageSize int             `json:"pageSize"`
}

// TotalPages returns the number of pages, at least one.
func (p Page) TotalPages() int {
	if p.PageSize <= 0 || p.Total == 0 {
		return 1
	}
	return int((p.Total + int64(p.PageSize) - 1) / int64(p.PageSize))
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.TotalPages() }

// Dashboard holds the numbers shown on the admin landing page.
type Dashboard struct {
	Posts       int64
	Drafts      int64
	Users       int64
	RecentPosts []database.Post
}

// PostInput is the admin post form.
type PostInput struct {
	Title           string
	Content         string
	Summary         string
	MetaDescription string
	Publish         bool
	Featured        bool
}

// Service implements the post and comment operations.
type Service struct {
	db    Store
	pages ListingCache
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithListingCache caches the public post listing.
func WithListingCache(c ListingCache) Option {
	return func(s *Service) {
		s.pages = c
	}
}

// WithClock overrides the time source used for publication timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new blog service.
func NewService(db Store, opts ...Option) *Service {
	s := &Service{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// InvalidateListings drops the cached public listing. Call it after posts change outside this service.
func (s *Service) InvalidateListings(ctx context.Context) {
	if s.pages != nil {
		s.pages.Invalidate(ctx)
	}
}

// ListPublished returns a page of published posts, newest publication first.
func (s *Service) ListPublished(ctx context.Context, page int) (Page, error) {
	page = max(page, 1)
	if s.pages != nil {
		if cached, ok := s.pages.Get(ctx, page); ok {
			return cached, nil
		}
	}

	posts, total, err := s.db.ListPublishedPosts(ctx, page, postsPerPage)
	if err != nil {
		return Page{}, fmt.Errorf("failed to list posts: %w", err)
	}

	result := Page{Posts: posts, Total: total, Number: page, PageSize: postsPerPage}
	if s.pages != nil {
		s.pages.Set(ctx, page, result)
	}
	return result, nil
}

// GetPublishedBySlug returns a published post. Drafts are reported as ErrNotFound.
func (s *Service) GetPublishedBySlug(ctx context.Context, slug string) (*database.Post, error) {
	post, err := s.db.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err)
	}
	if !post.IsPublished {
		return nil, ErrNotFound
	}
	return post, nil
}

// Search matches published posts against query. An empty query yields an empty page.
func (s *Service) Search(ctx context.Context, query string, page int) (Page, error) {
	page = max(page, 1)
	query = strings.TrimSpace(query)
	if query == "" {
		return Page{Number: page, PageSize: postsPerPage}, nil
	}

	posts, total, err := s.db.SearchPublishedPosts(ctx, query, page, postsPerPage)
	if err != nil {
		return Page{}, fmt.Errorf("failed to search posts: %w", err)
	}
	return Page{Posts: posts, Total: total, Number: page, PageSize: postsPerPage}, nil
}

// ListPosts returns a page of every post, drafts included, for the admin area.
func (s *Service) ListPosts(ctx context.Context, page int) (Page, error) {
	page = max(page, 1)
	posts, total, err := s.db.ListPosts(ctx, page, adminPostsPerPage)
	if err != nil {
		return Page{}, fmt.Errorf("failed to list posts: %w", err)
	}
	return Page{Posts: posts, Total: total, Number: page, PageSize: adminPostsPerPage}, nil
}

// GetPost returns any post by ID.
func (s *Service) GetPost(ctx context.Context, id uint) (*database.Post, error) {
	post, err := s.db.GetPostByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return post, nil
}

func normalizeInput(in PostInput) (PostInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Summary = strings.TrimSpace(in.Summary)
	in.MetaDescription = strings.TrimSpace(in.MetaDescription)

	switch {
	case in.Title == "":
		return in, invalid("title", "Title is required")
	case utf8.RuneCountInString(in.Title) > 255:
		return in, invalid("title", "Title must be at most 255 characters")
	case in.Content == "":
		return in, invalid("content", "Content is required")
	case utf8.RuneCountInString(in.Summary) > maxSummaryLength:
		return in, invalid("summary", "Summary must be less than 500 characters")
	case utf8.RuneCountInString(in.MetaDescription) > 160:
		return in, invalid("meta_description", "Meta description must be at most 160 characters")
	}

	if in.Summary == "" {
		in.Summary = Summarize(in.Content)
	}
	return in, nil
}

func (s *Service) applyPublishState(post *database.Post, publish bool) {
	if publish {
		Publish(post, s.now())
	} else {
		Unpublish(post)
	}
}

// CreatePost validates the form and stores a new post with a unique slug.
func (s *Service) CreatePost(ctx context.Context, authorID uint, in PostInput) (*database.Post, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}

	slug, err := s.GenerateSlug(ctx, in.Title, 0)
	if err != nil {
		return nil, err
	}

	post := &database.Post{
		Title:           in.Title,
		Slug:            slug,
		Content:         in.Content,
		Summary:         in.Summary,
		MetaDescription: in.MetaDescription,
		IsFeatured:      in.Featured,
		AuthorID:        authorID,
	}
	s.applyPublishState(post, in.Publish)

	if err := s.db.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	s.InvalidateListings(ctx)

	log.Info("post created", "id", post.ID, "slug", post.Slug, "published", post.IsPublished)
	return post, nil
}

// UpdatePost applies the form to an existing post. The slug follows title changes.
func (s *Service) UpdatePost(ctx context.Context, id uint, in PostInput) (*database.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err = normalizeInput(in)
	if err != nil {
		return nil, err
	}

	if in.Title != post.Title {
		slug, err := s.GenerateSlug(ctx, in.Title, post.ID)
		if err != nil {
			return nil, err
		}
		post.Slug = slug
	}

	post.Title = in.Title
	post.Content = in.Content
	post.Summary = in.Summary
	post.MetaDescription = in.MetaDescription
	post.IsFeatured = in.Featured
	s.applyPublishState(post, in.Publish)

	if err := s.db.UpdatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	s.InvalidateListings(ctx)

	log.Info("post updated", "id", post.ID, "slug", post.Slug, "published", post.IsPublished)
	return post, nil
}

// DeletePost removes a post and its comments.
func (s *Service) DeletePost(ctx context.Context, id uint) error {
	if err := s.db.DeletePost(ctx, id); err != nil {
		return notFound(err)
	}
	s.InvalidateListings(ctx)
	log.Info("post deleted", "id", id)
	return nil
}

// Dashboard collects the admin overview numbers concurrently.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Posts, err = s.db.CountPosts(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Drafts, err = s.db.CountDrafts(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Users, err = s.db.CountUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.RecentPosts, err = s.db.RecentPosts(gctx, recentPostsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return &d, nil
}
