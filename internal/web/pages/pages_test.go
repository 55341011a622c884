package pages

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/hexblog/hexblog/internal/auth"
	"github.com/hexblog/hexblog/internal/blog"
	"github.com/hexblog/hexblog/internal/database"
	"github.com/hexblog/hexblog/internal/web/components"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func testPost() *database.Post {
	published := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	return &database.Post{
		Model:       gorm.Model{ID: 7},
		Title:       "Hello <World>",
		Slug:        "hello-world",
		Content:     "First paragraph.\n\nSecond <script>alert(1)</script>",
		Summary:     "First paragraph.",
		IsPublished: true,
		PublishedAt: &published,
		Author:      database.User{Username: "alice", DisplayName: "Alice"},
	}
}

func TestHome(t *testing.T) {
	meta := components.Meta{SiteName: "Hex Blog"}
	out := renderString(t, Home(meta, blog.Page{
		Posts:    []database.Post{*testPost()},
		Total:    1,
		Number:   1,
		PageSize: 5,
	}))

	assert.Contains(t, out, `href="/post/hello-world"`)
	assert.Contains(t, out, "Hello &lt;World&gt;")
	assert.Contains(t, out, "March 14, 2026 by Alice")

	empty := renderString(t, Home(meta, blog.Page{Number: 1, PageSize: 5}))
	assert.Contains(t, empty, "No posts yet.")
}

func TestPost_Comments(t *testing.T) {
	owner := &database.User{Model: gorm.Model{ID: 2}, Username: "bob"}
	comments := []database.Comment{
		{Model: gorm.Model{ID: 1, CreatedAt: time.Now()}, Content: "mine", AuthorID: 2, Author: *owner},
		{Model: gorm.Model{ID: 3, CreatedAt: time.Now()}, Content: "theirs", AuthorID: 5, Author: database.User{Username: "carol"}},
	}

	out := renderString(t, Post(components.Meta{SiteName: "Hex Blog", User: owner}, testPost(), comments))

	assert.Contains(t, out, "<p>First paragraph.</p>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "2 comments")
	assert.Contains(t, out, `action="/comments/1/delete"`)
	assert.NotContains(t, out, `action="/comments/3/delete"`)
	assert.Contains(t, out, `action="/post/hello-world/comments"`)

	anon := renderString(t, Post(components.Meta{SiteName: "Hex Blog"}, testPost(), comments))
	assert.NotContains(t, anon, "/delete")
	assert.Contains(t, anon, "to leave a comment")
}

func TestBackupCodes(t *testing.T) {
	out := renderString(t, BackupCodes(components.Meta{SiteName: "Hex Blog"}, []string{"abcde-fghjk", "mnpqr-stuvw"}))
	assert.Contains(t, out, "<code>abcde-fghjk</code>")
	assert.Contains(t, out, "<code>mnpqr-stuvw</code>")
}

func TestSettings(t *testing.T) {
	user := &database.User{Username: "bob", Email: "bob@example.com", TOTPEnabled: true}
	out := renderString(t, Settings(components.Meta{SiteName: "Hex Blog", User: user}, user, 9))
	assert.Contains(t, out, "9 backup codes left")
	assert.Contains(t, out, `action="/auth/disable-2fa"`)
	assert.Contains(t, out, `action="/user/delete-account"`)

	admin := renderString(t, Settings(components.Meta{SiteName: "Hex Blog", User: user, IsAdmin: true}, user, 9))
	assert.NotContains(t, admin, `action="/user/delete-account"`)
}

func TestRegisterKeepsInput(t *testing.T) {
	out := renderString(t, Register(components.Meta{SiteName: "Hex Blog"}, auth.RegisterInput{
		Email:    "bob@example.com",
		Username: "bob",
		Password: "secret",
	}))
	assert.Contains(t, out, `value="bob@example.com"`)
	assert.NotContains(t, out, `value="secret"`)
}

func TestAdminUsers_NoSelfToggle(t *testing.T) {
	admin := database.User{Model: gorm.Model{ID: 1}, Username: "admin", Approved: true, Roles: []database.Role{{Name: database.RoleAdmin}}}
	pending := database.User{Model: gorm.Model{ID: 2}, Username: "bob"}
	out := renderString(t, AdminUsers(components.Meta{SiteName: "Hex Blog", User: &admin, IsAdmin: true},
		[]database.User{admin, pending}, blog.Page{Total: 2, Number: 1, PageSize: 10}, true))

	assert.NotContains(t, out, `action="/admin/users/1/toggle-approval"`)
	assert.Contains(t, out, `action="/admin/users/2/toggle-approval"`)
	assert.Contains(t, out, "Disable registration")
}

func TestPostForm(t *testing.T) {
	out := renderString(t, PostForm(components.Meta{SiteName: "Hex Blog"}, 0, blog.PostInput{}))
	assert.Contains(t, out, `action="/admin/post/new"`)

	out = renderString(t, PostForm(components.Meta{SiteName: "Hex Blog"}, 4, blog.PostInput{Title: "T", Publish: true}))
	assert.Contains(t, out, `action="/admin/post/4/edit"`)
	assert.Contains(t, out, `name="publish" value="true" checked`)
}
