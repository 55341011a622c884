package components

import (
	"bytes"
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/hexblog/hexblog/internal/blog"
	"github.com/hexblog/hexblog/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, fn func(ctx context.Context, h *HTML)) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Component(fn).Render(context.Background(), &buf))
	return buf.String()
}

func TestHTML_PrintfEscapesStrings(t *testing.T) {
	out := render(t, func(_ context.Context, h *HTML) {
		h.Printf(`<p title="%s">%d</p>`, `"><script>`, 42)
	})
	assert.Equal(t, `<p title="&#34;&gt;&lt;script&gt;">42</p>`, out)
}

func TestLayout(t *testing.T) {
	meta := Meta{
		SiteName: "Hex Blog",
		Title:    "Hello",
		Flashes:  []Flash{{Category: FlashError, Message: "<b>bad</b>"}},
	}

	var buf bytes.Buffer
	require.NoError(t, Layout(meta, nil).Render(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, out, "<title>Hello | Hex Blog</title>")
	assert.Contains(t, out, `href="/auth/login"`)
	assert.NotContains(t, out, `href="/admin/"`)
	assert.Contains(t, out, "&lt;b&gt;bad&lt;/b&gt;")
}

func TestLayout_Admin(t *testing.T) {
	meta := Meta{
		SiteName: "Hex Blog",
		User:     &database.User{Username: "alice"},
		IsAdmin:  true,
	}

	var buf bytes.Buffer
	require.NoError(t, Layout(meta, nil).Render(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, out, `href="/admin/"`)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, `href="/auth/logout"`)
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		page  int
		want  string
	}{
		{name: "first page", page: 1, want: "/"},
		{name: "second page", page: 2, want: "/?page=2"},
		{name: "keeps query", query: url.Values{"q": {"go"}}, page: 3, want: "/?page=3&q=go"},
		{name: "drops page one", query: url.Values{"page": {"4"}}, page: 1, want: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageURL("/", tt.query, tt.page))
		})
	}
}

func TestPagination(t *testing.T) {
	var buf bytes.Buffer
	p := blog.Page{Total: 12, Number: 2, PageSize: 5}
	require.NoError(t, Pagination("/", nil, p).Render(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, out, "Page 2 of 3")
	assert.Contains(t, out, `href="/"`)
	assert.Contains(t, out, `href="/?page=3"`)

	buf.Reset()
	require.NoError(t, Pagination("/", nil, blog.Page{Total: 3, Number: 1, PageSize: 5}).Render(context.Background(), &buf))
	assert.Empty(t, buf.String())
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "", FormatDate(nil))
	d := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "March 14, 2026", FormatDate(&d))
	assert.Equal(t, "1,234", FormatCount(1234))
	assert.Equal(t, "1 comment", Pluralize(1, "comment", "comments"))
	assert.Equal(t, "0 comments", Pluralize(0, "comment", "comments"))
}
