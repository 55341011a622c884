package blog

import (
	"strings"
	"testing"
	"time"

	"github.com/hexblog/hexblog/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Test Post", "test-post"},
		{"  Hello,   World!  ", "hello-world"},
		{"Go 1.25 -- what's new?", "go-125-whats-new"},
		{"snake_case stays", "snake_case-stays"},
		{"Crème brûlée", "crème-brûlée"},
		{"---", "post"},
		{"!!!", "post"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestPublishIsIdempotent(t *testing.T) {
	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	post := &database.Post{}

	Publish(post, first)
	require.True(t, post.IsPublished)
	require.NotNil(t, post.PublishedAt)

	Publish(post, first.Add(time.Hour))
	assert.True(t, post.PublishedAt.Equal(first))

	Unpublish(post)
	assert.False(t, post.IsPublished)
	assert.Nil(t, post.PublishedAt)

	Unpublish(post)
	assert.False(t, post.IsPublished)
	assert.Nil(t, post.PublishedAt)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "short text", Summarize("  short\n\ntext "))

	long := strings.Repeat("word ", 100)
	got := Summarize(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len([]rune(got)), summaryLength+3)
	assert.False(t, strings.Contains(got, "wor..."), "summary must end on a word boundary")
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, 1, ReadingTime(""))
	assert.Equal(t, 1, ReadingTime("a few words"))
	assert.Equal(t, 2, ReadingTime(strings.Repeat("word ", 400)))
	assert.Equal(t, 3, ReadingTime(strings.Repeat("word ", 500)))
}
