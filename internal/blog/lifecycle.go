package blog

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hexblog/hexblog/internal/database"
)

const (
	summaryLength    = 200
	maxSummaryLength = 500
	wordsPerMinute   = 200
)

// Publish marks the post published. Publishing an already published post keeps its timestamp.
func Publish(post *database.Post, now time.Time) {
	if post.IsPublished && post.PublishedAt != nil {
		return
	}
	post.IsPublished = true
	post.PublishedAt = &now
}

// Unpublish turns the post back into a draft.
func Unpublish(post *database.Post) {
	post.IsPublished = false
	post.PublishedAt = nil
}

// Summarize derives a summary from the first characters of content, cut at a word boundary.
func Summarize(content string) string {
	text := strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(text) <= summaryLength {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:summaryLength])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "..."
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// ReadingTime estimates the reading time in minutes. It is at least one minute.
func ReadingTime(content string) int {
	words := len(wordPattern.FindAllStringIndex(content, -1))
	minutes := int(math.Round(float64(words) / wordsPerMinute))
	return max(minutes, 1)
}
