package pages

import (
	"context"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/hexblog/hexblog/internal/blog"
	"github.com/hexblog/hexblog/internal/database"
	"github.com/hexblog/hexblog/internal/web/components"
)

func authorName(u database.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// paragraphs renders plain text content. Blank lines separate paragraphs.
func paragraphs(h *components.HTML, content string) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		h.Raw("<p>")
		for i, line := range lines {
			if i > 0 {
				h.Raw("<br>")
			}
			h.Text(line)
		}
		h.Raw("</p>")
	}
}

func postCard(h *components.HTML, p database.Post) {
	h.Raw(`<article class="post-card">`)
	h.Printf(`<h2><a href="/post/%s">%s</a></h2>`, p.Slug, p.Title)
	h.Printf(`<p class="meta">%s by %s &middot; %d min read</p>`,
		components.FormatDate(p.PublishedAt), authorName(p.Author), blog.ReadingTime(p.Content))
	h.Printf(`<p>%s</p>`, p.Summary)
	h.Printf(`<a class="read-more" href="/post/%s">Read more</a>`, p.Slug)
	h.Raw(`</article>`)
}

// Home lists published posts.
func Home(meta components.Meta, page blog.Page) templ.Component {
	body := components.Component(func(ctx context.Context, h *components.HTML) {
		if len(page.Posts) == 0 {
			h.Raw(`<p class="empty">No posts yet.</p>`)
			return
		}
		for _, p := range page.Posts {
			postCard(h, p)
		}
		h.Render(ctx, components.Pagination("/", nil, page))
	})
	return components.Layout(meta, body)
}

// Post shows a published post with its comments.
func Post(meta components.Meta, post *database.Post, comments []database.Comment) templ.Component {
	body := components.Component(func(ctx context.Context, h *components.HTML) {
		h.Raw(`<article class="post">`)
		h.Printf(`<h1>%s</h1>`, post.Title)
		h.Printf(`<p class="meta">%s by %s &middot; %d min read</p>`,
			components.FormatDate(post.PublishedAt), authorName(post.Author), blog.ReadingTime(post.Content))
		h.Raw(`<div class="content">`)
		paragraphs(h, post.Content)
		h.Raw(`</div></article>`)

		h.Raw(`<section class="comments">`)
		h.Printf(`<h2>%s</h2>`, components.Pluralize(int64(len(comments)), "comment", "comments"))
		for _, c := range comments {
			h.Raw(`<div class="comment">`)
			if avatar := meta.AvatarURL(c.Author.Email); avatar != "" {
				h.Printf(`<img class="avatar" src="%s" alt="" width="40" height="40">`, avatar)
			}
			h.Printf(`<p class="meta"><strong>%s</strong> %s</p>`, authorName(c.Author), components.FormatRelativeTime(c.CreatedAt))
			paragraphs(h, c.Content)
			if meta.User != nil && meta.User.ID == c.AuthorID {
				h.Render(ctx, components.PostButton("/comments/"+itoa(c.ID)+"/delete", "Delete", "link danger", "Delete this comment?"))
			}
			h.Raw(`</div>`)
		}

		if meta.User != nil {
			h.Printf(`<form method="post" action="/post/%s/comments" class="comment-form">`, post.Slug)
			h.Render(ctx, components.TextArea("Leave a comment", "content", "", 4))
			h.Raw(`<button type="submit">Post comment</button></form>`)
		} else {
			h.Raw(`<p><a href="/auth/login">Log in</a> to leave a comment.</p>`)
		}
		h.Raw(`</section>`)
	})
	meta.Title = post.Title
	meta.Description = post.MetaDescription
	if meta.Description == "" {
		meta.Description = post.Summary
	}
	return components.Layout(meta, body)
}

// Search shows the search form and matching published posts.
func Search(meta components.Meta, query string, page blog.Page) templ.Component {
	body := components.Component(func(ctx context.Context, h *components.HTML) {
		h.Raw(`<form method="get" action="/search" class="search-form">`)
		h.Printf(`<input type="search" name="q" value="%s" placeholder="Search posts" autofocus>`, query)
		h.Raw(`<button type="submit">Search</button></form>`)

		if strings.TrimSpace(query) == "" {
			return
		}
		h.Printf(`<p class="meta">%s for &ldquo;%s&rdquo;</p>`, components.Pluralize(page.Total, "result", "results"), query)
		for _, p := range page.Posts {
			postCard(h, p)
		}
		h.Render(ctx, components.Pagination("/search", url.Values{"q": {query}}, page))
	})
	meta.Title = "Search"
	return components.Layout(meta, body)
}

// About is the static about page.
func About(meta components.Meta) templ.Component {
	body := components.Component(func(_ context.Context, h *components.HTML) {
		h.Printf(`<h1>About %s</h1>`, meta.SiteName)
		h.Raw(`<p>A small blog about code, tools and the things in between.</p>`)
		h.Raw(`<p>Readers can register to leave comments. New accounts are reviewed by an administrator before the first login.</p>`)
	})
	meta.Title = "About"
	return components.Layout(meta, body)
}

// NotFound is rendered for unknown pages and unpublished posts.
func NotFound(meta components.Meta) templ.Component {
	body := components.Component(func(_ context.Context, h *components.HTML) {
		h.Raw(`<h1>Page not found</h1><p>The page you are looking for does not exist.</p><p><a href="/">Back to the blog</a></p>`)
	})
	meta.Title = "Not found"
	return components.Layout(meta, body)
}

// Error is rendered when a request fails unexpectedly.
func Error(meta components.Meta) templ.Component {
	body := components.Component(func(_ context.Context, h *components.HTML) {
		h.Raw(`<h1>Something went wrong</h1><p>Please try again later.</p>`)
	})
	meta.Title = "Error"
	return components.Layout(meta, body)
}
