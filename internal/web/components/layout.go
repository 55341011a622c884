package components

import (
	"context"
	"time"

	"github.com/a-h/templ"
	"github.com/hexblog/hexblog/internal/database"
)

// Flash categories.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-time message shown at the top of the next page.
type Flash struct {
	Category string
	Message  string
}

// Meta is the per-request data every page needs.
type Meta struct {
	SiteName    string
	Title       string
	Description string
	User        *database.User
	IsAdmin     bool
	Flashes     []Flash
	// Avatar returns the avatar URL for an email. Nil disables avatars.
	Avatar func(email string) string
}

// PageTitle returns the document title.
func (m Meta) PageTitle() string {
	if m.Title == "" {
		return m.SiteName
	}
	return m.Title + " | " + m.SiteName
}

// AvatarURL returns the avatar for email or an empty string.
func (m Meta) AvatarURL(email string) string {
	if m.Avatar == nil {
		return ""
	}
	return m.Avatar(email)
}

// Layout wraps body in the site chrome.
func Layout(meta Meta, body templ.Component) templ.Component {
	return Component(func(ctx context.Context, h *HTML) {
		h.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.Printf(`<title>%s</title>`, meta.PageTitle())
		if meta.Description != "" {
			h.Printf(`<meta name="description" content="%s">`, meta.Description)
		}
		h.Raw(`<link rel="stylesheet" href="/static/style.css"></head><body>`)

		h.Raw(`<header class="site-header"><nav>`)
		h.Printf(`<a class="brand" href="/">%s</a>`, meta.SiteName)
		h.Raw(`<a href="/search">Search</a><a href="/about">About</a>`)
		h.Raw(`<span class="spacer"></span>`)
		if meta.User != nil {
			if meta.IsAdmin {
				h.Raw(`<a href="/admin/">Admin</a>`)
			}
			h.Printf(`<a href="/user/settings">%s</a>`, meta.User.Username)
			h.Raw(`<a href="/auth/logout">Logout</a>`)
		} else {
			h.Raw(`<a href="/auth/login">Login</a><a href="/auth/register">Register</a>`)
		}
		h.Raw(`</nav></header>`)

		h.Raw(`<main class="container">`)
		h.Render(ctx, Flashes(meta.Flashes))
		h.Render(ctx, body)
		h.Raw(`</main>`)

		h.Printf(`<footer class="site-footer">&copy; %d %s</footer>`, time.Now().Year(), meta.SiteName)
		h.Raw(`</body></html>`)
	})
}

// Flashes renders the pending flash messages.
func Flashes(flashes []Flash) templ.Component {
	return Component(func(_ context.Context, h *HTML) {
		if len(flashes) == 0 {
			return
		}
		h.Raw(`<div class="flashes">`)
		for _, f := range flashes {
			h.Printf(`<div class="flash flash-%s" role="alert">%s</div>`, f.Category, f.Message)
		}
		h.Raw(`</div>`)
	})
}
