package pages

import (
	"context"
	"strings"

	"github.com/a-h/templ"
	"github.com/hexblog/hexblog/internal/auth"
	"github.com/hexblog/hexblog/internal/blog"
	"github.com/hexblog/hexblog/internal/database"
	"github.com/hexblog/hexblog/internal/web/components"
	"github.com/samber/lo"
)

func adminNav(h *components.HTML) {
	h.Raw(`<nav class="admin-nav"><a href="/admin/">Dashboard</a><a href="/admin/posts">Posts</a><a href="/admin/post/new">New post</a><a href="/admin/users">Users</a></nav>`)
}

func postStatus(p database.Post) string {
	if p.IsPublished {
		return "Published"
	}
	return "Draft"
}

// AdminDashboard shows the overview numbers and the latest posts.
func AdminDashboard(meta components.Meta, d *blog.Dashboard) templ.Component {
	body := components.Component(func(_ context.Context, h *components.HTML) {
		h.Raw(`<h1>Dashboard</h1>`)
		adminNav(h)
		h.Raw(`<div class="stats">`)
		h.Printf(`<div class="stat"><span>%s</span>posts</div>`, components.FormatCount(d.Posts))
		h.Printf(`<div class="stat"><span>%s</span>drafts</div>`, components.FormatCount(d.Drafts))
		h.Printf(`<div class="stat"><span>%s</span>users</div>`, components.FormatCount(d.Users))
		h.Raw(`</div><h2>Recent posts</h2><ul>`)
		for _, p := range d.RecentPosts {
			h.Printf(`<li><a href="/admin/post/%d/edit">%s</a> <span class="meta">%s, updated %s</span></li>`,
				p.ID, p.Title, postStatus(p), components.FormatRelativeTime(p.UpdatedAt))
		}
		h.Raw(`</ul>`)
	})
	meta.Title = "Admin"
	return components.Layout(meta, body)
}

// AdminPosts lists every post including drafts.
func AdminPosts(meta components.Meta, page blog.Page) templ.Component {
	body := components.Component(func(ctx context.Context, h *components.HTML) {
		h.Raw(`<h1>Posts</h1>`)
		adminNav(h)
		h.Raw(`<table><thead><tr><th>Title</th><th>Status</th><th>Author</th><th>Updated</th><th></th></tr></thead><tbody>`)
		for _, p := range page.Posts {
			h.Raw(`<tr>`)
			if p.IsPublished {
				h.Printf(`<td><a href="/post/%s">%s</a>`, p.Slug, p.Title)
			} else {
				h.Printf(`<td>%s`, p.Title)
			}
			if p.IsFeatured {
				h.Raw(` <span class="badge">featured</span>`)
			}
			h.Raw(`</td>`)
			h.Printf(`<td>%s</td><td>%s</td><td>%s</td>`, postStatus(p), authorName(p.Author), components.FormatRelativeTime(p.UpdatedAt))
			h.Printf(`<td><a href="/admin/post/%d/edit">Edit</a> `, p.ID)
			h.Render(ctx, components.PostButton("/admin/post/"+itoa(p.ID)+"/delete", "Delete", "link danger", "Delete this post and its comments?"))
			h.Raw(`</td></tr>`)
		}
		h.Raw(`</tbody></table>`)
		h.Render(ctx, components.Pagination("/admin/posts", nil, page))
	})
	meta.Title = "Posts"
	return components.Layout(meta, body)
}

// PostForm renders the create or edit form. postID is zero for a new post.
func PostForm(meta components.Meta, postID uint, in blog.PostInput) templ.Component {
	action := "/admin/post/new"
	title := "New post"
	if postID != 0 {
		action = "/admin/post/" + itoa(postID) + "/edit"
		title = "Edit post"
	}

	body := components.Component(func(ctx context.Context, h *components.HTML) {
		h.Printf(`<h1>%s</h1>`, title)
		adminNav(h)
		h.Printf(`<form method="post" action="%s" class="card post-form">`, action)
		h.Render(ctx, components.Input("Title", "title", "text", in.Title, true))
		h.Render(ctx, components.TextArea("Content", "content", in.Content, 20))
		h.Render(ctx, components.TextArea("Summary (generated from the content when empty)", "summary", in.Summary, 3))
		h.Render(ctx, components.Input("Meta description", "meta_description", "text", in.MetaDescription, false))
		h.Render(ctx, components.Checkbox("Published", "publish", in.Publish))
		h.Render(ctx, components.Checkbox("Featured", "featured", in.Featured))
		h.Raw(`<button type="submit">Save</button></form>`)
	})
	meta.Title = title
	return components.Layout(meta, body)
}

// AdminUsers lists the accounts with approval toggles and the registration switch.
func AdminUsers(meta components.Meta, users []database.User, page blog.Page, registrationEnabled bool) templ.Component {
	body := components.Component(func(ctx context.Context, h *components.HTML) {
		h.Raw(`<h1>Users</h1>`)
		adminNav(h)

		h.Raw(`<form method="post" action="/admin/registration" class="inline">`)
		if registrationEnabled {
			h.Raw(`<p>Registration is open. <input type="hidden" name="enabled" value="false"><button type="submit">Disable registration</button></p>`)
		} else {
			h.Raw(`<p>Registration is closed. <input type="hidden" name="enabled" value="true"><button type="submit">Enable registration</button></p>`)
		}
		h.Raw(`</form>`)

		h.Raw(`<table><thead><tr><th>Username</th><th>Email</th><th>Roles</th><th>2FA</th><th>Registered</th><th>Status</th><th></th></tr></thead><tbody>`)
		for i := range users {
			u := &users[i]
			roles := auth.RoleNames(u)
			h.Printf(`<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td>`,
				u.Username, u.Email, lo.Ternary(len(roles) == 0, "-", strings.Join(roles, ", ")),
				lo.Ternary(u.TOTPEnabled, "on", "off"), components.FormatRelativeTime(u.CreatedAt))
			h.Printf(`<td>%s</td><td>`, lo.Ternary(u.Approved, "Approved", "Pending"))
			if meta.User == nil || meta.User.ID != u.ID {
				h.Render(ctx, components.PostButton("/admin/users/"+itoa(u.ID)+"/toggle-approval",
					lo.Ternary(u.Approved, "Revoke", "Approve"), "link", ""))
			}
			h.Raw(`</td></tr>`)
		}
		h.Raw(`</tbody></table>`)
		h.Render(ctx, components.Pagination("/admin/users", nil, page))
	})
	meta.Title = "Users"
	return components.Layout(meta, body)
}
