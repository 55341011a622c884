package pages

import (
	"context"

	"github.com/a-h/templ"
	"github.com/hexblog/hexblog/internal/database"
	"github.com/hexblog/hexblog/internal/web/components"
)

// Settings renders the profile form, the two factor controls and account deletion.
func Settings(meta components.Meta, user *database.User, backupCodesLeft int64) templ.Component {
	body := components.Component(func(ctx context.Context, h *components.HTML) {
		h.Raw(`<h1>Settings</h1>`)

		h.Raw(`<section class="card"><h2>Profile</h2>`)
		if avatar := meta.AvatarURL(user.Email); avatar != "" {
			h.Printf(`<img class="avatar" src="%s" alt="" width="80" height="80">`, avatar)
		}
		h.Printf(`<p>%s &middot; %s</p>`, user.Username, user.Email)
		if user.LastLoginAt != nil {
			h.Printf(`<p class="meta">Last login %s</p>`, components.FormatRelativeTime(*user.LastLoginAt))
		}
		h.Raw(`<form method="post" action="/user/update-profile">`)
		h.Render(ctx, components.Input("Display name", "display_name", "text", user.DisplayName, false))
		h.Render(ctx, components.TextArea("Bio", "bio", user.Bio, 4))
		h.Render(ctx, components.Input("Website", "website", "url", user.Website, false))
		h.Raw(`<button type="submit">Save profile</button></form></section>`)

		h.Raw(`<section class="card"><h2>Two-factor authentication</h2>`)
		if user.TOTPEnabled {
			h.Printf(`<p>Two-factor authentication is enabled. You have %s left.</p>`,
				components.Pluralize(backupCodesLeft, "backup code", "backup codes"))
			h.Render(ctx, components.PostButton("/auth/generate-backup-codes", "Generate new backup codes", "", "This invalidates your current backup codes. Continue?"))
			h.Render(ctx, components.PostButton("/auth/disable-2fa", "Disable two-factor authentication", "danger", "Disable two-factor authentication?"))
		} else {
			h.Raw(`<p>Two-factor authentication is disabled.</p><a class="button" href="/auth/setup-2fa">Enable two-factor authentication</a>`)
		}
		h.Raw(`</section>`)

		if !meta.IsAdmin {
			h.Raw(`<section class="card danger-zone"><h2>Delete account</h2>`)
			h.Raw(`<p>This removes your account, your posts and your comments.</p>`)
			h.Render(ctx, components.PostButton("/user/delete-account", "Delete my account", "danger", "Delete your account permanently?"))
			h.Raw(`</section>`)
		}
	})
	meta.Title = "Settings"
	return components.Layout(meta, body)
}
