package pages

import (
	"context"
	"strconv"

	"github.com/a-h/templ"
	"github.com/hexblog/hexblog/internal/auth"
	"github.com/hexblog/hexblog/internal/web/components"
)

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// Login renders the login form.
func Login(meta components.Meta, email string, registrationOpen bool) templ.Component {
	body := components.Component(func(ctx context.Context, h *components.HTML) {
		h.Raw(`<h1>Login</h1><form method="post" action="/auth/login" class="card">`)
		h.Render(ctx, components.Input("Email", "email", "email", email, true))
		h.Render(ctx, components.Input("Password", "password", "password", "", true))
		h.Raw(`<button type="submit">Login</button></form>`)
		if registrationOpen {
			h.Raw(`<p>No account yet? <a href="/auth/register">Register</a></p>`)
		}
	})
	meta.Title = "Login"
	return components.Layout(meta, body)
}

// TwoFactor asks for the TOTP code of a pending login.
func TwoFactor(meta components.Meta) templ.Component {
	body := components.Component(func(ctx context.Context, h *components.HTML) {
		h.Raw(`<h1>Two-factor authentication</h1>`)
		h.Raw(`<p>Enter the code from your authenticator app or one of your backup codes.</p>`)
		h.Raw(`<form method="post" action="/auth/two-factor" class="card">`)
		h.Raw(`<label for="code">Code</label><input id="code" name="code" type="text" inputmode="numeric" autocomplete="one-time-code" required autofocus>`)
		h.Raw(`<button type="submit">Verify</button></form>`)
		h.Raw(`<p><a href="/auth/recovery">Lost your device? Use a backup code</a></p>`)
	})
	meta.Title = "Two-factor authentication"
	return components.Layout(meta, body)
}

// Recovery asks for a backup code of a pending login.
func Recovery(meta components.Meta) templ.Component {
	body := components.Component(func(ctx context.Context, h *components.HTML) {
		h.Raw(`<h1>Use a backup code</h1>`)
		h.Raw(`<p>Each backup code works only once.</p>`)
		h.Raw(`<form method="post" action="/auth/recovery" class="card">`)
		h.Raw(`<label for="code">Backup code</label><input id="code" name="code" type="text" autocomplete="off" required autofocus>`)
		h.Raw(`<button type="submit">Verify</button></form>`)
		h.Raw(`<p><a href="/auth/two-factor">Use your authenticator app instead</a></p>`)
	})
	meta.Title = "Recovery"
	return components.Layout(meta, body)
}

// Register renders the registration form.
func Register(meta components.Meta, in auth.RegisterInput) templ.Component {
	body := components.Component(func(ctx context.Context, h *components.HTML) {
		h.Raw(`<h1>Register</h1><form method="post" action="/auth/register" class="card">`)
		h.Render(ctx, components.Input("Email", "email", "email", in.Email, true))
		h.Render(ctx, components.Input("Username", "username", "text", in.Username, true))
		h.Render(ctx, components.Input("Password", "password", "password", "", true))
		h.Render(ctx, components.Input("Confirm password", "confirm", "password", "", true))
		h.Raw(`<button type="submit">Register</button></form>`)
		h.Raw(`<p>Already registered? <a href="/auth/login">Login</a></p>`)
	})
	meta.Title = "Register"
	return components.Layout(meta, body)
}

// RegistrationClosed is shown instead of the form while registration is disabled.
func RegistrationClosed(meta components.Meta) templ.Component {
	body := components.Component(func(_ context.Context, h *components.HTML) {
		h.Raw(`<h1>Register</h1><p>Registration is currently disabled.</p>`)
	})
	meta.Title = "Register"
	return components.Layout(meta, body)
}

// SetupTwoFactor shows the enrollment QR code and the confirmation form.
func SetupTwoFactor(meta components.Meta, enrollment *auth.Enrollment) templ.Component {
	body := components.Component(func(ctx context.Context, h *components.HTML) {
		h.Raw(`<h1>Set up two-factor authentication</h1>`)
		h.Raw(`<p>Scan the QR code with your authenticator app, then enter the code it shows.</p>`)
		h.Printf(`<img class="qr" src="%s" alt="QR code" width="200" height="200">`, enrollment.QRCode)
		h.Printf(`<p>Or enter this key manually: <code>%s</code></p>`, enrollment.Secret)
		h.Raw(`<form method="post" action="/auth/setup-2fa" class="card">`)
		h.Raw(`<label for="code">Verification code</label><input id="code" name="code" type="text" inputmode="numeric" autocomplete="one-time-code" required>`)
		h.Raw(`<button type="submit">Enable</button></form>`)
	})
	meta.Title = "Set up two-factor authentication"
	return components.Layout(meta, body)
}

// BackupCodes shows freshly generated backup codes. They are never shown again.
func BackupCodes(meta components.Meta, codes []string) templ.Component {
	body := components.Component(func(_ context.Context, h *components.HTML) {
		h.Raw(`<h1>Your backup codes</h1>`)
		h.Raw(`<p>Store these codes somewhere safe. Each code can be used once if you lose access to your authenticator app. They will not be shown again.</p>`)
		h.Raw(`<ul class="backup-codes">`)
		for _, code := range codes {
			h.Printf(`<li><code>%s</code></li>`, code)
		}
		h.Raw(`</ul><p><a href="/user/settings">Continue to settings</a></p>`)
	})
	meta.Title = "Backup codes"
	return components.Layout(meta, body)
}
