package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hexblog/hexblog/internal/config"
	"github.com/hexblog/hexblog/internal/database"
	mail "github.com/xhit/go-simple-mail/v2"
)

// Delivery runs inside the request that triggered it, so every send is bounded.
const (
	smtpConnectTimeout = 3 * time.Second
	smtpSendTimeout    = 5 * time.Second
	// notifyBudget caps the time one notification may spend across all recipients.
	notifyBudget = 10 * time.Second
)

// NotificationService sends account emails. It implements auth.Notifier.
type NotificationService struct {
	config    *config.EmailConfig
	siteName  string
	serverURL string
	send      func(to, subject, body string) error
}

// message is the data passed to the email templates.
type message struct {
	SiteName  string
	Username  string
	Email     string
	ActionURL string
}

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))

// New creates a new email notification service.
func New(cfg *config.EmailConfig, siteName, serverURL string) *NotificationService {
	n := &NotificationService{
		config:    cfg,
		siteName:  siteName,
		serverURL: serverURL,
	}
	n.send = n.sendEmail
	return n
}

func (n *NotificationService) enabled() bool {
	if n.config == nil || !n.config.Enabled {
		log.Debug("Email notifications are disabled, skipping notification")
		return false
	}
	return true
}

// RegistrationPending tells every admin that a new account waits for approval.
// Remaining admins are skipped once ctx is done or the notification budget is spent.
func (n *NotificationService) RegistrationPending(ctx context.Context, admins []database.User, user *database.User) {
	if !n.enabled() {
		return
	}

	subject := fmt.Sprintf("[%s] New account awaiting approval: %s", n.siteName, user.Username)
	body, err := n.render("registration_pending.html", message{
		SiteName:  n.siteName,
		Username:  user.Username,
		Email:     user.Email,
		ActionURL: n.serverURL + "/admin/users",
	})
	if err != nil {
		log.Error("Failed to generate email body", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, notifyBudget)
	defer cancel()

	for _, admin := range admins {
		if admin.Email == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			log.Warn("Skipping remaining registration notifications", "to", admin.Email, "error", err)
			return
		}
		if err := n.send(admin.Email, subject, body); err != nil {
			log.Error("Failed to send registration notification", "to", admin.Email, "error", err)
		}
	}
}

// AccountApproved tells the user their account can log in now.
func (n *NotificationService) AccountApproved(_ context.Context, user *database.User) {
	if !n.enabled() {
		return
	}
	if user.Email == "" {
		log.Warn("User email is empty, skipping notification", "user", user.Username)
		return
	}

	subject := fmt.Sprintf("[%s] Your account has been approved", n.siteName)
	body, err := n.render("account_approved.html", message{
		SiteName:  n.siteName,
		Username:  user.Username,
		Email:     user.Email,
		ActionURL: n.serverURL + "/auth/login",
	})
	if err != nil {
		log.Error("Failed to generate email body", "error", err)
		return
	}

	if err := n.send(user.Email, subject, body); err != nil {
		log.Error("Failed to send approval notification", "to", user.Email, "error", err)
	}
}

func (n *NotificationService) render(name string, data message) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sendEmail sends an email using go-simple-mail library.
func (n *NotificationService) sendEmail(to, subject, body string) error {
	server := mail.NewSMTPClient()
	server.Host = n.config.SMTPHost
	server.Port = n.config.SMTPPort
	server.Username = n.config.Username
	server.Password = n.config.Password

	switch {
	case n.config.UseSSL:
		server.Encryption = mail.EncryptionSSLTLS
	case n.config.UseTLS:
		server.Encryption = mail.EncryptionSTARTTLS
	default:
		server.Encryption = mail.EncryptionNone
	}

	if n.config.InsecureSkipVerify {
		server.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	server.KeepAlive = false
	server.ConnectTimeout = smtpConnectTimeout
	server.SendTimeout = smtpSendTimeout

	smtpClient, err := server.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() {
		if closeErr := smtpClient.Close(); closeErr != nil {
			log.Warn("Failed to close SMTP client", "error", closeErr)
		}
	}()

	fromName := n.config.FromName
	if fromName == "" {
		fromName = n.siteName
	}

	email := mail.NewMSG()
	email.SetFrom(fmt.Sprintf("%s <%s>", fromName, n.config.FromEmail))
	email.AddTo(to)
	email.SetSubject(subject)
	email.SetBody(mail.TextHTML, body)

	if email.Error != nil {
		return fmt.Errorf("failed to build email: %w", email.Error)
	}

	if err := email.Send(smtpClient); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Info("Email notification sent", "to", to, "subject", subject)
	return nil
}
