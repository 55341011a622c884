package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/hexblog/hexblog/internal/auth"
	"github.com/hexblog/hexblog/internal/blog"
	"github.com/hexblog/hexblog/internal/config"
	"github.com/hexblog/hexblog/internal/database"
	"github.com/hexblog/hexblog/internal/gravatar"
	"github.com/hexblog/hexblog/internal/web/components"
	"github.com/hexblog/hexblog/internal/web/pages"
)

const userContextKey = "user"

const genericErrorMessage = "Something went wrong. Please try again."

type Handler struct {
	config *config.Config
	auth   *auth.Service
	blog   *blog.Service
}

func New(cfg *config.Config, authService *auth.Service, blogService *blog.Service) *Handler {
	return &Handler{
		config: cfg,
		auth:   authService,
		blog:   blogService,
	}
}

// CurrentUser returns the logged in user of the request, or nil.
func CurrentUser(c *gin.Context) *database.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*database.User)
	return user
}

// SetCurrentUser attaches the logged in user to the request.
func SetCurrentUser(c *gin.Context, user *database.User) {
	c.Set(userContextKey, user)
}

// AddFlash queues a message for the next rendered page. The caller saves the session.
func AddFlash(c *gin.Context, category, message string) {
	sessions.Default(c).AddFlash(message, category)
}

// SaveSession writes the session cookie and logs failures.
func SaveSession(c *gin.Context) {
	if err := sessions.Default(c).Save(); err != nil {
		log.Error("failed to save session", "error", err)
	}
}

// Redirect saves the session and redirects.
func Redirect(c *gin.Context, location string) {
	SaveSession(c)
	c.Redirect(http.StatusFound, location)
}

func (h *Handler) meta(c *gin.Context) components.Meta {
	user := CurrentUser(c)
	m := components.Meta{
		SiteName: h.config.SiteName,
		User:     user,
		IsAdmin:  user != nil && auth.IsAdmin(user),
	}

	session := sessions.Default(c)
	for _, category := range []string{components.FlashError, components.FlashInfo, components.FlashSuccess} {
		for _, f := range session.Flashes(category) {
			if msg, ok := f.(string); ok {
				m.Flashes = append(m.Flashes, components.Flash{Category: category, Message: msg})
			}
		}
	}
	if len(m.Flashes) > 0 {
		SaveSession(c)
	}

	if h.config.Gravatar != nil && h.config.Gravatar.Enabled {
		opts := h.config.Gravatar.Options()
		m.Avatar = func(email string) string {
			return gravatar.URL(email, opts)
		}
	}
	return m
}

func (h *Handler) render(c *gin.Context, status int, component templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		log.Error("failed to render page", "path", c.Request.URL.Path, "error", err)
	}
}

// NotFound renders the not found page.
func (h *Handler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, pages.NotFound(h.meta(c)))
}

func (h *Handler) serverError(c *gin.Context, msg string, err error) {
	log.Error(msg, "path", c.Request.URL.Path, "error", err)
	h.render(c, http.StatusInternalServerError, pages.Error(h.meta(c)))
}

var flashMessages = []struct {
	err error
	msg string
}{
	{auth.ErrInvalidCredentials, "Invalid email or password"},
	{auth.ErrPendingApproval, "Your account is pending approval by an administrator"},
	{auth.ErrInvalidCode, "Invalid verification code"},
	{auth.ErrRegistrationDisabled, "Registration is currently disabled"},
	{auth.ErrTwoFactorNotEnabled, "Two-factor authentication is not enabled"},
	{auth.ErrTwoFactorAlreadyEnabled, "Two-factor authentication is already enabled"},
	{auth.ErrNotAwaitingTwoFactor, "Please log in first"},
	{auth.ErrForbidden, "You are not allowed to do that"},
	{auth.ErrNotFound, "User not found"},
	{blog.ErrForbidden, "You are not allowed to do that"},
	{blog.ErrNotFound, "Not found"},
}

// flashError maps err to a user facing message. Unexpected errors are logged and shown generically.
func flashError(c *gin.Context, err error) {
	var authValidation *auth.ValidationError
	if errors.As(err, &authValidation) {
		AddFlash(c, components.FlashError, authValidation.Message)
		return
	}
	var blogValidation *blog.ValidationError
	if errors.As(err, &blogValidation) {
		AddFlash(c, components.FlashError, blogValidation.Message)
		return
	}
	for _, fm := range flashMessages {
		if errors.Is(err, fm.err) {
			AddFlash(c, components.FlashError, fm.msg)
			return
		}
	}
	log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	AddFlash(c, components.FlashError, genericErrorMessage)
}

func parseUintParam(param string) (uint, error) {
	id, err := strconv.ParseUint(param, 10, 0)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// pageParam reads the page query parameter. Missing or invalid values mean page 1.
func pageParam(c *gin.Context) int {
	p, err := parseUintParam(c.Query("page"))
	if err != nil || p == 0 {
		return 1
	}
	page, err := safecast.ToInt(p)
	if err != nil {
		return 1
	}
	return page
}

// Healthz reports that the server is up.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
