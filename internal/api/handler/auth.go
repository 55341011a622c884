package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/hexblog/hexblog/internal/auth"
	"github.com/hexblog/hexblog/internal/web/components"
	"github.com/hexblog/hexblog/internal/web/pages"
)

func (h *Handler) registrationOpen(c *gin.Context) bool {
	open, err := h.auth.RegistrationEnabled(c.Request.Context())
	if err != nil {
		log.Error("failed to check registration state", "error", err)
		return false
	}
	return open
}

func (h *Handler) Login(c *gin.Context) {
	if CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	h.render(c, http.StatusOK, pages.Login(h.meta(c), "", h.registrationOpen(c)))
}

func (h *Handler) LoginSubmit(c *gin.Context) {
	email := c.PostForm("email")
	state, err := h.auth.Login(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		flashError(c, err)
		h.render(c, http.StatusUnauthorized, pages.Login(h.meta(c), email, h.registrationOpen(c)))
		return
	}

	session := sessions.Default(c)
	auth.StoreState(session, state)

	if _, ok := state.(auth.AwaitingTwoFactor); ok {
		Redirect(c, "/auth/two-factor")
		return
	}
	AddFlash(c, components.FlashSuccess, "Welcome back!")
	Redirect(c, "/")
}

// awaitingTwoFactor reports whether the session owes a second factor.
func awaitingTwoFactor(c *gin.Context) bool {
	_, ok := auth.LoadState(sessions.Default(c)).(auth.AwaitingTwoFactor)
	return ok
}

func (h *Handler) TwoFactor(c *gin.Context) {
	if !awaitingTwoFactor(c) {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}
	h.render(c, http.StatusOK, pages.TwoFactor(h.meta(c)))
}

func (h *Handler) TwoFactorSubmit(c *gin.Context) {
	h.verify(c, "/auth/two-factor", h.auth.VerifySecondFactor)
}

func (h *Handler) Recovery(c *gin.Context) {
	if !awaitingTwoFactor(c) {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}
	h.render(c, http.StatusOK, pages.Recovery(h.meta(c)))
}

func (h *Handler) RecoverySubmit(c *gin.Context) {
	h.verify(c, "/auth/recovery", h.auth.VerifyRecoveryCode)
}

type verifyFunc func(ctx context.Context, state auth.State, code string) (auth.State, error)

func (h *Handler) verify(c *gin.Context, retry string, verifyCode verifyFunc) {
	ctx := c.Request.Context()
	session := sessions.Default(c)
	state := auth.LoadState(session)

	next, err := verifyCode(ctx, state, c.PostForm("code"))
	if err != nil {
		flashError(c, err)
		if errors.Is(err, auth.ErrNotAwaitingTwoFactor) {
			auth.StoreState(session, auth.Anonymous{})
			Redirect(c, "/auth/login")
			return
		}
		Redirect(c, retry)
		return
	}

	auth.StoreState(session, next)
	AddFlash(c, components.FlashSuccess, "Successfully verified! Welcome back!")
	if authed, ok := next.(auth.Authenticated); ok {
		if left, err := h.auth.BackupCodesRemaining(ctx, authed.UserID); err == nil && left <= 3 {
			AddFlash(c, components.FlashInfo, fmt.Sprintf("You have %s left. Consider generating new ones.",
				components.Pluralize(left, "backup code", "backup codes")))
		}
	}
	Redirect(c, "/")
}

func (h *Handler) Register(c *gin.Context) {
	if CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	if !h.registrationOpen(c) {
		h.render(c, http.StatusOK, pages.RegistrationClosed(h.meta(c)))
		return
	}
	h.render(c, http.StatusOK, pages.Register(h.meta(c), auth.RegisterInput{}))
}

func (h *Handler) RegisterSubmit(c *gin.Context) {
	in := auth.RegisterInput{
		Email:    c.PostForm("email"),
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
		Confirm:  c.PostForm("confirm"),
	}

	user, err := h.auth.Register(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, auth.ErrRegistrationDisabled) {
			h.render(c, http.StatusForbidden, pages.RegistrationClosed(h.meta(c)))
			return
		}
		flashError(c, err)
		h.render(c, http.StatusBadRequest, pages.Register(h.meta(c), in))
		return
	}

	if user.Approved {
		AddFlash(c, components.FlashSuccess, "Registration successful! Please log in.")
	} else {
		AddFlash(c, components.FlashSuccess, "Registration successful! Your account is awaiting approval by an administrator.")
	}
	Redirect(c, "/auth/login")
}

func (h *Handler) SetupTwoFactor(c *gin.Context) {
	user := CurrentUser(c)
	enrollment, err := h.auth.BeginTwoFactorSetup(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, auth.ErrTwoFactorAlreadyEnabled) {
			AddFlash(c, components.FlashInfo, "Two-factor authentication is already enabled.")
			Redirect(c, "/user/settings")
			return
		}
		h.serverError(c, "failed to begin two-factor setup", err)
		return
	}
	h.render(c, http.StatusOK, pages.SetupTwoFactor(h.meta(c), enrollment))
}

func (h *Handler) SetupTwoFactorSubmit(c *gin.Context) {
	user := CurrentUser(c)
	codes, err := h.auth.ConfirmTwoFactorSetup(c.Request.Context(), user.ID, c.PostForm("code"))
	if err != nil {
		flashError(c, err)
		if errors.Is(err, auth.ErrTwoFactorAlreadyEnabled) {
			Redirect(c, "/user/settings")
			return
		}
		Redirect(c, "/auth/setup-2fa")
		return
	}

	AddFlash(c, components.FlashSuccess, "Two-factor authentication has been enabled! Your account is now more secure.")
	h.render(c, http.StatusOK, pages.BackupCodes(h.meta(c), codes))
}

func (h *Handler) DisableTwoFactor(c *gin.Context) {
	user := CurrentUser(c)
	// a secret left by an unfinished setup is cleared as well
	if !user.TOTPEnabled && user.TOTPSecret == nil {
		AddFlash(c, components.FlashError, "Two-factor authentication is not enabled.")
		Redirect(c, "/user/settings")
		return
	}
	if err := h.auth.DisableTwoFactor(c.Request.Context(), user.ID); err != nil {
		flashError(c, err)
	} else {
		AddFlash(c, components.FlashSuccess, "Two-factor authentication has been disabled.")
	}
	Redirect(c, "/user/settings")
}

func (h *Handler) GenerateBackupCodes(c *gin.Context) {
	user := CurrentUser(c)
	codes, err := h.auth.RegenerateBackupCodes(c.Request.Context(), user.ID)
	if err != nil {
		flashError(c, err)
		Redirect(c, "/user/settings")
		return
	}
	AddFlash(c, components.FlashSuccess, "New backup codes generated. Your previous codes no longer work.")
	h.render(c, http.StatusOK, pages.BackupCodes(h.meta(c), codes))
}

func (h *Handler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	AddFlash(c, components.FlashInfo, "You have been logged out. Come back soon!")
	Redirect(c, "/")
}
