package api

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/hexblog/hexblog/internal/api/handler"
	"github.com/hexblog/hexblog/internal/auth"
	"github.com/hexblog/hexblog/internal/web/components"
)

// LoadUser resolves the session into the current user. Sessions pointing at deleted
// or replaced accounts are reset to anonymous.
func LoadUser(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		state := auth.LoadState(session)
		if _, ok := state.(auth.Authenticated); !ok {
			c.Next()
			return
		}

		user, err := authService.ResolveUser(c.Request.Context(), state)
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				auth.StoreState(session, auth.Anonymous{})
				handler.SaveSession(c)
			} else {
				log.Error("failed to load session user", "error", err)
			}
			c.Next()
			return
		}

		handler.SetCurrentUser(c, user)
		c.Next()
	}
}

// RequireAuth redirects anonymous requests to the login page.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler.CurrentUser(c) == nil {
			handler.AddFlash(c, components.FlashInfo, "Please log in to access this page.")
			handler.Redirect(c, "/auth/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin redirects requests from users without the admin role to the home page.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := handler.CurrentUser(c)
		if user == nil || !auth.IsAdmin(user) {
			handler.AddFlash(c, components.FlashError, "You must be an admin to access this page")
			handler.Redirect(c, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestLogger logs every request at debug level.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}
