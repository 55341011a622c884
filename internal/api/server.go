package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/hexblog/hexblog/internal/api/handler"
	"github.com/hexblog/hexblog/internal/auth"
	"github.com/hexblog/hexblog/internal/blog"
	"github.com/hexblog/hexblog/internal/config"
	"github.com/hexblog/hexblog/internal/static"
)

const (
	sessionName     = "hexblog_session"
	shutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	auth      *auth.Service
	handler   *handler.Handler
}

func New(cfg *config.Config, authService *auth.Service, blogService *blog.Service, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ginEngine := gin.New()
	if err := ginEngine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	ginEngine.Use(gin.Recovery(), requestLogger(), gzip.Gzip(gzip.DefaultCompression))

	s := &Server{
		cfg:       cfg,
		ginEngine: ginEngine,
		auth:      authService,
		handler:   handler.New(cfg, authService, blogService),
	}

	s.setupSession()
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions(sessionName, store), LoadUser(s.auth))
}

func (s *Server) setupRoutes() error {
	h := s.handler

	files, err := static.Files()
	if err != nil {
		return err
	}
	s.ginEngine.StaticFS("/static", http.FS(files))
	s.ginEngine.GET("/healthz", h.Healthz)
	s.ginEngine.NoRoute(h.NotFound)

	s.ginEngine.GET("/", h.Home)
	s.ginEngine.GET("/post/:slug", h.Post)
	s.ginEngine.GET("/search", h.Search)
	s.ginEngine.GET("/about", h.About)

	limit := RateLimit(s.cfg.RateLimit)

	authGroup := s.ginEngine.Group("/auth")
	authGroup.GET("/login", h.Login)
	authGroup.POST("/login", limit, h.LoginSubmit)
	authGroup.GET("/two-factor", h.TwoFactor)
	authGroup.POST("/two-factor", limit, h.TwoFactorSubmit)
	authGroup.GET("/recovery", h.Recovery)
	authGroup.POST("/recovery", limit, h.RecoverySubmit)
	authGroup.GET("/register", h.Register)
	authGroup.POST("/register", h.RegisterSubmit)
	authGroup.GET("/logout", h.Logout)

	protected := s.ginEngine.Group("/")
	protected.Use(RequireAuth())
	protected.POST("/post/:slug/comments", h.AddComment)
	protected.POST("/comments/:id/delete", h.DeleteComment)
	protected.GET("/auth/setup-2fa", h.SetupTwoFactor)
	protected.POST("/auth/setup-2fa", h.SetupTwoFactorSubmit)
	protected.POST("/auth/disable-2fa", h.DisableTwoFactor)
	protected.POST("/auth/generate-backup-codes", h.GenerateBackupCodes)
	protected.GET("/user/settings", h.Settings)
	protected.POST("/user/update-profile", h.UpdateProfile)
	protected.POST("/user/delete-account", h.DeleteAccount)

	s.setupAdminRoutes()
	return nil
}

func (s *Server) setupAdminRoutes() {
	h := s.handler
	adminGroup := s.ginEngine.Group("/admin")
	adminGroup.Use(RequireAuth(), RequireAdmin())

	adminGroup.GET("/", h.AdminDashboard)
	adminGroup.GET("/posts", h.AdminPosts)
	adminGroup.GET("/post/new", h.NewPost)
	adminGroup.POST("/post/new", h.CreatePost)
	adminGroup.GET("/post/:id/edit", h.EditPost)
	adminGroup.POST("/post/:id/edit", h.UpdatePost)
	adminGroup.POST("/post/:id/delete", h.DeletePost)
	adminGroup.GET("/users", h.AdminUsers)
	adminGroup.POST("/users/:id/toggle-approval", h.ToggleApproval)
	adminGroup.POST("/registration", h.SetRegistration)
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "listen", s.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
