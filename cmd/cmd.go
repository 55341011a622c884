package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/hexblog/hexblog/internal/auth"
	"github.com/hexblog/hexblog/internal/blog"
	"github.com/hexblog/hexblog/internal/cache"
	"github.com/hexblog/hexblog/internal/config"
	"github.com/hexblog/hexblog/internal/database"
	"github.com/hexblog/hexblog/internal/notify/email"
)

// app bundles everything a command needs to talk to the blog.
type app struct {
	cfg   *config.Config
	db    *database.Client
	pages *cache.ListingCache[blog.Page]
	auth  *auth.Service
	blog  *blog.Service
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		log.Error("failed to close database", "error", err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*database.Client, error) {
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

// newApp loads the config, opens the database and wires the services.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	pages := cache.NewListingCache[blog.Page](cfg.Cache)
	notifier := email.New(cfg.Email, cfg.SiteName, cfg.ServerURL)

	return &app{
		cfg:   cfg,
		db:    db,
		pages: pages,
		auth:  auth.NewService(db, cfg.TOTPIssuer, auth.WithNotifier(notifier)),
		blog:  blog.NewService(db, blog.WithListingCache(pages)),
	}, nil
}
