package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"shopcatalog/auth"
	"shopcatalog/cache"
	"shopcatalog/config"
	"shopcatalog/db"
	"shopcatalog/events"
	"shopcatalog/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/cobra"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP API.

Configuration comes from the environment (and .env when present):
PORT, DATABASE_PATH, UPLOAD_DIR, JWT_SECRET, TOKEN_TTL, REDIS_ADDR,
REDIS_PASSWORD and CACHE_TTL. The product cache is used only when
REDIS_ADDR is set.

Example:
  shopcatalog serve --port 8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Port, "port", "p", "", "port to listen on (overrides PORT)")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	cfg := config.Load()
	if opts.Port != "" {
		cfg.Port = opts.Port
	}

	if err := db.InitDatabase(cfg.DatabasePath); err != nil {
		return err
	}
	defer db.Close(db.DB)

	// Create uploads directory if it doesn't exist
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return fmt.Errorf("create upload directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var productCache *cache.Cache
	if cfg.RedisAddr != "" {
		c, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL)
		if err != nil {
			slog.Warn("product cache disabled", "error", err)
		} else {
			productCache = c
			defer c.Close()
		}
	}

	hub := events.NewHub()
	go hub.Run(ctx)

	app := fiber.New()
	app.Use(logger.New())
	app.Use(cors.New())
	app.Static("/uploads", cfg.UploadDir)

	routes.SetupRoutes(app, routes.Options{
		Tokens:    auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Cache:     productCache,
		Feed:      hub,
		UploadDir: cfg.UploadDir,
	})

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "port", cfg.Port)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutting down")
		return app.Shutdown()
	}
}
