package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	portssvc "github.com/vetdesk/accounts/internal/core/ports/services"
	"github.com/vetdesk/accounts/internal/core/services"
	"github.com/vetdesk/accounts/internal/platform/config"
	"github.com/vetdesk/accounts/internal/platform/logging"
	"github.com/vetdesk/accounts/internal/repositories/database/pgsql"
	"github.com/vetdesk/accounts/pkg/database"
)

var rootCmd = &cobra.Command{
	Use:           "vetacct",
	Short:         "Customer account balance administration",
	Long:          "Administration tool for the customer account balance engine: schema migrations, balance consistency checks, balance rebuilds and the customer balance summary.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// app bundles everything a command needs once wiring is done.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	services *portssvc.ServiceContainer
	close    func()
}

// newApp loads configuration, connects the database pool and wires the
// repository and service containers.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection pool established")

	repos := pgsql.NewRepositoryProvider(pool)
	return &app{
		cfg:      cfg,
		logger:   logger,
		services: services.NewServiceContainer(repos),
		close:    func() { database.ClosePgxPool(pool) },
	}, nil
}

// cmdContext returns the command context with the application logger attached.
func (a *app) cmdContext(cmd *cobra.Command) context.Context {
	return logging.WithLogger(cmd.Context(), a.logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
