package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sikong32/mytodo/internal/app"
	"github.com/sikong32/mytodo/internal/auth"
	"github.com/sikong32/mytodo/internal/clock"
	"github.com/sikong32/mytodo/internal/config"
	"github.com/sikong32/mytodo/internal/recurrence"
	transporthttp "github.com/sikong32/mytodo/internal/transport/http"
)

const (
	startupTimeout  = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the calendar API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.Default()
			cfg, err := loadConfig(rootOpts, os.LookupEnv, logger)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	if len(cfg.Tokens) == 0 {
		logger.Printf("WARN: no tokens configured, every request except /health will be rejected")
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	clk := clock.NewSystem()
	startupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()
	store, err := openStore(startupCtx, cfg, clk, logger)
	if err != nil {
		return err
	}
	defer store.close()

	expander := recurrence.NewExpander(
		recurrence.WithHorizons(cfg.HorizonPolicy()),
		recurrence.WithLocation(loc),
	)
	calendarSvc := app.NewCalendarService(store.rows, clk,
		app.WithExpander(expander),
		app.WithPalette(cfg.Palette),
		app.WithLogger(logger),
	)
	holidaySvc := app.NewHolidayService(clk, app.WithDefaultLocale(cfg.DefaultLocale))

	router := transporthttp.NewRouter(transporthttp.RouterConfig{
		Calendar: calendarSvc,
		Holidays: holidaySvc,
		Auth:     auth.NewTokenTable(cfg.Tokens),
		Health:   store.health,
	})
	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSOrigins, router), logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Printf("api listening on :%s driver=%s", cfg.Port, cfg.Store.Driver)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("server shutdown error: %v", err)
	}
	logger.Printf("server stopped")
	return nil
}
