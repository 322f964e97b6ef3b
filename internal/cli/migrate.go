package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sikong32/mytodo/internal/config"
	"github.com/sikong32/mytodo/migrations"
)

type migrateResult struct {
	Applied []string `json:"applied,omitempty"`
	Pending []string `json:"pending,omitempty"`
}

// NewMigrateCommand creates the migrate command. It only applies to the
// postgres driver; the sqlite store carries its schema itself.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending Postgres migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
			cfg, err := loadConfig(rootOpts, os.LookupEnv, logger)
			if err != nil {
				return err
			}
			if cfg.Store.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate requires the postgres driver, configured %q", cfg.Store.Driver)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			pool, err := connectPostgres(ctx, cfg.Store.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			var res migrateResult
			if status {
				res.Pending, err = migrations.Pending(ctx, pool)
			} else {
				res.Applied, err = migrations.Apply(ctx, pool)
			}
			if err != nil {
				return err
			}
			return writeMigrateResult(cmd, rootOpts.Format, status, res)
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "list pending migrations without applying them")
	return cmd
}

func writeMigrateResult(cmd *cobra.Command, format string, status bool, res migrateResult) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	names, verb := res.Applied, "applied"
	if status {
		names, verb = res.Pending, "pending"
	}
	if len(names) == 0 {
		_, err := fmt.Fprintf(out, "no migrations %s\n", verb)
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(out, "%s %s\n", verb, name); err != nil {
			return err
		}
	}
	return nil
}
