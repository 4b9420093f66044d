package cli

import (
	"fmt"

	"github.com/msomdec/fraudshield/internal/config"
	"github.com/msomdec/fraudshield/internal/logger"
	"github.com/msomdec/fraudshield/internal/repository/sqlite"
	"github.com/msomdec/fraudshield/internal/repository/sqlite/migrations"
	"github.com/spf13/cobra"
)

func newMigrateCmd(load func() (*config.Config, error)) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Database.Validate(); err != nil {
				return fmt.Errorf("database config: %w", err)
			}
			log := logger.New(logger.Options{
				Format: cfg.Logging.Format,
				Level:  cfg.Logging.Level,
				Output: cmd.ErrOrStderr(),
			}).Module("migrate")

			db, err := sqlite.New(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			pending, err := migrations.Pending(cmd.Context(), db.SqlDB)
			if err != nil {
				return fmt.Errorf("list pending migrations: %w", err)
			}
			for _, name := range pending {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			if len(pending) == 0 {
				log.Info("database is up to date")
				return nil
			}
			if dryRun {
				log.WithField("pending", len(pending)).Info("dry run, nothing applied")
				return nil
			}

			if err := db.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			log.WithField("applied", len(pending)).Info("database migrated")
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list pending migrations without applying them")
	return cmd
}
