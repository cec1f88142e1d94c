package cli

import (
	"github.com/spf13/cobra"

	"github.com/mmynk/settleup/internal/storage"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(false); err != nil {
				return err
			}
			dsn, err := migrationDSN(a.cfg)
			if err != nil {
				return err
			}

			a.logger.Info("Running migrations", "driver", a.cfg.DBDriver)
			if err := storage.Migrate(a.cfg.DBDriver, dsn); err != nil {
				return err
			}
			a.logger.Info("Migrations complete")
			return nil
		},
	}
}
