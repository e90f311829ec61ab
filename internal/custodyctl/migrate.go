package custodyctl

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := o.db(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := newRepoManager().RunMigrations(ctx, db); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			fmt.Fprintln(o.out, "migrations applied")
			return nil
		},
	}
}
