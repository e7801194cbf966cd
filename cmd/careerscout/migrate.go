package main

import (
	"github.com/spf13/cobra"

	"github.com/careerscout/careerscout/internal/observability"
	"github.com/careerscout/careerscout/internal/profile"
	"github.com/careerscout/careerscout/store"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := profile.Load()
			if err != nil {
				return err
			}
			logger := observability.NewLogger(p.IsDev())

			driver, err := newDriver(p)
			if err != nil {
				return err
			}
			st := store.New(driver, p)
			defer st.Close()

			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			logger.Info("migration complete", "driver", p.Driver)
			return nil
		},
	}
}
