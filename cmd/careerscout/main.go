package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/careerscout/careerscout/internal/profile"
	"github.com/careerscout/careerscout/store"
	"github.com/careerscout/careerscout/store/db/postgres"
	"github.com/careerscout/careerscout/store/db/sqlite"
)

func main() {
	root := &cobra.Command{
		Use:   "careerscout",
		Short: "Career advisor and job scout service",
		Long: `careerscout is a conversational career advisor: it extracts skills,
matches them to roles, and scouts concrete job listings, backed by a
two-tier (exact + semantic) cache. Configuration comes from CAREERSCOUT_*
environment variables.`,
		SilenceUsage: true,
	}

	root.AddCommand(newChatCommand(), newMigrateCommand(), newSeedCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newDriver opens the store driver selected by the profile.
func newDriver(p *profile.Profile) (store.Driver, error) {
	if p.Driver == "postgres" {
		return postgres.NewDB(p)
	}
	return sqlite.NewDB(p)
}
