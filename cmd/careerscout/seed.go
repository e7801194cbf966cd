package main

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/careerscout/careerscout/internal/observability"
	"github.com/careerscout/careerscout/internal/profile"
	"github.com/careerscout/careerscout/plugin/ai"
	"github.com/careerscout/careerscout/plugin/ai/agent/tools"
	"github.com/careerscout/careerscout/store"
)

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load sample roles and job listings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := profile.Load()
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), p)
		},
	}
}

var seedRoles = []*store.Role{
	{
		Name:        "Backend Engineer",
		Description: "Designs and builds server-side services and APIs.",
		Skills:      []string{"go", "python", "sql", "apis", "docker", "kubernetes"},
	},
	{
		Name:        "Data Scientist",
		Description: "Turns data into models and decisions.",
		Skills:      []string{"python", "statistics", "pandas", "machine learning", "sql"},
	},
	{
		Name:        "Frontend Engineer",
		Description: "Builds user-facing web applications.",
		Skills:      []string{"javascript", "typescript", "react", "css", "html"},
	},
	{
		Name:        "DevOps Engineer",
		Description: "Automates infrastructure, deployment, and operations.",
		Skills:      []string{"kubernetes", "docker", "terraform", "ci/cd", "linux", "aws"},
	},
	{
		Name:        "Product Manager",
		Description: "Owns product direction and ships with engineering.",
		Skills:      []string{"roadmapping", "user research", "analytics", "communication"},
	},
}

var seedListings = []*store.JobListing{
	{Title: "Senior Backend Engineer", Company: "Streamline", Location: "Berlin", ExperienceLevel: "senior", SalaryRange: "85k-110k EUR", Description: "Own our Go services and the data pipeline behind them."},
	{Title: "Backend Engineer", Company: "Cartwheel", Location: "Amsterdam", ExperienceLevel: "mid", SalaryRange: "60k-80k EUR", Description: "Build APIs for our logistics platform."},
	{Title: "Data Scientist", Company: "Measured", Location: "New York", ExperienceLevel: "senior", SalaryRange: "150k-190k USD", Description: "Forecasting and experimentation for retail clients."},
	{Title: "Junior Data Scientist", Company: "Measured", Location: "New York", ExperienceLevel: "junior", SalaryRange: "90k-110k USD", Description: "Support the forecasting team with analysis and model maintenance."},
	{Title: "Frontend Engineer", Company: "Brightkit", Location: "London", ExperienceLevel: "mid", SalaryRange: "55k-75k GBP", Description: "React and TypeScript work on our design tooling."},
	{Title: "DevOps Engineer", Company: "Streamline", Location: "Berlin", ExperienceLevel: "mid", SalaryRange: "70k-90k EUR", Description: "Kubernetes, Terraform, and everything between commit and production."},
	{Title: "Senior Data Engineer", Company: "Gridworks", Location: "Remote", ExperienceLevel: "senior", SalaryRange: "130k-160k USD", Description: "Batch and streaming pipelines on the cloud."},
	{Title: "Product Manager", Company: "Cartwheel", Location: "Amsterdam", ExperienceLevel: "senior", SalaryRange: "75k-95k EUR", Description: "Own the shipper-facing product line."},
}

func runSeed(ctx context.Context, p *profile.Profile) error {
	logger := observability.NewLogger(p.IsDev())

	driver, err := newDriver(p)
	if err != nil {
		return err
	}
	st := store.New(driver, p)
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	for _, role := range seedRoles {
		if err := st.UpsertRole(ctx, role); err != nil {
			return errors.Wrapf(err, "failed to seed role %q", role.Name)
		}
	}
	logger.Info("roles seeded", "count", len(seedRoles))

	for _, listing := range seedListings {
		if _, err := st.CreateJobListing(ctx, listing); err != nil {
			return errors.Wrapf(err, "failed to seed listing %q", listing.Title)
		}
	}
	logger.Info("listings seeded", "count", len(seedListings))

	if p.Driver == "postgres" {
		if err := embedListings(ctx, p, st, logger); err != nil {
			return err
		}
	} else {
		logger.Info("skipping listing embeddings, driver has no vector support")
	}
	return nil
}

// embedListings backfills embeddings for any listing without one.
func embedListings(ctx context.Context, p *profile.Profile, st *store.Store, logger *slog.Logger) error {
	if p.OpenAIAPIKey == "" {
		logger.Warn("no API key configured, listings are seeded without embeddings")
		return nil
	}
	provider := ai.NewProvider(&ai.Config{
		BaseURL:        p.OpenAIBaseURL,
		APIKey:         p.OpenAIAPIKey,
		ChatModel:      p.ChatModel,
		EmbeddingModel: p.EmbeddingModel,
	})

	pending, err := st.ListJobListings(ctx, &store.FindJobListing{MissingEmbedding: true})
	if err != nil {
		return err
	}
	for _, listing := range pending {
		text := tools.ListingEmbeddingText(listing.Title, listing.Location, listing.ExperienceLevel, listing.Description)
		vector, err := provider.Embed(ctx, text)
		if err != nil {
			return errors.Wrapf(err, "failed to embed listing %q", listing.Title)
		}
		if err := st.UpdateJobListingEmbedding(ctx, listing.ID, vector); err != nil {
			return errors.Wrapf(err, "failed to store embedding for listing %q", listing.Title)
		}
	}
	logger.Info("listing embeddings backfilled", "count", len(pending))
	return nil
}
