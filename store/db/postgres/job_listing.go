package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/careerscout/careerscout/store"
)

func (d *DB) CreateJobListing(ctx context.Context, create *store.JobListing) (*store.JobListing, error) {
	var embedding any
	if len(create.Embedding) > 0 {
		embedding = pgvector.NewVector(create.Embedding)
	}
	if err := d.db.QueryRowContext(ctx, `
		INSERT INTO job_listing (title, company, location, experience_level, salary_range, description, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		create.Title, create.Company, create.Location, create.ExperienceLevel,
		create.SalaryRange, create.Description, embedding,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to insert job listing")
	}
	return create, nil
}

func (d *DB) UpdateJobListingEmbedding(ctx context.Context, id int32, embedding []float32) error {
	if _, err := d.db.ExecContext(ctx, `UPDATE job_listing SET embedding = $1 WHERE id = $2`,
		pgvector.NewVector(embedding), id,
	); err != nil {
		return errors.Wrap(err, "failed to update job listing embedding")
	}
	return nil
}

func (d *DB) ListJobListings(ctx context.Context, find *store.FindJobListing) ([]*store.JobListing, error) {
	where, args := []string{"TRUE"}, []any{}
	if find.ID != nil {
		where = append(where, "id = $"+itoa(len(args)+1))
		args = append(args, *find.ID)
	}
	if find.MissingEmbedding {
		where = append(where, "embedding IS NULL")
	}

	query := `SELECT id, title, company, location, experience_level, salary_range, description
		FROM job_listing WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`
	if find.Limit > 0 {
		query += " LIMIT $" + itoa(len(args)+1)
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list job listings")
	}
	defer rows.Close()

	var list []*store.JobListing
	for rows.Next() {
		listing := &store.JobListing{}
		if err := rows.Scan(&listing.ID, &listing.Title, &listing.Company, &listing.Location,
			&listing.ExperienceLevel, &listing.SalaryRange, &listing.Description); err != nil {
			return nil, errors.Wrap(err, "failed to scan job listing")
		}
		list = append(list, listing)
	}
	return list, rows.Err()
}

func (d *DB) DeleteJobListing(ctx context.Context, id int32) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM job_listing WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "failed to delete job listing")
	}
	return nil
}

// SearchJobListingsByVector returns the candidate set nearest to the query
// vector by cosine distance, closest first. Rows without an embedding are
// excluded.
func (d *DB) SearchJobListingsByVector(ctx context.Context, search *store.VectorJobSearch) ([]*store.JobListingResult, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT title, company, location, experience_level, salary_range,
			embedding <=> $1 AS distance
		FROM job_listing
		WHERE embedding IS NOT NULL
		ORDER BY distance ASC
		LIMIT $2`,
		pgvector.NewVector(search.Vector), search.CandidateLimit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run vector search")
	}
	defer rows.Close()

	var results []*store.JobListingResult
	for rows.Next() {
		result := &store.JobListingResult{}
		var distance float64
		if err := rows.Scan(&result.Title, &result.Company, &result.Location,
			&result.ExperienceLevel, &result.SalaryRange, &distance); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search result")
		}
		// Report similarity rather than raw distance.
		result.Score = 1 - distance
		results = append(results, result)
	}
	return results, rows.Err()
}

// SearchJobListingsByText is the structured fallback when vector search
// yields nothing useful. An empty Title skips the title predicate entirely.
func (d *DB) SearchJobListingsByText(ctx context.Context, search *store.TextJobSearch) ([]*store.JobListingResult, error) {
	where, args := []string{"TRUE"}, []any{}
	if search.Title != "" {
		where = append(where, "title ILIKE $"+itoa(len(args)+1))
		args = append(args, "%"+search.Title+"%")
	}
	if search.Location != "" {
		where = append(where, "location ILIKE $"+itoa(len(args)+1))
		args = append(args, "%"+search.Location+"%")
	}
	if search.Experience != "" {
		where = append(where, "experience_level ILIKE $"+itoa(len(args)+1))
		args = append(args, "%"+search.Experience+"%")
	}
	args = append(args, search.Limit)

	rows, err := d.db.QueryContext(ctx, `
		SELECT title, company, location, experience_level, salary_range
		FROM job_listing WHERE `+strings.Join(where, " AND ")+`
		ORDER BY id LIMIT $`+itoa(len(args)),
		args...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run text search")
	}
	defer rows.Close()

	var results []*store.JobListingResult
	for rows.Next() {
		result := &store.JobListingResult{}
		if err := rows.Scan(&result.Title, &result.Company, &result.Location,
			&result.ExperienceLevel, &result.SalaryRange); err != nil {
			return nil, errors.Wrap(err, "failed to scan text search result")
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func itoa(n int) string { return strconv.Itoa(n) }
