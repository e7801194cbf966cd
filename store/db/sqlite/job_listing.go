package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/careerscout/careerscout/store"
)

func (d *DB) CreateJobListing(ctx context.Context, create *store.JobListing) (*store.JobListing, error) {
	result, err := d.db.ExecContext(ctx, `
		INSERT INTO job_listing (title, company, location, experience_level, salary_range, description)
		VALUES (?, ?, ?, ?, ?, ?)`,
		create.Title, create.Company, create.Location, create.ExperienceLevel,
		create.SalaryRange, create.Description,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert job listing")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read insert id")
	}
	create.ID = int32(id)
	return create, nil
}

func (d *DB) ListJobListings(ctx context.Context, find *store.FindJobListing) ([]*store.JobListing, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where = append(where, "id = ?")
		args = append(args, *find.ID)
	}
	// Embeddings are never stored here; a missing-embedding filter matches
	// every row.

	query := `SELECT id, title, company, location, experience_level, salary_range, description
		FROM job_listing WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`
	if find.Limit > 0 {
		query += " LIMIT ?"
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
	if _, err := d.db.ExecContext(ctx, `DELETE FROM job_listing WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "failed to delete job listing")
	}
	return nil
}

func (d *DB) SearchJobListingsByText(ctx context.Context, search *store.TextJobSearch) ([]*store.JobListingResult, error) {
	where, args := []string{"1 = 1"}, []any{}
	if search.Title != "" {
		where = append(where, "title LIKE ? COLLATE NOCASE")
		args = append(args, "%"+search.Title+"%")
	}
	if search.Location != "" {
		where = append(where, "location LIKE ? COLLATE NOCASE")
		args = append(args, "%"+search.Location+"%")
	}
	if search.Experience != "" {
		where = append(where, "experience_level LIKE ? COLLATE NOCASE")
		args = append(args, "%"+search.Experience+"%")
	}
	args = append(args, search.Limit)

	rows, err := d.db.QueryContext(ctx, `
		SELECT title, company, location, experience_level, salary_range
		FROM job_listing WHERE `+strings.Join(where, " AND ")+`
		ORDER BY id LIMIT ?`,
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
