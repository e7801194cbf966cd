package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/careerscout/careerscout/store"
)

func (d *DB) UpsertRole(ctx context.Context, role *store.Role) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO role (name, description) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET description = excluded.description`,
		role.Name, role.Description,
	); err != nil {
		return errors.Wrap(err, "failed to upsert role")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM role_skill WHERE role_name = ?`, role.Name); err != nil {
		return errors.Wrap(err, "failed to clear role skills")
	}
	for _, skill := range role.Skills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO role_skill (role_name, skill) VALUES (?, ?)`,
			role.Name, skill,
		); err != nil {
			return errors.Wrap(err, "failed to insert role skill")
		}
	}

	return tx.Commit()
}

func (d *DB) MatchRoleBySkills(ctx context.Context, skills []string) (*store.RoleMatch, error) {
	if len(skills) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(skills)), ",")
	args := make([]any, 0, len(skills))
	for _, skill := range skills {
		args = append(args, skill)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT r.name, r.description, COUNT(*) AS match_count,
			GROUP_CONCAT(rs.skill, ',') AS matched
		FROM role r
		JOIN role_skill rs ON rs.role_name = r.name
		WHERE rs.skill IN (`+placeholders+`)
		GROUP BY r.name, r.description
		ORDER BY match_count DESC, r.name ASC
		LIMIT 1`,
		args...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query role match")
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	match := &store.RoleMatch{}
	var matched string
	if err := rows.Scan(&match.RoleName, &match.Description, &match.MatchCount, &matched); err != nil {
		return nil, errors.Wrap(err, "failed to scan role match")
	}
	if matched != "" {
		match.MatchedSkills = strings.Split(matched, ",")
	}
	return match, nil
}
