package postgres

import (
	"context"
	"strings"

	"github.com/lib/pq"
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
		INSERT INTO role (name, description) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description`,
		role.Name, role.Description,
	); err != nil {
		return errors.Wrap(err, "failed to upsert role")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM role_skill WHERE role_name = $1`, role.Name); err != nil {
		return errors.Wrap(err, "failed to clear role skills")
	}
	for _, skill := range role.Skills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO role_skill (role_name, skill) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			role.Name, skill,
		); err != nil {
			return errors.Wrap(err, "failed to insert role skill")
		}
	}

	return tx.Commit()
}

// MatchRoleBySkills returns the role sharing the most skills with the input,
// along with the skills that overlapped. Ties break on role name for a
// deterministic answer.
func (d *DB) MatchRoleBySkills(ctx context.Context, skills []string) (*store.RoleMatch, error) {
	if len(skills) == 0 {
		return nil, nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT r.name, r.description, COUNT(*) AS match_count,
			ARRAY_AGG(rs.skill ORDER BY rs.skill) AS matched
		FROM role r
		JOIN role_skill rs ON rs.role_name = r.name
		WHERE rs.skill = ANY($1)
		GROUP BY r.name, r.description
		ORDER BY match_count DESC, r.name ASC
		LIMIT 1`,
		pq.Array(skills),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query role match")
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	match := &store.RoleMatch{}
	if err := rows.Scan(&match.RoleName, &match.Description, &match.MatchCount, pq.Array(&match.MatchedSkills)); err != nil {
		return nil, errors.Wrap(err, "failed to scan role match")
	}
	return match, nil
}
