package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/careerscout/careerscout/store"
)

func (d *DB) UpsertConversation(ctx context.Context, conversation *store.Conversation) (*store.Conversation, error) {
	if _, err := d.db.ExecContext(ctx, `
		INSERT INTO conversation (uid, state, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (uid) DO UPDATE SET
			state = EXCLUDED.state,
			updated_ts = EXCLUDED.updated_ts`,
		conversation.UID, conversation.State, conversation.CreatedTs, conversation.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert conversation")
	}
	return conversation, nil
}

func (d *DB) GetConversation(ctx context.Context, uid string) (*store.Conversation, error) {
	conversation := &store.Conversation{UID: uid}
	err := d.db.QueryRowContext(ctx,
		`SELECT state, created_ts, updated_ts FROM conversation WHERE uid = $1`, uid,
	).Scan(&conversation.State, &conversation.CreatedTs, &conversation.UpdatedTs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get conversation")
	}
	return conversation, nil
}
