package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avoronov/hearth/internal/models"
	"github.com/avoronov/hearth/internal/permissions"
)

// overwriteRepo persists channel overwrites in the legacy token form: one
// JSON array of "allow:<cap>"/"deny:<cap>" strings per row. The tri-state
// masks are built here so resolution code never sees the token encoding.
// The unique key on (channel_id, target_kind, target_id) guarantees a single
// row per principal; the upsert makes duplicate writes last-write-wins.
type overwriteRepo struct {
	pool *pgxpool.Pool
}

func NewOverwriteRepository(pool *pgxpool.Pool) OverwriteRepository {
	return &overwriteRepo{pool: pool}
}

func (r *overwriteRepo) Set(ctx context.Context, overwrite *models.Overwrite) error {
	tokens := permissions.EncodeOverwriteTokens(
		permissions.Capability(overwrite.Allow),
		permissions.Capability(overwrite.Deny),
	)
	if tokens == nil {
		tokens = []string{}
	}
	perms, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("encoding overwrite tokens: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO channel_overwrites (channel_id, target_kind, target_id, perms)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (channel_id, target_kind, target_id)
		 DO UPDATE SET perms = EXCLUDED.perms`,
		overwrite.ChannelID, string(overwrite.Target), overwrite.TargetID, perms,
	)
	return err
}

func (r *overwriteRepo) GetByChannel(ctx context.Context, channelID int64) ([]models.Overwrite, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT channel_id, target_kind, target_id, perms
		 FROM channel_overwrites WHERE channel_id = $1`, channelID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overwrites []models.Overwrite
	for rows.Next() {
		var o models.Overwrite
		var kind string
		var perms []byte
		if err := rows.Scan(&o.ChannelID, &kind, &o.TargetID, &perms); err != nil {
			return nil, err
		}
		o.Target = models.OverwriteTarget(kind)

		var tokens []string
		if len(perms) > 0 {
			if err := json.Unmarshal(perms, &tokens); err != nil {
				return nil, fmt.Errorf("decoding overwrite tokens: %w", err)
			}
		}
		allow, deny := permissions.DecodeOverwriteTokens(tokens)
		o.Allow, o.Deny = int64(allow), int64(deny)

		overwrites = append(overwrites, o)
	}
	return overwrites, rows.Err()
}

func (r *overwriteRepo) Delete(ctx context.Context, channelID int64, target models.OverwriteTarget, targetID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM channel_overwrites
		 WHERE channel_id = $1 AND target_kind = $2 AND target_id = $3`,
		channelID, string(target), targetID,
	)
	return err
}

func (r *overwriteRepo) DeleteByChannel(ctx context.Context, channelID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM channel_overwrites WHERE channel_id = $1`, channelID,
	)
	return err
}
