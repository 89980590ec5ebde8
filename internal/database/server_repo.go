package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avoronov/hearth/internal/models"
)

type serverRepo struct {
	pool *pgxpool.Pool
}

func NewServerRepository(pool *pgxpool.Pool) ServerRepository {
	return &serverRepo{pool: pool}
}

func (r *serverRepo) Create(ctx context.Context, server *models.Server) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO servers (id, name, icon_hash, owner_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		server.ID, server.Name, server.IconHash, server.OwnerID, server.CreatedAt,
	)
	return err
}

func (r *serverRepo) GetByID(ctx context.Context, id int64) (*models.Server, error) {
	s := &models.Server{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, icon_hash, owner_id, created_at
		 FROM servers WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.IconHash, &s.OwnerID, &s.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *serverRepo) Update(ctx context.Context, server *models.Server) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE servers SET name = $2, icon_hash = $3, owner_id = $4
		 WHERE id = $1`,
		server.ID, server.Name, server.IconHash, server.OwnerID,
	)
	return err
}

func (r *serverRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM servers WHERE id = $1`, id)
	return err
}

func (r *serverRepo) GetByUserID(ctx context.Context, userID int64) ([]models.Server, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, s.icon_hash, s.owner_id, s.created_at
		 FROM servers s
		 INNER JOIN members m ON m.server_id = s.id
		 WHERE m.user_id = $1
		 ORDER BY s.id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var servers []models.Server
	for rows.Next() {
		var s models.Server
		if err := rows.Scan(&s.ID, &s.Name, &s.IconHash, &s.OwnerID, &s.CreatedAt); err != nil {
			return nil, err
		}
		servers = append(servers, s)
	}
	return servers, rows.Err()
}
