package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avoronov/hearth/internal/models"
	"github.com/avoronov/hearth/internal/permissions"
)

// roleRepo reads the legacy role schema, which stores grants as a JSON array
// of free-text tokens. Tokens are decoded into a validated capability mask
// here, at the storage boundary, so unrecognized tokens never reach the
// resolver.
type roleRepo struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepo{pool: pool}
}

func encodeRoleGrants(mask int64) ([]byte, error) {
	tokens := permissions.EncodeGrants(permissions.Capability(mask))
	if tokens == nil {
		tokens = []string{}
	}
	return json.Marshal(tokens)
}

func decodeRoleGrants(raw []byte) (int64, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	var tokens []string
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return 0, fmt.Errorf("decoding role grants: %w", err)
	}
	return int64(permissions.DecodeGrants(tokens)), nil
}

func (r *roleRepo) Create(ctx context.Context, role *models.Role) error {
	grants, err := encodeRoleGrants(role.Permissions)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO roles (id, server_id, name, color, grants, position)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		role.ID, role.ServerID, role.Name, role.Color, grants, role.Position,
	)
	return err
}

func (r *roleRepo) scanRole(row pgx.Row) (*models.Role, error) {
	role := &models.Role{}
	var grants []byte
	err := row.Scan(&role.ID, &role.ServerID, &role.Name, &role.Color, &grants, &role.Position)
	if err != nil {
		return nil, err
	}
	role.Permissions, err = decodeRoleGrants(grants)
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (r *roleRepo) GetByID(ctx context.Context, id int64) (*models.Role, error) {
	role, err := r.scanRole(r.pool.QueryRow(ctx,
		`SELECT id, server_id, name, color, grants, position
		 FROM roles WHERE id = $1`, id,
	))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return role, err
}

func (r *roleRepo) queryRoles(ctx context.Context, query string, args ...any) ([]models.Role, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		var grants []byte
		if err := rows.Scan(&role.ID, &role.ServerID, &role.Name, &role.Color, &grants, &role.Position); err != nil {
			return nil, err
		}
		role.Permissions, err = decodeRoleGrants(grants)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *roleRepo) GetByServerID(ctx context.Context, serverID int64) ([]models.Role, error) {
	return r.queryRoles(ctx,
		`SELECT id, server_id, name, color, grants, position
		 FROM roles WHERE server_id = $1
		 ORDER BY position`, serverID,
	)
}

func (r *roleRepo) GetCatalog(ctx context.Context, serverID int64) (map[int64]models.Role, error) {
	roles, err := r.GetByServerID(ctx, serverID)
	if err != nil {
		return nil, err
	}
	catalog := make(map[int64]models.Role, len(roles))
	for _, role := range roles {
		catalog[role.ID] = role
	}
	return catalog, nil
}

func (r *roleRepo) GetByMember(ctx context.Context, serverID, userID int64) ([]models.Role, error) {
	return r.queryRoles(ctx,
		`SELECT r.id, r.server_id, r.name, r.color, r.grants, r.position
		 FROM roles r
		 INNER JOIN member_roles mr ON mr.role_id = r.id
		 WHERE mr.server_id = $1 AND mr.user_id = $2
		 ORDER BY r.position`, serverID, userID,
	)
}

func (r *roleRepo) Update(ctx context.Context, role *models.Role) error {
	grants, err := encodeRoleGrants(role.Permissions)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE roles SET name = $2, color = $3, grants = $4, position = $5
		 WHERE id = $1`,
		role.ID, role.Name, role.Color, grants, role.Position,
	)
	return err
}

func (r *roleRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	return err
}
