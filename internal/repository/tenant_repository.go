package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// TenantDirectory lists tenants eligible for sweeping.
type TenantDirectory interface {
	ListActiveTenants(ctx context.Context) ([]string, error)
}

type tenantDirectory struct {
	pool *pgxpool.Pool
}

// NewTenantDirectory instantiates the directory.
func NewTenantDirectory(pool *pgxpool.Pool) TenantDirectory {
	return &tenantDirectory{pool: pool}
}

func (r *tenantDirectory) ListActiveTenants(ctx context.Context) ([]string, error) {
	const query = `SELECT id FROM tenants WHERE is_active = TRUE ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewTransientReadError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewTransientReadError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewTransientReadError(err)
	}
	return ids, nil
}
