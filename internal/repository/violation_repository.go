package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// ViolationRepository reads recorded SLA violations for the ops API.
type ViolationRepository interface {
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]domain.SLAViolation, error)
}

type violationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository instantiates repository.
func NewViolationRepository(pool *pgxpool.Pool) ViolationRepository {
	return &violationRepository{pool: pool}
}

func (r *violationRepository) ListByTenant(ctx context.Context, tenantID string, limit int) ([]domain.SLAViolation, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const query = `
        SELECT id, tenant_id, entity_id, entity_kind, kind, track, level,
               detected_at, overdue_minutes, notify_targets, created_at
        FROM sla_violations
        WHERE tenant_id=$1
        ORDER BY detected_at DESC
        LIMIT $2`
	rows, err := r.pool.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, apperrors.NewTransientReadError(err)
	}
	defer rows.Close()

	var violations []domain.SLAViolation
	for rows.Next() {
		var v domain.SLAViolation
		var entityKind, kind, track string
		var overdueMinutes int
		if err := rows.Scan(&v.ID, &v.TenantID, &v.EntityID, &entityKind, &kind, &track,
			&v.Level, &v.DetectedAt, &overdueMinutes, &v.NotifyTargets, &v.CreatedAt); err != nil {
			return nil, apperrors.NewTransientReadError(err)
		}
		v.EntityKind = domain.EntityKind(entityKind)
		v.Kind = domain.ViolationKind(kind)
		v.Track = domain.Track(track)
		v.Overdue = time.Duration(overdueMinutes) * time.Minute
		violations = append(violations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewTransientReadError(err)
	}
	return violations, nil
}
