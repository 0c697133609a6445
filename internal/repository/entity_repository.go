package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// TrackedEntityRepository persists tracked entities and the evaluation
// results the sweep produces for them.
type TrackedEntityRepository interface {
	ListOpenTracked(ctx context.Context, tenantID string) ([]domain.TrackedEntity, error)
	GetByID(ctx context.Context, tenantID, entityID string) (domain.TrackedEntity, error)
	// CommitEvaluation writes the entity's recomputed deadlines and fired
	// markers together with any new violations in a single transaction.
	// Violation inserts are keyed on (tenant_id, entity_id, kind) so
	// replaying a sweep after a crash never records a duplicate, while
	// tenants whose entity ids collide stay independent.
	CommitEvaluation(ctx context.Context, entity domain.TrackedEntity, violations []domain.SLAViolation) error
}

type trackedEntityRepository struct {
	pool *pgxpool.Pool
}

// NewTrackedEntityRepository instantiates repository.
func NewTrackedEntityRepository(pool *pgxpool.Pool) TrackedEntityRepository {
	return &trackedEntityRepository{pool: pool}
}

const entityColumns = `
    id, tenant_id, kind, priority, category, department, customer_tier, status,
    created_at, anchor_at, first_response_at, resolved_at,
    policy_id, target_priority, response_deadline, resolution_deadline,
    fired_set, sla_paused, updated_at`

func (r *trackedEntityRepository) ListOpenTracked(ctx context.Context, tenantID string) ([]domain.TrackedEntity, error) {
	query := `
        SELECT ` + entityColumns + `
        FROM tracked_entities
        WHERE tenant_id=$1 AND status IN ('OPEN', 'IN_PROGRESS', 'HOLD')
        ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, apperrors.NewTransientReadError(err)
	}
	defer rows.Close()

	var entities []domain.TrackedEntity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewTransientReadError(err)
	}
	return entities, nil
}

func (r *trackedEntityRepository) GetByID(ctx context.Context, tenantID, entityID string) (domain.TrackedEntity, error) {
	query := `
        SELECT ` + entityColumns + `
        FROM tracked_entities
        WHERE tenant_id=$1 AND id=$2`
	rows, err := r.pool.Query(ctx, query, tenantID, entityID)
	if err != nil {
		return domain.TrackedEntity{}, apperrors.NewTransientReadError(err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.TrackedEntity{}, apperrors.NewTransientReadError(err)
		}
		return domain.TrackedEntity{}, apperrors.ToDomainError(pgx.ErrNoRows)
	}
	return scanEntity(rows)
}

func (r *trackedEntityRepository) CommitEvaluation(ctx context.Context, entity domain.TrackedEntity, violations []domain.SLAViolation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewPersistenceError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const updateQuery = `
        UPDATE tracked_entities
        SET policy_id=$1, target_priority=$2,
            response_deadline=$3, resolution_deadline=$4,
            fired_set=$5, updated_at=NOW()
        WHERE tenant_id=$6 AND id=$7`
	if _, err := tx.Exec(ctx, updateQuery,
		entity.PolicyID, string(entity.TargetPriority),
		entity.ResponseDeadline, entity.ResolutionDeadline,
		entity.Fired.Keys(), entity.TenantID, entity.ID); err != nil {
		return apperrors.NewPersistenceError(err)
	}

	const insertQuery = `
        INSERT INTO sla_violations (
            id, tenant_id, entity_id, entity_kind, kind, track, level,
            detected_at, overdue_minutes, notify_targets, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
        ON CONFLICT (tenant_id, entity_id, kind) DO NOTHING`
	for _, v := range violations {
		if _, err := tx.Exec(ctx, insertQuery,
			v.ID, v.TenantID, v.EntityID, string(v.EntityKind), string(v.Kind),
			string(v.Track), v.Level, v.DetectedAt,
			int(v.Overdue/time.Minute), v.NotifyTargets); err != nil {
			return apperrors.NewPersistenceError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewPersistenceError(err)
	}
	return nil
}

func scanEntity(rows pgx.Rows) (domain.TrackedEntity, error) {
	var e domain.TrackedEntity
	var kind, priority, tier, status, targetPriority string
	var firedKeys []string
	if err := rows.Scan(
		&e.ID, &e.TenantID, &kind, &priority, &e.Category, &e.Department, &tier, &status,
		&e.CreatedAt, &e.AnchorAt, &e.FirstResponseAt, &e.ResolvedAt,
		&e.PolicyID, &targetPriority, &e.ResponseDeadline, &e.ResolutionDeadline,
		&firedKeys, &e.Paused, &e.UpdatedAt,
	); err != nil {
		return domain.TrackedEntity{}, apperrors.NewTransientReadError(err)
	}
	e.Kind = domain.EntityKind(kind)
	e.Priority = domain.Priority(priority)
	e.CustomerTier = domain.CustomerTier(tier)
	e.Status = domain.EntityStatus(status)
	e.TargetPriority = domain.Priority(targetPriority)
	fired, err := domain.ParseFiredSet(firedKeys)
	if err != nil {
		return domain.TrackedEntity{}, apperrors.NewTransientReadError(err)
	}
	e.Fired = fired
	return e, nil
}
