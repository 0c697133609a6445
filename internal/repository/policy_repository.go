package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// PolicyConfigRepository loads a tenant's SLA configuration as a read-only
// snapshot for one sweep pass.
type PolicyConfigRepository interface {
	LoadConfig(ctx context.Context, tenantID string) (domain.OperationalHoursProfile, domain.HolidaySet, []domain.SLAPolicy, error)
}

type policyConfigRepository struct {
	pool *pgxpool.Pool
}

// NewPolicyConfigRepository instantiates repository.
func NewPolicyConfigRepository(pool *pgxpool.Pool) PolicyConfigRepository {
	return &policyConfigRepository{pool: pool}
}

func (r *policyConfigRepository) LoadConfig(ctx context.Context, tenantID string) (domain.OperationalHoursProfile, domain.HolidaySet, []domain.SLAPolicy, error) {
	profile, err := r.loadProfile(ctx, tenantID)
	if err != nil {
		return domain.OperationalHoursProfile{}, domain.HolidaySet{}, nil, err
	}
	holidays, err := r.loadHolidays(ctx, tenantID)
	if err != nil {
		return domain.OperationalHoursProfile{}, domain.HolidaySet{}, nil, err
	}
	policies, err := r.loadPolicies(ctx, tenantID)
	if err != nil {
		return domain.OperationalHoursProfile{}, domain.HolidaySet{}, nil, err
	}
	return profile, holidays, policies, nil
}

func (r *policyConfigRepository) loadProfile(ctx context.Context, tenantID string) (domain.OperationalHoursProfile, error) {
	const profileQuery = `SELECT mode, timezone FROM operational_hours_profiles WHERE tenant_id=$1`

	profile := domain.OperationalHoursProfile{
		// A tenant without an explicit profile counts calendar time.
		Mode:     domain.HoursModeCalendar,
		Timezone: "UTC",
		Windows:  map[time.Weekday][]domain.DayWindow{},
	}
	rows, err := r.pool.Query(ctx, profileQuery, tenantID)
	if err != nil {
		return domain.OperationalHoursProfile{}, apperrors.NewTransientReadError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var mode, tz string
		if err := rows.Scan(&mode, &tz); err != nil {
			return domain.OperationalHoursProfile{}, apperrors.NewTransientReadError(err)
		}
		profile.Mode = domain.HoursMode(mode)
		profile.Timezone = tz
	}
	if err := rows.Err(); err != nil {
		return domain.OperationalHoursProfile{}, apperrors.NewTransientReadError(err)
	}

	const windowQuery = `
        SELECT weekday, start_minute, end_minute
        FROM operational_hours_windows
        WHERE tenant_id=$1
        ORDER BY weekday, start_minute`
	windowRows, err := r.pool.Query(ctx, windowQuery, tenantID)
	if err != nil {
		return domain.OperationalHoursProfile{}, apperrors.NewTransientReadError(err)
	}
	defer windowRows.Close()
	for windowRows.Next() {
		var weekday, start, end int
		if err := windowRows.Scan(&weekday, &start, &end); err != nil {
			return domain.OperationalHoursProfile{}, apperrors.NewTransientReadError(err)
		}
		day := time.Weekday(weekday)
		profile.Windows[day] = append(profile.Windows[day], domain.DayWindow{StartMinute: start, EndMinute: end})
	}
	if err := windowRows.Err(); err != nil {
		return domain.OperationalHoursProfile{}, apperrors.NewTransientReadError(err)
	}
	return profile, nil
}

func (r *policyConfigRepository) loadHolidays(ctx context.Context, tenantID string) (domain.HolidaySet, error) {
	const query = `SELECT name, holiday_date, recurring FROM holidays WHERE tenant_id=$1 ORDER BY holiday_date`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return domain.HolidaySet{}, apperrors.NewTransientReadError(err)
	}
	defer rows.Close()

	var holidays []domain.Holiday
	for rows.Next() {
		var h domain.Holiday
		if err := rows.Scan(&h.Name, &h.Date, &h.Recurring); err != nil {
			return domain.HolidaySet{}, apperrors.NewTransientReadError(err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return domain.HolidaySet{}, apperrors.NewTransientReadError(err)
	}
	return domain.NewHolidaySet(holidays), nil
}

func (r *policyConfigRepository) loadPolicies(ctx context.Context, tenantID string) ([]domain.SLAPolicy, error) {
	const policyQuery = `
        SELECT id, name, priorities, categories, departments, customer_tiers,
               anchor, pause_on_hold, is_active, created_at
        FROM sla_policies WHERE tenant_id=$1
        ORDER BY created_at`
	rows, err := r.pool.Query(ctx, policyQuery, tenantID)
	if err != nil {
		return nil, apperrors.NewTransientReadError(err)
	}
	defer rows.Close()

	var policies []domain.SLAPolicy
	index := map[string]int{}
	for rows.Next() {
		var p domain.SLAPolicy
		var priorities, categories, departments, tiers []string
		var anchor string
		if err := rows.Scan(&p.ID, &p.Name, &priorities, &categories, &departments, &tiers,
			&anchor, &p.PauseOnHold, &p.Active, &p.CreatedAt); err != nil {
			return nil, apperrors.NewTransientReadError(err)
		}
		p.TenantID = tenantID
		p.Anchor = domain.AnchorMode(anchor)
		p.Conditions = domain.PolicyConditions{
			Priorities:    toPriorities(priorities),
			Categories:    categories,
			Departments:   departments,
			CustomerTiers: toTiers(tiers),
		}
		index[p.ID] = len(policies)
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewTransientReadError(err)
	}
	if len(policies) == 0 {
		return policies, nil
	}

	const targetQuery = `
        SELECT t.id, t.policy_id, t.priority, t.response_minutes, t.resolution_minutes
        FROM sla_targets t
        JOIN sla_policies p ON p.id = t.policy_id
        WHERE p.tenant_id=$1
        ORDER BY t.policy_id, t.priority`
	targetRows, err := r.pool.Query(ctx, targetQuery, tenantID)
	if err != nil {
		return nil, apperrors.NewTransientReadError(err)
	}
	defer targetRows.Close()

	targetOwner := map[string]struct {
		policyIdx int
		targetIdx int
	}{}
	for targetRows.Next() {
		var targetID, policyID, priority string
		var responseMin, resolutionMin int
		if err := targetRows.Scan(&targetID, &policyID, &priority, &responseMin, &resolutionMin); err != nil {
			return nil, apperrors.NewTransientReadError(err)
		}
		policyIdx, ok := index[policyID]
		if !ok {
			continue
		}
		policies[policyIdx].Targets = append(policies[policyIdx].Targets, domain.SLATarget{
			Priority:         domain.Priority(priority),
			ResponseBudget:   time.Duration(responseMin) * time.Minute,
			ResolutionBudget: time.Duration(resolutionMin) * time.Minute,
		})
		targetOwner[targetID] = struct {
			policyIdx int
			targetIdx int
		}{policyIdx, len(policies[policyIdx].Targets) - 1}
	}
	if err := targetRows.Err(); err != nil {
		return nil, apperrors.NewTransientReadError(err)
	}

	const levelQuery = `
        SELECT l.target_id, l.track, l.level, l.after_minutes, l.notify_targets
        FROM sla_escalation_levels l
        JOIN sla_targets t ON t.id = l.target_id
        JOIN sla_policies p ON p.id = t.policy_id
        WHERE p.tenant_id=$1
        ORDER BY l.target_id, l.track, l.level`
	levelRows, err := r.pool.Query(ctx, levelQuery, tenantID)
	if err != nil {
		return nil, apperrors.NewTransientReadError(err)
	}
	defer levelRows.Close()
	for levelRows.Next() {
		var targetID, track string
		var level, afterMin int
		var notify []string
		if err := levelRows.Scan(&targetID, &track, &level, &afterMin, &notify); err != nil {
			return nil, apperrors.NewTransientReadError(err)
		}
		owner, ok := targetOwner[targetID]
		if !ok {
			continue
		}
		target := &policies[owner.policyIdx].Targets[owner.targetIdx]
		target.Escalations = append(target.Escalations, domain.EscalationLevel{
			Level:         level,
			Track:         domain.Track(track),
			After:         time.Duration(afterMin) * time.Minute,
			NotifyTargets: notify,
		})
	}
	if err := levelRows.Err(); err != nil {
		return nil, apperrors.NewTransientReadError(err)
	}
	return policies, nil
}

func toPriorities(values []string) []domain.Priority {
	if len(values) == 0 {
		return nil
	}
	out := make([]domain.Priority, len(values))
	for i, v := range values {
		out[i] = domain.Priority(v)
	}
	return out
}

func toTiers(values []string) []domain.CustomerTier {
	if len(values) == 0 {
		return nil
	}
	out := make([]domain.CustomerTier, len(values))
	for i, v := range values {
		out[i] = domain.CustomerTier(v)
	}
	return out
}
