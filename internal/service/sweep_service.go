package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/calendar"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/policy"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// SweepDependencies wires the collaborators SweepService needs.
type SweepDependencies struct {
	Entities   repository.TrackedEntityRepository
	Configs    repository.PolicyConfigRepository
	Tenants    repository.TenantDirectory
	Locks      TenantLocker
	Deadlines  *DeadlineService
	Breaches   *BreachService
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Workers    int
	Now        func() time.Time
}

// SweepService runs the periodic evaluation pass over all tenants. Each
// tenant is swept under a lease so concurrent sweeper replicas never
// double-process a tenant, and every evaluation commits before its events
// are dispatched.
type SweepService struct {
	deps SweepDependencies

	mu   sync.Mutex
	last *domain.SweepReport
}

// NewSweepService instantiates service.
func NewSweepService(deps SweepDependencies) *SweepService {
	if deps.Workers <= 0 {
		deps.Workers = 1
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &SweepService{deps: deps}
}

// LastReport returns the most recent sweep report, or nil before the
// first sweep finishes.
func (s *SweepService) LastReport() *domain.SweepReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// RunSweep evaluates every open tracked entity of the given tenant, or of
// all active tenants when tenantID is empty. Tenant failures are isolated:
// one tenant's bad configuration or store error never stops the others.
// In dry-run mode the report carries what would have fired and nothing is
// written or dispatched.
func (s *SweepService) RunSweep(ctx context.Context, tenantID string, dryRun bool) (domain.SweepReport, error) {
	started := s.deps.Now()
	report := domain.SweepReport{
		SweepID:   uuid.NewString(),
		DryRun:    dryRun,
		StartedAt: started,
	}

	tenants := []string{tenantID}
	if tenantID == "" {
		var err error
		tenants, err = s.deps.Tenants.ListActiveTenants(ctx)
		if err != nil {
			return report, err
		}
	}

	results := make([]domain.TenantSweepResult, len(tenants))
	sem := make(chan struct{}, s.deps.Workers)
	var wg sync.WaitGroup
	for i, tenant := range tenants {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, tenant string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.sweepTenant(ctx, tenant, dryRun)
		}(i, tenant)
	}
	wg.Wait()

	for _, result := range results {
		if result.TenantID == "" {
			continue
		}
		report.Tenants = append(report.Tenants, result)
	}
	sort.Slice(report.Tenants, func(a, b int) bool {
		return report.Tenants[a].TenantID < report.Tenants[b].TenantID
	})
	report.FinishedAt = s.deps.Now()

	entities := 0
	for _, t := range report.Tenants {
		entities += t.EntitiesEvaluated
	}
	s.deps.Metrics.RecordSweep(dryRun, entities, report.FinishedAt.Sub(report.StartedAt))
	s.deps.Logger.Info("sweep finished",
		zap.String("sweep_id", report.SweepID),
		zap.Bool("dry_run", dryRun),
		zap.Int("tenants", len(report.Tenants)),
		zap.Int("entities", entities),
		zap.Int("violations", report.TotalViolations()),
		zap.Int("errors", report.TotalErrors()))

	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()

	s.deps.Dispatcher.Publish(context.WithoutCancel(ctx), events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventSweepCompleted,
		Timestamp: report.FinishedAt,
		Payload: events.SweepCompletedPayload{
			SweepID:    report.SweepID,
			DryRun:     dryRun,
			Tenants:    len(report.Tenants),
			Violations: report.TotalViolations(),
			Errors:     report.TotalErrors(),
		},
	})
	return report, ctx.Err()
}

func (s *SweepService) sweepTenant(ctx context.Context, tenantID string, dryRun bool) domain.TenantSweepResult {
	result := domain.TenantSweepResult{TenantID: tenantID}
	logger := s.deps.Logger.With(zap.String("tenant_id", tenantID))

	release, err := s.deps.Locks.Acquire(ctx, tenantID)
	if err != nil {
		s.recordTenantError(&result, logger, "lock acquisition failed", err)
		return result
	}
	defer release()

	profile, holidays, policies, err := s.deps.Configs.LoadConfig(ctx, tenantID)
	if err != nil {
		s.recordTenantError(&result, logger, "config load failed", err)
		return result
	}
	resolver, err := calendar.NewResolver(profile, holidays)
	if err != nil {
		s.recordTenantError(&result, logger, "unusable operational hours", err)
		return result
	}

	entities, err := s.deps.Entities.ListOpenTracked(ctx, tenantID)
	if err != nil {
		s.recordTenantError(&result, logger, "entity load failed", err)
		return result
	}

	now := s.deps.Now()
	for _, listed := range entities {
		if ctx.Err() != nil {
			s.recordTenantError(&result, logger, "sweep cancelled", ctx.Err())
			return result
		}

		// The listing is a snapshot; status and timestamps may have moved
		// while earlier entities were evaluated. Re-read so an entity
		// resolved mid-sweep is excluded instead of breached on stale data.
		entity, err := s.deps.Entities.GetByID(ctx, tenantID, listed.ID)
		if err != nil {
			if apperrors.IsCode(err, apperrors.CodeNotFound) {
				continue
			}
			s.recordTenantError(&result, logger, "entity re-read failed", err)
			continue
		}
		if entity.Status.IsClosedClass() {
			continue
		}

		matched, ok := policy.Match(entity.Attributes(), policies)
		if !ok {
			result.Unmatched++
			logger.Debug("no policy matched", zap.String("entity_id", entity.ID))
			continue
		}
		if entity.Paused || (matched.Policy.PauseOnHold && entity.Status == domain.StatusHold) {
			result.PausedSkipped++
			continue
		}

		if s.deps.Deadlines.NeedsRecompute(entity, matched) {
			if err := s.deps.Deadlines.Compute(&entity, matched, resolver); err != nil {
				s.recordTenantError(&result, logger, "deadline computation failed", err)
				continue
			}
		}

		eval := s.deps.Breaches.Evaluate(&entity, *matched.Target, resolver, now)
		result.EntitiesEvaluated++
		result.Violations = append(result.Violations, eval.Violations...)

		if dryRun {
			continue
		}
		if err := s.deps.Entities.CommitEvaluation(ctx, entity, eval.Violations); err != nil {
			s.recordTenantError(&result, logger, "evaluation commit failed", err)
			continue
		}
		result.NotificationsEnqueued += s.dispatch(ctx, entity, eval, now)
		for _, v := range eval.Violations {
			s.deps.Metrics.RecordViolation(string(v.Kind))
		}
	}
	return result
}

// dispatch publishes events for everything the committed evaluation fired.
// It runs only after the commit succeeded, so a consumer never sees an
// event whose violation is not in the store. Handlers run asynchronously
// and may outlive the triggering request, so the publishing context is
// detached from cancellation.
func (s *SweepService) dispatch(ctx context.Context, entity domain.TrackedEntity, eval Evaluation, now time.Time) int {
	ctx = context.WithoutCancel(ctx)
	published := 0
	for _, v := range eval.Violations {
		eventType := events.EventViolationRecorded
		var payload any = events.ViolationRecordedPayload{
			Kind:          v.Kind,
			Track:         v.Track,
			EntityKind:    v.EntityKind,
			DetectedAt:    v.DetectedAt,
			Overdue:       v.Overdue,
			NotifyTargets: v.NotifyTargets,
		}
		if v.Level > domain.FiredLevelBreach {
			eventType = events.EventEscalationFired
			payload = events.EscalationFiredPayload{
				Kind:          v.Kind,
				Track:         v.Track,
				Level:         v.Level,
				EntityKind:    v.EntityKind,
				DetectedAt:    v.DetectedAt,
				Overdue:       v.Overdue,
				NotifyTargets: v.NotifyTargets,
			}
		}
		s.deps.Dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      eventType,
			TenantID:  v.TenantID,
			EntityID:  v.EntityID,
			Timestamp: now,
			Payload:   payload,
		})
		published++
	}
	for _, track := range eval.ReminderTracks {
		deadline := entity.ResponseDeadline
		if track == domain.TrackResolution {
			deadline = entity.ResolutionDeadline
		}
		if deadline == nil {
			continue
		}
		s.deps.Dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventReminderDue,
			TenantID:  entity.TenantID,
			EntityID:  entity.ID,
			Timestamp: now,
			Payload: events.ReminderDuePayload{
				Track:     track,
				Deadline:  *deadline,
				Remaining: deadline.Sub(now),
			},
		})
		published++
	}
	return published
}

func (s *SweepService) recordTenantError(result *domain.TenantSweepResult, logger *zap.Logger, message string, err error) {
	code := apperrors.CodeOf(err)
	result.Errors = append(result.Errors, message+": "+err.Error())
	s.deps.Metrics.RecordTenantError(code)
	if code == apperrors.CodeSweepBusy {
		logger.Info(message, zap.Error(err))
		return
	}
	logger.Warn(message, zap.Error(err))
}
