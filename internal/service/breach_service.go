package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/sla-engine/internal/calendar"
	"github.com/spec-kit/sla-engine/internal/domain"
)

// Evaluation is the outcome of checking one entity's tracks at an instant.
type Evaluation struct {
	ResponseState   domain.TrackState
	ResolutionState domain.TrackState
	Violations      []domain.SLAViolation
	ReminderTracks  []domain.Track
}

// BreachService classifies each SLA track of an entity and produces the
// violations that became due since the last evaluation.
type BreachService struct {
	// AtRiskFraction is the remaining counted-time share of the budget
	// below which a track is flagged at risk.
	AtRiskFraction float64
}

// NewBreachService instantiates service.
func NewBreachService(atRiskFraction float64) *BreachService {
	return &BreachService{AtRiskFraction: atRiskFraction}
}

// Evaluate checks both tracks of the entity at "now". Fired markers on
// the entity are the single source of truth for what has already been
// recorded: every violation returned here is also marked on the entity,
// so re-evaluating the same instant yields no new violations.
func (s *BreachService) Evaluate(entity *domain.TrackedEntity, target domain.SLATarget, resolver calendar.Resolver, now time.Time) Evaluation {
	eval := Evaluation{}
	eval.ResponseState = s.evaluateTrack(entity, domain.TrackResponse, target, resolver, now, &eval)
	eval.ResolutionState = s.evaluateTrack(entity, domain.TrackResolution, target, resolver, now, &eval)
	return eval
}

func (s *BreachService) evaluateTrack(entity *domain.TrackedEntity, track domain.Track, target domain.SLATarget, resolver calendar.Resolver, now time.Time, eval *Evaluation) domain.TrackState {
	if satisfied(entity, track) {
		return domain.TrackSatisfied
	}
	deadline := deadlineFor(entity, track)
	if deadline == nil {
		return domain.TrackPending
	}

	if now.After(*deadline) {
		overdue := resolver.CountedBetween(*deadline, now)
		s.fireBreach(entity, track, *deadline, overdue, now, eval)
		s.fireEscalations(entity, track, target, overdue, now, eval)
		return domain.TrackBreached
	}

	budget := target.BudgetFor(track)
	remaining := resolver.CountedBetween(now, *deadline)
	if budget > 0 && float64(remaining) <= s.AtRiskFraction*float64(budget) {
		if !entity.Fired.Has(track, domain.FiredLevelReminder) {
			entity.Fired.Mark(track, domain.FiredLevelReminder)
			eval.ReminderTracks = append(eval.ReminderTracks, track)
		}
		return domain.TrackAtRisk
	}
	return domain.TrackOnTrack
}

func (s *BreachService) fireBreach(entity *domain.TrackedEntity, track domain.Track, deadline time.Time, overdue time.Duration, now time.Time, eval *Evaluation) {
	if entity.Fired.Has(track, domain.FiredLevelBreach) {
		return
	}
	entity.Fired.Mark(track, domain.FiredLevelBreach)
	eval.Violations = append(eval.Violations, domain.SLAViolation{
		ID:         uuid.NewString(),
		TenantID:   entity.TenantID,
		EntityID:   entity.ID,
		EntityKind: entity.Kind,
		Kind:       domain.BreachViolationKind(track),
		Track:      track,
		Level:      domain.FiredLevelBreach,
		DetectedAt: now,
		Overdue:    overdue,
	})
}

// fireEscalations fires every crossed, not-yet-fired level in ascending
// order. A sweep that was down for hours catches up in one pass: each
// level whose threshold the overdue time has passed fires exactly once.
func (s *BreachService) fireEscalations(entity *domain.TrackedEntity, track domain.Track, target domain.SLATarget, overdue time.Duration, now time.Time, eval *Evaluation) {
	for _, level := range target.EscalationsFor(track) {
		if overdue < level.After {
			break
		}
		if entity.Fired.Has(track, level.Level) {
			continue
		}
		entity.Fired.Mark(track, level.Level)
		eval.Violations = append(eval.Violations, domain.SLAViolation{
			ID:            uuid.NewString(),
			TenantID:      entity.TenantID,
			EntityID:      entity.ID,
			EntityKind:    entity.Kind,
			Kind:          domain.EscalationViolationKind(track, level.Level),
			Track:         track,
			Level:         level.Level,
			DetectedAt:    now,
			Overdue:       overdue,
			NotifyTargets: level.NotifyTargets,
		})
	}
}

func satisfied(entity *domain.TrackedEntity, track domain.Track) bool {
	switch track {
	case domain.TrackResponse:
		return entity.FirstResponseAt != nil
	default:
		return entity.Status.IsClosedClass()
	}
}

func deadlineFor(entity *domain.TrackedEntity, track domain.Track) *time.Time {
	if track == domain.TrackResponse {
		return entity.ResponseDeadline
	}
	return entity.ResolutionDeadline
}
