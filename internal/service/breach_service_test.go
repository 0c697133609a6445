package service

import (
	"testing"
	"time"

	"github.com/spec-kit/sla-engine/internal/calendar"
	"github.com/spec-kit/sla-engine/internal/domain"
)

func calendarUTC(t *testing.T) calendar.Resolver {
	t.Helper()
	resolver, err := calendar.NewResolver(domain.OperationalHoursProfile{
		Mode:     domain.HoursModeCalendar,
		Timezone: "UTC",
	}, domain.NewHolidaySet(nil))
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	return resolver
}

func timePtr(v time.Time) *time.Time { return &v }

func trackedEntity(response, resolution time.Time) domain.TrackedEntity {
	return domain.TrackedEntity{
		ID:                 "e-1",
		TenantID:           "acme",
		Kind:               domain.EntityKindTicket,
		Priority:           domain.PriorityHigh,
		Status:             domain.StatusOpen,
		CreatedAt:          response.Add(-4 * time.Hour),
		ResponseDeadline:   timePtr(response),
		ResolutionDeadline: timePtr(resolution),
		Fired:              domain.NewFiredSet(),
	}
}

func escalatedTarget() domain.SLATarget {
	return domain.SLATarget{
		Priority:         domain.PriorityHigh,
		ResponseBudget:   4 * time.Hour,
		ResolutionBudget: 24 * time.Hour,
		Escalations: []domain.EscalationLevel{
			{Level: 1, Track: domain.TrackResponse, After: time.Hour, NotifyTargets: []string{"lead"}},
			{Level: 2, Track: domain.TrackResponse, After: 3 * time.Hour, NotifyTargets: []string{"manager"}},
			{Level: 3, Track: domain.TrackResponse, After: 6 * time.Hour, NotifyTargets: []string{"director"}},
			{Level: 1, Track: domain.TrackResolution, After: 2 * time.Hour, NotifyTargets: []string{"lead"}},
		},
	}
}

func TestEvaluateOnTrack(t *testing.T) {
	resolver := calendarUTC(t)
	svc := NewBreachService(0.10)

	deadline := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)
	entity := trackedEntity(deadline, deadline.Add(20*time.Hour))
	now := deadline.Add(-2 * time.Hour)

	eval := svc.Evaluate(&entity, escalatedTarget(), resolver, now)
	if eval.ResponseState != domain.TrackOnTrack {
		t.Fatalf("response state = %s, want ON_TRACK", eval.ResponseState)
	}
	if len(eval.Violations) != 0 || len(eval.ReminderTracks) != 0 {
		t.Fatalf("unexpected side effects: %+v", eval)
	}
}

func TestEvaluateAtRiskFiresReminderOnce(t *testing.T) {
	resolver := calendarUTC(t)
	svc := NewBreachService(0.10)

	deadline := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)
	entity := trackedEntity(deadline, deadline.Add(20*time.Hour))
	// 12 minutes left of a 4h budget: under the 10% threshold (24m).
	now := deadline.Add(-12 * time.Minute)

	eval := svc.Evaluate(&entity, escalatedTarget(), resolver, now)
	if eval.ResponseState != domain.TrackAtRisk {
		t.Fatalf("response state = %s, want AT_RISK", eval.ResponseState)
	}
	if len(eval.ReminderTracks) != 1 || eval.ReminderTracks[0] != domain.TrackResponse {
		t.Fatalf("reminders = %v, want [RESPONSE]", eval.ReminderTracks)
	}

	again := svc.Evaluate(&entity, escalatedTarget(), resolver, now.Add(5*time.Minute))
	if again.ResponseState != domain.TrackAtRisk {
		t.Fatalf("second state = %s, want AT_RISK", again.ResponseState)
	}
	if len(again.ReminderTracks) != 0 {
		t.Fatalf("reminder fired twice: %v", again.ReminderTracks)
	}
}

func TestEvaluateBreachIsIdempotent(t *testing.T) {
	resolver := calendarUTC(t)
	svc := NewBreachService(0.10)

	deadline := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)
	entity := trackedEntity(deadline, deadline.Add(20*time.Hour))
	now := deadline.Add(30 * time.Minute)

	eval := svc.Evaluate(&entity, escalatedTarget(), resolver, now)
	if eval.ResponseState != domain.TrackBreached {
		t.Fatalf("response state = %s, want BREACHED", eval.ResponseState)
	}
	if len(eval.Violations) != 1 {
		t.Fatalf("violations = %d, want 1", len(eval.Violations))
	}
	v := eval.Violations[0]
	if v.Kind != domain.BreachViolationKind(domain.TrackResponse) || v.Level != domain.FiredLevelBreach {
		t.Fatalf("unexpected violation %+v", v)
	}
	if v.Overdue != 30*time.Minute {
		t.Fatalf("overdue = %s, want 30m", v.Overdue)
	}

	again := svc.Evaluate(&entity, escalatedTarget(), resolver, now.Add(time.Minute))
	if len(again.Violations) != 0 {
		t.Fatalf("breach recorded twice: %+v", again.Violations)
	}
}

func TestEvaluateCatchesUpCrossedLevelsAscending(t *testing.T) {
	resolver := calendarUTC(t)
	svc := NewBreachService(0.10)

	deadline := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)
	entity := trackedEntity(deadline, deadline.Add(48*time.Hour))

	// First evaluation after a long gap: 4h overdue crosses levels 1 and 2.
	eval := svc.Evaluate(&entity, escalatedTarget(), resolver, deadline.Add(4*time.Hour))
	wantLevels := []int{0, 1, 2}
	if len(eval.Violations) != len(wantLevels) {
		t.Fatalf("violations = %d, want %d", len(eval.Violations), len(wantLevels))
	}
	for i, want := range wantLevels {
		if eval.Violations[i].Level != want {
			t.Fatalf("violation %d level = %d, want %d", i, eval.Violations[i].Level, want)
		}
	}

	// Next evaluation crosses only the remaining level 3.
	later := svc.Evaluate(&entity, escalatedTarget(), resolver, deadline.Add(7*time.Hour))
	if len(later.Violations) != 1 || later.Violations[0].Level != 3 {
		t.Fatalf("follow-up violations = %+v, want single level 3", later.Violations)
	}
	if entity.Fired.HighestLevel(domain.TrackResponse) != 3 {
		t.Fatalf("highest fired level = %d, want 3", entity.Fired.HighestLevel(domain.TrackResponse))
	}
}

func TestEvaluateSatisfiedTracks(t *testing.T) {
	resolver := calendarUTC(t)
	svc := NewBreachService(0.10)

	deadline := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)
	now := deadline.Add(time.Hour)

	responded := trackedEntity(deadline, deadline.Add(20*time.Hour))
	responded.FirstResponseAt = timePtr(deadline.Add(-time.Hour))
	eval := svc.Evaluate(&responded, escalatedTarget(), resolver, now)
	if eval.ResponseState != domain.TrackSatisfied {
		t.Fatalf("response state = %s, want SATISFIED", eval.ResponseState)
	}
	if len(eval.Violations) != 0 {
		t.Fatalf("satisfied track produced violations: %+v", eval.Violations)
	}

	resolved := trackedEntity(deadline, deadline.Add(-time.Minute))
	resolved.Status = domain.StatusResolved
	resolved.FirstResponseAt = timePtr(deadline.Add(-time.Hour))
	eval = svc.Evaluate(&resolved, escalatedTarget(), resolver, now)
	if eval.ResolutionState != domain.TrackSatisfied {
		t.Fatalf("resolution state = %s, want SATISFIED", eval.ResolutionState)
	}
}

func TestEvaluatePendingWithoutDeadline(t *testing.T) {
	resolver := calendarUTC(t)
	svc := NewBreachService(0.10)

	entity := domain.TrackedEntity{
		ID:        "e-2",
		TenantID:  "acme",
		Status:    domain.StatusOpen,
		CreatedAt: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		Fired:     domain.NewFiredSet(),
	}
	eval := svc.Evaluate(&entity, escalatedTarget(), resolver, entity.CreatedAt.Add(time.Hour))
	if eval.ResponseState != domain.TrackPending || eval.ResolutionState != domain.TrackPending {
		t.Fatalf("states = %s/%s, want PENDING/PENDING", eval.ResponseState, eval.ResolutionState)
	}
}
