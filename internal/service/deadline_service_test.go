package service

import (
	"testing"
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/policy"
)

func matchedPolicy(anchor domain.AnchorMode, target domain.SLATarget) policy.Matched {
	p := &domain.SLAPolicy{
		ID:        "pol-1",
		TenantID:  "acme",
		Name:      "default",
		Anchor:    anchor,
		Targets:   []domain.SLATarget{target},
		Active:    true,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	return policy.Matched{Policy: p, Target: &p.Targets[0]}
}

func TestComputeFromCreation(t *testing.T) {
	resolver := calendarUTC(t)
	svc := NewDeadlineService()

	created := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	entity := domain.TrackedEntity{
		ID:        "e-1",
		TenantID:  "acme",
		Priority:  domain.PriorityHigh,
		Status:    domain.StatusOpen,
		CreatedAt: created,
		Fired:     domain.NewFiredSet(),
	}
	matched := matchedPolicy(domain.AnchorCreation, domain.SLATarget{
		Priority:         domain.PriorityHigh,
		ResponseBudget:   4 * time.Hour,
		ResolutionBudget: 24 * time.Hour,
	})

	if !svc.NeedsRecompute(entity, matched) {
		t.Fatal("fresh entity should need deadline computation")
	}
	if err := svc.Compute(&entity, matched, resolver); err != nil {
		t.Fatalf("compute: %v", err)
	}
	if entity.ResponseDeadline == nil || !entity.ResponseDeadline.Equal(created.Add(4*time.Hour)) {
		t.Fatalf("response deadline = %v, want %v", entity.ResponseDeadline, created.Add(4*time.Hour))
	}
	if entity.ResolutionDeadline == nil || !entity.ResolutionDeadline.Equal(created.Add(24*time.Hour)) {
		t.Fatalf("resolution deadline = %v, want %v", entity.ResolutionDeadline, created.Add(24*time.Hour))
	}
	if entity.PolicyID == nil || *entity.PolicyID != "pol-1" {
		t.Fatalf("policy id = %v, want pol-1", entity.PolicyID)
	}
	if svc.NeedsRecompute(entity, matched) {
		t.Fatal("computed entity should not need recompute")
	}
}

func TestComputePendingUntilQualifyingEvent(t *testing.T) {
	resolver := calendarUTC(t)
	svc := NewDeadlineService()

	entity := domain.TrackedEntity{
		ID:        "e-2",
		TenantID:  "acme",
		Priority:  domain.PriorityHigh,
		Status:    domain.StatusOpen,
		CreatedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Fired:     domain.NewFiredSet(),
	}
	matched := matchedPolicy(domain.AnchorFirstEvent, domain.SLATarget{
		Priority:         domain.PriorityHigh,
		ResponseBudget:   time.Hour,
		ResolutionBudget: 8 * time.Hour,
	})

	if svc.NeedsRecompute(entity, matched) {
		t.Fatal("no anchor yet, nothing to compute")
	}
	if err := svc.Compute(&entity, matched, resolver); err != nil {
		t.Fatalf("compute: %v", err)
	}
	if entity.ResponseDeadline != nil || entity.ResolutionDeadline != nil {
		t.Fatalf("deadlines should stay unset, got %v / %v", entity.ResponseDeadline, entity.ResolutionDeadline)
	}

	anchored := entity.CreatedAt.Add(2 * time.Hour)
	entity.AnchorAt = &anchored
	if !svc.NeedsRecompute(entity, matched) {
		t.Fatal("anchor arrived, deadlines must be computed")
	}
	if err := svc.Compute(&entity, matched, resolver); err != nil {
		t.Fatalf("compute: %v", err)
	}
	if entity.ResponseDeadline == nil || !entity.ResponseDeadline.Equal(anchored.Add(time.Hour)) {
		t.Fatalf("response deadline = %v, want %v", entity.ResponseDeadline, anchored.Add(time.Hour))
	}
}

func TestPriorityChangeRecomputesFromOriginalAnchor(t *testing.T) {
	resolver := calendarUTC(t)
	svc := NewDeadlineService()

	created := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	entity := domain.TrackedEntity{
		ID:        "e-3",
		TenantID:  "acme",
		Priority:  domain.PriorityMedium,
		Status:    domain.StatusOpen,
		CreatedAt: created,
		Fired:     domain.NewFiredSet(),
	}
	mediumTarget := domain.SLATarget{
		Priority:         domain.PriorityMedium,
		ResponseBudget:   8 * time.Hour,
		ResolutionBudget: 48 * time.Hour,
	}
	urgentTarget := domain.SLATarget{
		Priority:         domain.PriorityUrgent,
		ResponseBudget:   time.Hour,
		ResolutionBudget: 8 * time.Hour,
	}
	p := &domain.SLAPolicy{
		ID:        "pol-1",
		TenantID:  "acme",
		Anchor:    domain.AnchorCreation,
		Targets:   []domain.SLATarget{mediumTarget, urgentTarget},
		Active:    true,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := svc.Compute(&entity, policy.Matched{Policy: p, Target: &p.Targets[0]}, resolver); err != nil {
		t.Fatalf("compute: %v", err)
	}

	// Escalated to urgent hours later: new budgets still count from creation.
	entity.Priority = domain.PriorityUrgent
	matched := policy.Matched{Policy: p, Target: &p.Targets[1]}
	if !svc.NeedsRecompute(entity, matched) {
		t.Fatal("priority change must trigger recompute")
	}
	if err := svc.Compute(&entity, matched, resolver); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if !entity.ResponseDeadline.Equal(created.Add(time.Hour)) {
		t.Fatalf("response deadline = %v, want %v", entity.ResponseDeadline, created.Add(time.Hour))
	}
	if entity.TargetPriority != domain.PriorityUrgent {
		t.Fatalf("target priority = %s, want URGENT", entity.TargetPriority)
	}
}
