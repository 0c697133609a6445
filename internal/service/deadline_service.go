package service

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/calendar"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/policy"
)

// DeadlineService stamps policy assignments and track deadlines onto
// tracked entities.
type DeadlineService struct{}

// NewDeadlineService instantiates service.
func NewDeadlineService() *DeadlineService {
	return &DeadlineService{}
}

// Anchor returns the instant SLA budgets count from, or nil when the
// policy anchors on an event that has not happened yet.
func (s *DeadlineService) Anchor(entity domain.TrackedEntity, p domain.SLAPolicy) *time.Time {
	switch p.Anchor {
	case domain.AnchorFirstEvent:
		return entity.AnchorAt
	default:
		created := entity.CreatedAt
		return &created
	}
}

// NeedsRecompute reports whether the entity's stored deadlines are stale
// for the matched policy. Stale means: no deadlines yet while an anchor
// is available, a different policy matched than last time, or the
// entity's priority changed since the deadlines were stamped.
func (s *DeadlineService) NeedsRecompute(entity domain.TrackedEntity, matched policy.Matched) bool {
	anchor := s.Anchor(entity, *matched.Policy)
	if anchor == nil {
		return false
	}
	if entity.PolicyID == nil || *entity.PolicyID != matched.Policy.ID {
		return true
	}
	if entity.TargetPriority != entity.Priority {
		return true
	}
	return entity.ResponseDeadline == nil || entity.ResolutionDeadline == nil
}

// Compute stamps the matched policy and both track deadlines onto the
// entity. Deadlines count budget over the tenant's counted time starting
// at the anchor; a priority change recomputes from the original anchor,
// never from "now". A nil anchor leaves both deadlines unset, keeping
// the tracks pending.
func (s *DeadlineService) Compute(entity *domain.TrackedEntity, matched policy.Matched, resolver calendar.Resolver) error {
	policyID := matched.Policy.ID
	entity.PolicyID = &policyID
	entity.TargetPriority = entity.Priority

	anchor := s.Anchor(*entity, *matched.Policy)
	if anchor == nil {
		entity.ResponseDeadline = nil
		entity.ResolutionDeadline = nil
		return nil
	}

	response, err := resolver.AddCounted(*anchor, matched.Target.ResponseBudget)
	if err != nil {
		return err
	}
	resolution, err := resolver.AddCounted(*anchor, matched.Target.ResolutionBudget)
	if err != nil {
		return err
	}
	entity.ResponseDeadline = &response
	entity.ResolutionDeadline = &resolution
	return nil
}
