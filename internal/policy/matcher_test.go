package policy

import (
	"testing"
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

func target(priority domain.Priority) domain.SLATarget {
	return domain.SLATarget{
		Priority:         priority,
		ResponseBudget:   time.Hour,
		ResolutionBudget: 8 * time.Hour,
	}
}

func testPolicy(id string, createdAt time.Time, conditions domain.PolicyConditions) domain.SLAPolicy {
	return domain.SLAPolicy{
		ID:         id,
		TenantID:   "tenant-1",
		Name:       id,
		Conditions: conditions,
		Anchor:     domain.AnchorCreation,
		Targets:    []domain.SLATarget{target(domain.PriorityHigh), target(domain.PriorityMedium)},
		Active:     true,
		CreatedAt:  createdAt,
	}
}

var attrs = domain.EntityAttributes{
	Priority:     domain.PriorityHigh,
	Category:     "billing",
	Department:   "support",
	CustomerTier: domain.TierPremium,
}

func TestMatchWildcardPolicy(t *testing.T) {
	policies := []domain.SLAPolicy{
		testPolicy("catch-all", time.Now(), domain.PolicyConditions{}),
	}
	m, ok := Match(attrs, policies)
	if !ok {
		t.Fatal("expected wildcard policy to match")
	}
	if m.Policy.ID != "catch-all" || m.Target.Priority != domain.PriorityHigh {
		t.Fatalf("matched %s/%s", m.Policy.ID, m.Target.Priority)
	}
}

func TestMatchPrefersMoreSpecific(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	policies := []domain.SLAPolicy{
		testPolicy("broad", base.Add(time.Hour), domain.PolicyConditions{
			Priorities: []domain.Priority{domain.PriorityHigh},
		}),
		testPolicy("narrow", base, domain.PolicyConditions{
			Priorities:    []domain.Priority{domain.PriorityHigh},
			Categories:    []string{"billing"},
			CustomerTiers: []domain.CustomerTier{domain.TierPremium},
		}),
	}
	m, ok := Match(attrs, policies)
	if !ok || m.Policy.ID != "narrow" {
		t.Fatalf("expected narrow to win despite being older, got %+v ok=%v", m.Policy, ok)
	}
}

func TestMatchTieBreaksByNewest(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	conditions := domain.PolicyConditions{Priorities: []domain.Priority{domain.PriorityHigh}}
	policies := []domain.SLAPolicy{
		testPolicy("older", base, conditions),
		testPolicy("newer", base.Add(time.Minute), conditions),
	}

	// Consistent across repeated calls and input orderings.
	for i := 0; i < 10; i++ {
		m, ok := Match(attrs, policies)
		if !ok || m.Policy.ID != "newer" {
			t.Fatalf("run %d: expected newer to win, got %v", i, m.Policy)
		}
	}
	reversed := []domain.SLAPolicy{policies[1], policies[0]}
	if m, _ := Match(attrs, reversed); m.Policy.ID != "newer" {
		t.Fatalf("reversed order changed winner to %s", m.Policy.ID)
	}
}

func TestMatchSkipsNonMatchingAndInactive(t *testing.T) {
	inactive := testPolicy("inactive", time.Now(), domain.PolicyConditions{})
	inactive.Active = false
	policies := []domain.SLAPolicy{
		inactive,
		testPolicy("wrong-dept", time.Now(), domain.PolicyConditions{
			Departments: []string{"engineering"},
		}),
	}
	if _, ok := Match(attrs, policies); ok {
		t.Fatal("expected no match")
	}
}

func TestMatchMissingPriorityTargetIsMiss(t *testing.T) {
	p := testPolicy("no-low-target", time.Now(), domain.PolicyConditions{})
	lowAttrs := attrs
	lowAttrs.Priority = domain.PriorityLow
	if _, ok := Match(lowAttrs, []domain.SLAPolicy{p}); ok {
		t.Fatal("policy without a target for the priority should not match")
	}
}

func TestMatchEmptyPolicyList(t *testing.T) {
	if _, ok := Match(attrs, nil); ok {
		t.Fatal("expected no match on empty policy list")
	}
}
