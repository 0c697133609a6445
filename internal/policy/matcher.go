// Package policy selects the SLA policy and per-priority target applicable
// to an entity's attributes.
package policy

import (
	"github.com/spec-kit/sla-engine/internal/domain"
)

// Matched pairs the winning policy with the target for the entity's
// priority.
type Matched struct {
	Policy *domain.SLAPolicy
	Target *domain.SLATarget
}

// Match returns the applicable policy and target for the given attributes.
// A miss is a normal outcome, reported as false, never an error: the caller
// decides whether SLA tracking is skipped.
//
// Ties resolve by number of non-wildcard matching dimensions descending,
// then by policy creation time descending (newest wins). Repeated calls
// over the same inputs are deterministic.
func Match(attrs domain.EntityAttributes, policies []domain.SLAPolicy) (Matched, bool) {
	var best *domain.SLAPolicy
	bestScore := -1

	for i := range policies {
		p := &policies[i]
		if !p.Active {
			continue
		}
		score, ok := conditionScore(p.Conditions, attrs)
		if !ok {
			continue
		}
		if score > bestScore || (score == bestScore && p.CreatedAt.After(best.CreatedAt)) {
			best = p
			bestScore = score
		}
	}

	if best == nil {
		return Matched{}, false
	}
	target := best.TargetFor(attrs.Priority)
	if target == nil {
		// A policy without a target for this priority cannot track the
		// entity; treated as no match rather than falling back to
		// another priority's budgets.
		return Matched{}, false
	}
	return Matched{Policy: best, Target: target}, true
}

// conditionScore returns the number of non-wildcard dimensions that matched,
// and whether every dimension is satisfied. An empty condition list is a
// wildcard for that dimension.
func conditionScore(c domain.PolicyConditions, attrs domain.EntityAttributes) (int, bool) {
	score := 0

	if len(c.Priorities) > 0 {
		if !containsPriority(c.Priorities, attrs.Priority) {
			return 0, false
		}
		score++
	}
	if len(c.Categories) > 0 {
		if !containsString(c.Categories, attrs.Category) {
			return 0, false
		}
		score++
	}
	if len(c.Departments) > 0 {
		if !containsString(c.Departments, attrs.Department) {
			return 0, false
		}
		score++
	}
	if len(c.CustomerTiers) > 0 {
		if !containsTier(c.CustomerTiers, attrs.CustomerTier) {
			return 0, false
		}
		score++
	}
	return score, true
}

func containsPriority(list []domain.Priority, v domain.Priority) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsTier(list []domain.CustomerTier, v domain.CustomerTier) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
