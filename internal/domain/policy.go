package domain

import (
	"sort"
	"time"
)

// Priority enumerates SLA urgency, shared between tickets and tasks.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// CustomerTier enumerates the requester's service tier.
type CustomerTier string

const (
	TierBasic    CustomerTier = "BASIC"
	TierStandard CustomerTier = "STANDARD"
	TierPremium  CustomerTier = "PREMIUM"
)

// AnchorMode selects the timestamp SLA budgets are measured from.
type AnchorMode string

const (
	// AnchorCreation starts the SLA clock at entity creation.
	AnchorCreation AnchorMode = "CREATION"
	// AnchorFirstEvent starts the clock at an externally supplied
	// qualifying event; deadlines stay pending until it occurs.
	AnchorFirstEvent AnchorMode = "FIRST_QUALIFYING_EVENT"
)

// Track identifies which SLA obligation a state or threshold belongs to.
type Track string

const (
	TrackResponse   Track = "RESPONSE"
	TrackResolution Track = "RESOLUTION"
)

// PolicyConditions restrict which entities a policy applies to. An empty
// list is a wildcard for that dimension.
type PolicyConditions struct {
	Priorities    []Priority
	Categories    []string
	Departments   []string
	CustomerTiers []CustomerTier
}

// EscalationLevel is a notification threshold past a breached deadline,
// expressed as counted duration.
type EscalationLevel struct {
	Level         int
	Track         Track
	After         time.Duration
	NotifyTargets []string
}

// SLATarget holds the per-priority budgets and escalation ladder.
type SLATarget struct {
	Priority         Priority
	ResponseBudget   time.Duration
	ResolutionBudget time.Duration
	Escalations      []EscalationLevel
}

// EscalationsFor returns the target's levels for one track in ascending
// level order.
func (t *SLATarget) EscalationsFor(track Track) []EscalationLevel {
	var out []EscalationLevel
	for _, e := range t.Escalations {
		if e.Track == track {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}

// BudgetFor returns the counted budget for one track.
func (t *SLATarget) BudgetFor(track Track) time.Duration {
	if track == TrackResponse {
		return t.ResponseBudget
	}
	return t.ResolutionBudget
}

// SLAPolicy is a tenant-configured SLA definition. The engine treats
// policies as read-only snapshots during a sweep.
type SLAPolicy struct {
	ID          string
	TenantID    string
	Name        string
	Conditions  PolicyConditions
	Anchor      AnchorMode
	PauseOnHold bool
	Targets     []SLATarget
	Active      bool
	CreatedAt   time.Time
}

// TargetFor returns the target configured for a priority, or nil.
func (p *SLAPolicy) TargetFor(priority Priority) *SLATarget {
	for i := range p.Targets {
		if p.Targets[i].Priority == priority {
			return &p.Targets[i]
		}
	}
	return nil
}
