package domain

import (
	"fmt"
	"time"
)

// ViolationKind classifies an SLA violation record.
type ViolationKind string

const (
	ViolationResponseBreach   ViolationKind = "RESPONSE_BREACH"
	ViolationResolutionBreach ViolationKind = "RESOLUTION_BREACH"
)

// EscalationViolationKind builds the kind for an escalation level crossing,
// e.g. ESCALATION_RESPONSE_2.
func EscalationViolationKind(track Track, level int) ViolationKind {
	return ViolationKind(fmt.Sprintf("ESCALATION_%s_%d", track, level))
}

// BreachViolationKind returns the base breach kind for a track.
func BreachViolationKind(track Track) ViolationKind {
	if track == TrackResponse {
		return ViolationResponseBreach
	}
	return ViolationResolutionBreach
}

// SLAViolation is an append-only record of a breach or escalation crossing.
// Records are immutable once created and never deleted by the engine.
type SLAViolation struct {
	ID            string        `json:"id"`
	TenantID      string        `json:"tenant_id"`
	EntityID      string        `json:"entity_id"`
	EntityKind    EntityKind    `json:"entity_kind"`
	Kind          ViolationKind `json:"kind"`
	Track         Track         `json:"track"`
	Level         int           `json:"level"`
	DetectedAt    time.Time     `json:"detected_at"`
	Overdue       time.Duration `json:"overdue"`
	NotifyTargets []string      `json:"notify_targets,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
