package events

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventViolationRecorded EventType = "sla_violation_recorded"
	EventEscalationFired   EventType = "sla_escalation_fired"
	EventReminderDue       EventType = "sla_reminder_due"
	EventSweepCompleted    EventType = "sla_sweep_completed"
)

// Event represents an SLA event emitted by the engine. Publication is
// fire-and-forget: the sweep never waits on delivery.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TenantID  string    `json:"tenant_id"`
	EntityID  string    `json:"entity_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// ViolationRecordedPayload accompanies base breach violations.
type ViolationRecordedPayload struct {
	Kind          domain.ViolationKind `json:"kind"`
	Track         domain.Track         `json:"track"`
	EntityKind    domain.EntityKind    `json:"entity_kind"`
	DetectedAt    time.Time            `json:"detected_at"`
	Overdue       time.Duration        `json:"overdue"`
	NotifyTargets []string             `json:"notify_targets,omitempty"`
}

// EscalationFiredPayload accompanies escalation level crossings.
type EscalationFiredPayload struct {
	Kind          domain.ViolationKind `json:"kind"`
	Track         domain.Track         `json:"track"`
	Level         int                  `json:"level"`
	EntityKind    domain.EntityKind    `json:"entity_kind"`
	DetectedAt    time.Time            `json:"detected_at"`
	Overdue       time.Duration        `json:"overdue"`
	NotifyTargets []string             `json:"notify_targets"`
}

// ReminderDuePayload accompanies one-shot at-risk reminders.
type ReminderDuePayload struct {
	Track     domain.Track  `json:"track"`
	Deadline  time.Time     `json:"deadline"`
	Remaining time.Duration `json:"remaining"`
}

// SweepCompletedPayload summarizes a finished sweep for downstream
// consumers.
type SweepCompletedPayload struct {
	SweepID    string `json:"sweep_id"`
	DryRun     bool   `json:"dry_run"`
	Tenants    int    `json:"tenants"`
	Violations int    `json:"violations"`
	Errors     int    `json:"errors"`
}
