package domain

import "time"

// TenantSweepResult summarizes one tenant's pass within a sweep.
type TenantSweepResult struct {
	TenantID              string         `json:"tenant_id"`
	EntitiesEvaluated     int            `json:"entities_evaluated"`
	PausedSkipped         int            `json:"paused_skipped"`
	Unmatched             int            `json:"unmatched"`
	Violations            []SLAViolation `json:"violations,omitempty"`
	NotificationsEnqueued int            `json:"notifications_enqueued"`
	Errors                []string       `json:"errors,omitempty"`
}

// SweepReport is the outcome of one complete sweep invocation. In dry-run
// mode Violations carries what would have fired without any side effects.
type SweepReport struct {
	SweepID    string              `json:"sweep_id"`
	DryRun     bool                `json:"dry_run"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Tenants    []TenantSweepResult `json:"tenants"`
}

// TotalViolations counts newly recorded (or would-fire) violations.
func (r *SweepReport) TotalViolations() int {
	total := 0
	for _, t := range r.Tenants {
		total += len(t.Violations)
	}
	return total
}

// TotalErrors counts tenant-scoped errors across the sweep.
func (r *SweepReport) TotalErrors() int {
	total := 0
	for _, t := range r.Tenants {
		total += len(t.Errors)
	}
	return total
}
