package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/service"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// SweepHandler exposes the operational sweep endpoints.
type SweepHandler struct {
	sweeps     *service.SweepService
	violations repository.ViolationRepository
	entities   repository.TrackedEntityRepository
}

// NewSweepHandler returns a new handler instance.
func NewSweepHandler(sweeps *service.SweepService, violations repository.ViolationRepository, entities repository.TrackedEntityRepository) *SweepHandler {
	return &SweepHandler{sweeps: sweeps, violations: violations, entities: entities}
}

// Trigger runs a sweep on demand. An empty tenant sweeps all active
// tenants; dry_run=true reports what would fire without committing.
func (h *SweepHandler) Trigger(c *fiber.Ctx) error {
	tenantID := c.Query("tenant")
	dryRun, err := strconv.ParseBool(c.Query("dry_run", "false"))
	if err != nil {
		return apperrors.NewValidationError("dry_run must be a boolean", nil)
	}

	report, runErr := h.sweeps.RunSweep(c.UserContext(), tenantID, dryRun)
	if runErr != nil {
		return runErr
	}
	return c.JSON(report)
}

// Violations lists recorded violations for a tenant, newest first.
func (h *SweepHandler) Violations(c *fiber.Ctx) error {
	tenantID := c.Query("tenant")
	if tenantID == "" {
		return apperrors.NewValidationError("tenant is required", nil)
	}
	limit, err := strconv.Atoi(c.Query("limit", "100"))
	if err != nil {
		return apperrors.NewValidationError("limit must be an integer", nil)
	}

	violations, listErr := h.violations.ListByTenant(c.UserContext(), tenantID, limit)
	if listErr != nil {
		return listErr
	}
	return c.JSON(fiber.Map{"violations": violations, "count": len(violations)})
}

// Entity returns the current SLA bookkeeping for one tracked entity.
func (h *SweepHandler) Entity(c *fiber.Ctx) error {
	tenantID := c.Query("tenant")
	if tenantID == "" {
		return apperrors.NewValidationError("tenant is required", nil)
	}

	entity, err := h.entities.GetByID(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"id":                  entity.ID,
		"tenant_id":           entity.TenantID,
		"kind":                entity.Kind,
		"status":              entity.Status,
		"priority":            entity.Priority,
		"policy_id":           entity.PolicyID,
		"target_priority":     entity.TargetPriority,
		"response_deadline":   entity.ResponseDeadline,
		"resolution_deadline": entity.ResolutionDeadline,
		"fired":               entity.Fired.Keys(),
		"paused":              entity.Paused,
		"updated_at":          entity.UpdatedAt,
	})
}

// LatestReport returns the most recent sweep report.
func (h *SweepHandler) LatestReport(c *fiber.Ctx) error {
	report := h.sweeps.LastReport()
	if report == nil {
		return apperrors.NewNotFound("sweep report", nil)
	}
	return c.JSON(report)
}
