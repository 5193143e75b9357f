package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-kit/ticketd/internal/api/dto"
	"github.com/helpdesk-kit/ticketd/internal/domain"
	"github.com/helpdesk-kit/ticketd/internal/repository"
	apperrors "github.com/helpdesk-kit/ticketd/pkg/util"
)

// SLAHandler manages SLA policy configuration endpoints.
type SLAHandler struct {
	policies repository.SLAPolicyRepository
}

// NewSLAHandler constructs handler.
func NewSLAHandler(policies repository.SLAPolicyRepository) *SLAHandler {
	return &SLAHandler{policies: policies}
}

// ListPolicies GET /api/sla.
func (h *SLAHandler) ListPolicies(c *fiber.Ctx) error {
	policies, err := h.policies.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.SLAPolicyResponse, 0, len(policies))
	for _, policy := range policies {
		items = append(items, policyResponse(&policy))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdatePolicy PUT /api/sla/:priority (admin). Budgets apply to tickets
// created after the change; existing deadlines are never re-baselined.
func (h *SLAHandler) UpdatePolicy(c *fiber.Ctx) error {
	priority := domain.TicketPriority(c.Params("priority"))
	if !priority.Valid() {
		return apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	var req dto.UpdateSLAPolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ResponseTimeMinutes < 0 || req.ResolutionTimeMinutes < 0 {
		return apperrors.NewValidationError("time budgets must be non-negative", nil)
	}
	if req.ResolutionTimeMinutes < req.ResponseTimeMinutes {
		return apperrors.NewValidationError("resolution budget must be at least the response budget", nil)
	}

	policy := &domain.SLAPolicy{
		Priority:              priority,
		Name:                  req.Name,
		Description:           req.Description,
		ResponseTimeMinutes:   req.ResponseTimeMinutes,
		ResolutionTimeMinutes: req.ResolutionTimeMinutes,
	}
	if err := h.policies.Update(c.UserContext(), policy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("sla policy", nil)
		}
		return err
	}
	return c.JSON(fiber.Map{"data": policyResponse(policy)})
}

func policyResponse(policy *domain.SLAPolicy) dto.SLAPolicyResponse {
	return dto.SLAPolicyResponse{
		Priority:              policy.Priority,
		Name:                  policy.Name,
		Description:           policy.Description,
		ResponseTimeMinutes:   policy.ResponseTimeMinutes,
		ResolutionTimeMinutes: policy.ResolutionTimeMinutes,
	}
}
