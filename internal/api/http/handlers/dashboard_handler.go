package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/ticketd/internal/api/dto"
	"github.com/helpdesk-kit/ticketd/internal/service"
)

// DashboardHandler serves admin dashboard aggregates.
type DashboardHandler struct {
	stats *service.StatsService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(stats *service.StatsService) *DashboardHandler {
	return &DashboardHandler{stats: stats}
}

// Stats GET /api/dashboard/stats.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// PriorityStats GET /api/dashboard/priority-stats.
func (h *DashboardHandler) PriorityStats(c *fiber.Ctx) error {
	counts, err := h.stats.OpenByPriority(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.PriorityCountResponse, 0, len(counts))
	for priority, count := range counts {
		items = append(items, dto.PriorityCountResponse{Priority: priority, Count: count})
	}
	return c.JSON(fiber.Map{"data": items})
}
