package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/ticketd/internal/api/dto"
	"github.com/helpdesk-kit/ticketd/internal/auth"
	"github.com/helpdesk-kit/ticketd/internal/domain"
	"github.com/helpdesk-kit/ticketd/internal/service"
	apperrors "github.com/helpdesk-kit/ticketd/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	comments *service.CommentService
	loc      *time.Location
}

// NewTicketsHandler constructs handler. loc is the fixed SLA timezone used
// as the "now" frame when computing standings for responses.
func NewTicketsHandler(tickets *service.TicketService, comments *service.CommentService, loc *time.Location) *TicketsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TicketsHandler{tickets: tickets, comments: comments, loc: loc}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), principal.User, service.TicketCreateInput{
		Subject:     req.Subject,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.summary(ticket, time.Now().In(h.loc))})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	filter := parseTicketQuery(c)
	// Reporters only see their own tickets; admins see everything.
	if principal.User.Role != domain.UserRoleAdmin {
		reporterID := principal.User.ID
		filter.ReporterID = &reporterID
	}

	tickets, err := h.tickets.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}

	now := time.Now().In(h.loc)
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, h.summary(&tickets[i], now))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /api/tickets/:number.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("number"))
	if err != nil {
		return err
	}
	if principal.User.Role != domain.UserRoleAdmin && ticket.ReporterID != principal.User.ID {
		return apperrors.NewForbidden("not your ticket")
	}

	comments, err := h.comments.ListComments(c.UserContext(), ticket.Number)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.detail(ticket, comments, time.Now().In(h.loc))})
}

// UpdateTicket PUT /api/tickets/:number (admin).
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == nil && req.AssigneeID == nil && req.Subject == nil &&
		req.Description == nil && req.CategoryID == nil && req.Priority == nil {
		return apperrors.NewValidationError("no fields to update", nil)
	}

	ticket, err := h.tickets.UpdateTicket(c.UserContext(), principal.User, c.Params("number"), service.TicketUpdateInput{
		Status:      req.Status,
		AssigneeID:  req.AssigneeID,
		Subject:     req.Subject,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.summary(ticket, time.Now().In(h.loc))})
}

// DeleteTicket DELETE /api/tickets/:number (admin).
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), principal.User, c.Params("number")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if category := c.Query("category"); category != "" {
		filter.CategoryID = &category
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func (h *TicketsHandler) summary(ticket *domain.Ticket, now time.Time) dto.TicketSummary {
	return dto.TicketSummary{
		Number:        ticket.Number,
		Subject:       ticket.Subject,
		CategoryID:    ticket.CategoryID,
		Priority:      ticket.Priority,
		Status:        ticket.Status,
		AssigneeID:    ticket.AssigneeID,
		ResponseSLA:   slaStatus(ticket.ResponseDeadline, ticket.FirstResponseAt, ticket.Status, now),
		ResolutionSLA: slaStatus(ticket.ResolutionDeadline, ticket.ResolvedAt, ticket.Status, now),
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
	}
}

func (h *TicketsHandler) detail(ticket *domain.Ticket, comments []domain.Comment, now time.Time) dto.TicketDetailResponse {
	commentItems := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		commentItems = append(commentItems, commentResponse(&comment))
	}
	return dto.TicketDetailResponse{
		Number:        ticket.Number,
		Subject:       ticket.Subject,
		Description:   ticket.Description,
		CategoryID:    ticket.CategoryID,
		Priority:      ticket.Priority,
		Status:        ticket.Status,
		ReporterID:    ticket.ReporterID,
		AssigneeID:    ticket.AssigneeID,
		ResponseSLA:   slaStatus(ticket.ResponseDeadline, ticket.FirstResponseAt, ticket.Status, now),
		ResolutionSLA: slaStatus(ticket.ResolutionDeadline, ticket.ResolvedAt, ticket.Status, now),
		ResolvedAt:    ticket.ResolvedAt,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
		Comments:      commentItems,
	}
}

func slaStatus(deadline time.Time, completedAt *time.Time, status domain.TicketStatus, now time.Time) dto.SLAStatus {
	return dto.SLAStatus{
		Deadline:    deadline,
		CompletedAt: completedAt,
		Standing:    domain.EvaluateSLA(&deadline, completedAt, status, now),
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		AuthorName: comment.AuthorName,
		AuthorRole: comment.AuthorRole,
		Body:       comment.Body,
		Kind:       comment.Kind,
		CreatedAt:  comment.CreatedAt,
	}
}
