package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/service"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// TicketsHandler manages ticket and note endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ProjectID == "" || strings.TrimSpace(req.Subject) == "" {
		return apperrors.NewValidationError("project_id and subject required", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), service.TicketCreateInput{
		ProjectID:   req.ProjectID,
		Subject:     req.Subject,
		Description: req.Description,
		ProductTags: req.ProductTags,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, notes, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	noteItems := make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		noteItems = append(noteItems, noteResponse(&notes[i]))
	}
	return c.JSON(fiber.Map{
		"data":  ticketResponse(ticket),
		"notes": noteItems,
	})
}

// AddNote POST /tickets/:id/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AuthorID == "" {
		return apperrors.NewValidationError("author_id required", nil)
	}

	note, err := h.service.AddNote(c.UserContext(), c.Params("id"), req.AuthorID, req.Text, req.IsPrivate)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": noteResponse(note)})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}

	ticket, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          ticket.ID,
		ExternalKey: ticket.ExternalKey,
		ProjectID:   ticket.ProjectID,
		Subject:     ticket.Subject,
		Description: ticket.Description,
		Status:      ticket.Status,
		ProductTags: ticket.ProductTags,
		SLALimit:    ticket.SLALimit,
		OLALimit:    ticket.OLALimit,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		ClosedAt:    ticket.ClosedAt,
	}
}

func noteResponse(note *domain.Note) dto.NoteResponse {
	return dto.NoteResponse{
		ID:        note.ID,
		TicketID:  note.TicketID,
		AuthorID:  note.AuthorID,
		Text:      note.Text,
		IsPrivate: note.IsPrivate,
		CreatedAt: note.CreatedAt,
	}
}
