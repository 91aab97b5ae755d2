package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/service"
	"github.com/spec-kit/sla-engine/internal/sla"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// PoliciesHandler manages policy and settings endpoints.
type PoliciesHandler struct {
	service *service.PolicyService
}

// NewPoliciesHandler constructs handler.
func NewPoliciesHandler(policyService *service.PolicyService) *PoliciesHandler {
	return &PoliciesHandler{service: policyService}
}

// CreatePolicy POST /policies.
func (h *PoliciesHandler) CreatePolicy(c *fiber.Ctx) error {
	var req dto.CreatePolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ProjectID == "" {
		return apperrors.NewValidationError("project_id required", nil)
	}

	policy := &domain.Policy{
		ProjectID:     req.ProjectID,
		Products:      req.Products,
		SLADelayHours: req.SLADelayHours,
		OLADelayHours: req.OLADelayHours,
	}
	for _, day := range req.BusinessDays {
		if day < 0 || day > 6 {
			return apperrors.NewValidationError("business_days entries must be 0..6", nil)
		}
		policy.BusinessDays = append(policy.BusinessDays, time.Weekday(day))
	}
	var err error
	if policy.BusinessStart, err = parseClockTimeField(req.BusinessStart, "business_start"); err != nil {
		return err
	}
	if policy.BusinessEnd, err = parseClockTimeField(req.BusinessEnd, "business_end"); err != nil {
		return err
	}

	created, err := h.service.CreatePolicy(c.UserContext(), policy)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": policyResponse(created)})
}

// ListPolicies GET /projects/:id/policies.
func (h *PoliciesHandler) ListPolicies(c *fiber.Ctx) error {
	policies, err := h.service.ListPolicies(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.PolicyResponse, 0, len(policies))
	for i := range policies {
		items = append(items, policyResponse(&policies[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetExcludedAuthors GET /settings/excluded-authors.
func (h *PoliciesHandler) GetExcludedAuthors(c *fiber.Ctx) error {
	ids, err := h.service.ExcludedAuthors(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ExcludedAuthorsResponse{AuthorIDs: ids}})
}

// UpdateExcludedAuthors PUT /settings/excluded-authors.
func (h *PoliciesHandler) UpdateExcludedAuthors(c *fiber.Ctx) error {
	var req dto.ExcludedAuthorsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.SetExcludedAuthors(c.UserContext(), req.AuthorIDs); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ExcludedAuthorsResponse{AuthorIDs: req.AuthorIDs}})
}

func parseClockTimeField(value *string, field string) (*sla.ClockTime, error) {
	if value == nil {
		return nil, nil
	}
	ct, err := sla.ParseClockTime(*value)
	if err != nil {
		return nil, apperrors.NewValidationError(field+" must be HH:MM", nil)
	}
	return &ct, nil
}

func policyResponse(policy *domain.Policy) dto.PolicyResponse {
	resp := dto.PolicyResponse{
		ID:            policy.ID,
		ProjectID:     policy.ProjectID,
		Products:      policy.Products,
		SLADelayHours: policy.SLADelayHours,
		OLADelayHours: policy.OLADelayHours,
		CreatedAt:     policy.CreatedAt,
	}
	for _, day := range policy.BusinessDays {
		resp.BusinessDays = append(resp.BusinessDays, int(day))
	}
	if policy.BusinessStart != nil {
		s := policy.BusinessStart.String()
		resp.BusinessStart = &s
	}
	if policy.BusinessEnd != nil {
		s := policy.BusinessEnd.String()
		resp.BusinessEnd = &s
	}
	return resp
}
