package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/service"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// BreachHandler exposes the breach filter capability to the host query
// layer.
type BreachHandler struct {
	service *service.BreachService
}

// NewBreachHandler constructs handler.
func NewBreachHandler(breachService *service.BreachService) *BreachHandler {
	return &BreachHandler{service: breachService}
}

// Partition GET /projects/:id/breaches.
// Query: dimension=sla|ola, operator== or !, values=1,0, mode=stored|live.
func (h *BreachHandler) Partition(c *fiber.Ctx) error {
	dimension, operator, values, err := parseBreachQuery(c)
	if err != nil {
		return err
	}
	now := time.Now()
	projectID := c.Params("id")

	var ids []string
	switch c.Query("mode", "stored") {
	case "stored":
		ids, err = h.service.PartitionStored(c.UserContext(), projectID, dimension, operator, values, now)
	case "live":
		ids, err = h.service.PartitionLive(c.UserContext(), projectID, dimension, operator, values, now)
	default:
		return apperrors.NewValidationError("mode must be stored or live", nil)
	}
	if err != nil {
		return err
	}
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(fiber.Map{"data": dto.BreachPartitionResponse{TicketIDs: ids}})
}

// Condition GET /breach-condition. Renders the partition as a SQL predicate
// the host can splice into its own ticket listing query. Stored mode emits a
// self-contained subselect; live mode evaluates the partition for a project
// and emits the explicit id list.
func (h *BreachHandler) Condition(c *fiber.Ctx) error {
	dimension, operator, values, err := parseBreachQuery(c)
	if err != nil {
		return err
	}

	var sql string
	switch c.Query("mode", "stored") {
	case "stored":
		sql, err = h.service.SQLCondition(dimension, operator, values, time.Now())
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
	case "live":
		projectID := c.Query("project_id")
		if projectID == "" {
			return apperrors.NewValidationError("project_id required for live mode", nil)
		}
		ids, err := h.service.PartitionLive(c.UserContext(), projectID, dimension, operator, values, time.Now())
		if err != nil {
			return err
		}
		sql = service.SQLConditionForIDs(ids)
	default:
		return apperrors.NewValidationError("mode must be stored or live", nil)
	}
	return c.JSON(fiber.Map{"data": dto.BreachConditionResponse{SQL: sql}})
}

// Status GET /tickets/:id/breach.
func (h *BreachHandler) Status(c *fiber.Ctx) error {
	dimension := service.Dimension(c.Query("dimension", string(service.DimensionSLA)))
	if _, err := dimension.LimitColumn(); err != nil {
		return apperrors.NewValidationError("dimension must be sla or ola", nil)
	}
	breached, err := h.service.IsBreachedLive(c.UserContext(), c.Params("id"), dimension, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BreachStatusResponse{
		TicketID:  c.Params("id"),
		Dimension: string(dimension),
		Breached:  breached,
	}})
}

func parseBreachQuery(c *fiber.Ctx) (service.Dimension, service.BreachOperator, []string, error) {
	dimension := service.Dimension(c.Query("dimension", string(service.DimensionSLA)))
	if _, err := dimension.LimitColumn(); err != nil {
		return "", "", nil, apperrors.NewValidationError("dimension must be sla or ola", nil)
	}

	operator := service.BreachOperator(c.Query("operator", string(service.OperatorEquals)))
	if operator != service.OperatorEquals && operator != service.OperatorNotEquals {
		return "", "", nil, apperrors.NewValidationError("operator must be = or !", nil)
	}

	var values []string
	for _, part := range strings.Split(c.Query("values", "1"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part != "0" && part != "1" {
			return "", "", nil, apperrors.NewValidationError("values must be 0 or 1", nil)
		}
		values = append(values, part)
	}
	if len(values) == 0 {
		return "", "", nil, apperrors.NewValidationError("values required", nil)
	}
	return dimension, operator, values, nil
}
