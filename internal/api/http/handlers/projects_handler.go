package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// ProjectsHandler manages project endpoints.
type ProjectsHandler struct {
	projects repository.ProjectRepository
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projects repository.ProjectRepository) *ProjectsHandler {
	return &ProjectsHandler{projects: projects}
}

// CreateProject POST /projects.
func (h *ProjectsHandler) CreateProject(c *fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name required", nil)
	}

	project := &domain.Project{
		Name:     strings.TrimSpace(req.Name),
		IsActive: true,
	}
	if req.IsActive != nil {
		project.IsActive = *req.IsActive
	}
	if err := h.projects.Create(c.UserContext(), project); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": projectResponse(project)})
}

// ListProjects GET /projects.
func (h *ProjectsHandler) ListProjects(c *fiber.Ctx) error {
	projects, err := h.projects.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		items = append(items, projectResponse(&projects[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func projectResponse(project *domain.Project) dto.ProjectResponse {
	return dto.ProjectResponse{
		ID:        project.ID,
		Name:      project.Name,
		IsActive:  project.IsActive,
		CreatedAt: project.CreatedAt,
	}
}
