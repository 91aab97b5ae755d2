package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
)

// PolicyService manages the externally edited configuration the engine
// consumes: level-agreement policies and the excluded-author list.
type PolicyService struct {
	policies repository.PolicyRepository
	projects repository.ProjectRepository
	settings repository.SettingsRepository
	logger   *zap.Logger
}

// PolicyDependencies bundles collaborators for the policy service.
type PolicyDependencies struct {
	PolicyRepo   repository.PolicyRepository
	ProjectRepo  repository.ProjectRepository
	SettingsRepo repository.SettingsRepository
	Logger       *zap.Logger
}

// NewPolicyService constructs the service.
func NewPolicyService(deps PolicyDependencies) *PolicyService {
	return &PolicyService{
		policies: deps.PolicyRepo,
		projects: deps.ProjectRepo,
		settings: deps.SettingsRepo,
		logger:   deps.Logger,
	}
}

// CreatePolicy validates and stores a policy. A partial calendar is accepted
// but logged: it behaves as continuous time until completed.
func (s *PolicyService) CreatePolicy(ctx context.Context, policy *domain.Policy) (*domain.Policy, error) {
	if len(policy.Products) == 0 {
		return nil, errors.New("products required")
	}
	if policy.SLADelayHours == nil && policy.OLADelayHours == nil {
		return nil, errors.New("at least one of sla or ola delay required")
	}
	if (policy.SLADelayHours != nil && *policy.SLADelayHours <= 0) ||
		(policy.OLADelayHours != nil && *policy.OLADelayHours <= 0) {
		return nil, errors.New("delays must be positive")
	}
	if _, err := s.projects.GetByID(ctx, policy.ProjectID); err != nil {
		return nil, err
	}

	partial := policy.Calendar() == nil &&
		(len(policy.BusinessDays) > 0 || policy.BusinessStart != nil || policy.BusinessEnd != nil)
	if partial && s.logger != nil {
		s.logger.Warn("policy calendar incomplete, treated as continuous",
			zap.String("project_id", policy.ProjectID),
			zap.Strings("products", policy.Products))
	}

	if err := s.policies.Create(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

// ListPolicies returns the project's policies in creation order.
func (s *PolicyService) ListPolicies(ctx context.Context, projectID string) ([]domain.Policy, error) {
	return s.policies.ListByProject(ctx, projectID)
}

// ExcludedAuthors returns the current exclusion list.
func (s *PolicyService) ExcludedAuthors(ctx context.Context) ([]string, error) {
	return s.settings.ExcludedAuthorIDs(ctx)
}

// SetExcludedAuthors replaces the exclusion list.
func (s *PolicyService) SetExcludedAuthors(ctx context.Context, authorIDs []string) error {
	return s.settings.SetExcludedAuthorIDs(ctx, authorIDs)
}
