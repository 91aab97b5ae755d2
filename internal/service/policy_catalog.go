package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
)

// PolicyCatalog resolves the single applicable policy for a ticket's project
// and product tags.
type PolicyCatalog struct {
	policies repository.PolicyRepository
	logger   *zap.Logger
}

// NewPolicyCatalog constructs the catalog.
func NewPolicyCatalog(policies repository.PolicyRepository, logger *zap.Logger) *PolicyCatalog {
	return &PolicyCatalog{policies: policies, logger: logger}
}

// FindPolicy returns the first policy of the project, in creation order,
// whose products intersect the ticket's tags. No tags or no match returns
// nil without error.
func (c *PolicyCatalog) FindPolicy(ctx context.Context, projectID string, productTags []string) (*domain.Policy, error) {
	if len(productTags) == 0 {
		return nil, nil
	}
	policies, err := c.policies.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return c.Match(policies, productTags), nil
}

// Match applies the selection rule over an already loaded policy list, which
// the bulk reconciliation path uses to avoid one catalog query per ticket.
// The list must be in creation order.
func (c *PolicyCatalog) Match(policies []domain.Policy, productTags []string) *domain.Policy {
	var match *domain.Policy
	for i := range policies {
		if !policies[i].AppliesTo(productTags) {
			continue
		}
		if match == nil {
			match = &policies[i]
			continue
		}
		// Configuration error: a later policy also covers one of the
		// ticket's tags. The first match wins; the host should fix the
		// overlap.
		if c.logger != nil {
			c.logger.Warn("ambiguous policy match",
				zap.String("project_id", policies[i].ProjectID),
				zap.String("selected_policy_id", match.ID),
				zap.String("shadowed_policy_id", policies[i].ID),
				zap.Strings("product_tags", productTags))
		}
	}
	return match
}
