package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func seedPolicy(t *testing.T, repo *memPolicyRepo, projectID string, products []string, slaHours, olaHours *float64) *domain.Policy {
	t.Helper()
	policy := &domain.Policy{
		ProjectID:     projectID,
		Products:      products,
		SLADelayHours: slaHours,
		OLADelayHours: olaHours,
	}
	require.NoError(t, repo.Create(context.Background(), policy))
	return policy
}

func TestFindPolicyFirstMatchWins(t *testing.T) {
	repo := &memPolicyRepo{}
	first := seedPolicy(t, repo, "project-1", []string{"widget"}, floatPtr(6), nil)
	seedPolicy(t, repo, "project-1", []string{"widget", "gadget"}, floatPtr(12), nil)

	catalog := NewPolicyCatalog(repo, zap.NewNop())
	got, err := catalog.FindPolicy(context.Background(), "project-1", []string{"widget"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
}

func TestFindPolicyNoTagsReturnsNil(t *testing.T) {
	repo := &memPolicyRepo{}
	seedPolicy(t, repo, "project-1", []string{"widget"}, floatPtr(6), nil)

	catalog := NewPolicyCatalog(repo, zap.NewNop())
	got, err := catalog.FindPolicy(context.Background(), "project-1", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindPolicyNoMatchReturnsNil(t *testing.T) {
	repo := &memPolicyRepo{}
	seedPolicy(t, repo, "project-1", []string{"widget"}, floatPtr(6), nil)

	catalog := NewPolicyCatalog(repo, zap.NewNop())
	got, err := catalog.FindPolicy(context.Background(), "project-1", []string{"doohickey"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindPolicyIgnoresOtherProjects(t *testing.T) {
	repo := &memPolicyRepo{}
	seedPolicy(t, repo, "project-2", []string{"widget"}, floatPtr(6), nil)

	catalog := NewPolicyCatalog(repo, zap.NewNop())
	got, err := catalog.FindPolicy(context.Background(), "project-1", []string{"widget"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMatchAmbiguousOverlapStillDeterministic(t *testing.T) {
	repo := &memPolicyRepo{}
	a := seedPolicy(t, repo, "project-1", []string{"widget"}, floatPtr(6), nil)
	seedPolicy(t, repo, "project-1", []string{"widget"}, floatPtr(24), nil)

	catalog := NewPolicyCatalog(repo, zap.NewNop())
	policies, err := repo.ListByProject(context.Background(), "project-1")
	require.NoError(t, err)

	// The overlap is a configuration error but selection stays stable.
	for i := 0; i < 5; i++ {
		got := catalog.Match(policies, []string{"widget"})
		require.NotNil(t, got)
		assert.Equal(t, a.ID, got.ID)
	}
}

func TestMatchMultiTagTicket(t *testing.T) {
	repo := &memPolicyRepo{}
	seedPolicy(t, repo, "project-1", []string{"gadget"}, floatPtr(6), floatPtr(3))

	catalog := NewPolicyCatalog(repo, zap.NewNop())
	policies, err := repo.ListByProject(context.Background(), "project-1")
	require.NoError(t, err)

	got := catalog.Match(policies, []string{"widget", "gadget"})
	require.NotNil(t, got)
	delay, ok := got.OLADelay()
	require.True(t, ok)
	assert.Equal(t, 3*time.Hour, delay)
}
