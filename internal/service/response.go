package service

import (
	"sort"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// FirstQualifyingResponse returns the earliest note that stops the SLA clock,
// or nil when no note qualifies. Notes are evaluated in creation order
// regardless of input order.
func FirstQualifyingResponse(notes []domain.Note, excluded domain.ExclusionSet) *domain.Note {
	ordered := make([]domain.Note, len(notes))
	copy(ordered, notes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	for i := range ordered {
		if ordered[i].QualifiesAsResponse(excluded) {
			return &ordered[i]
		}
	}
	return nil
}
