package domain

import (
	"strings"
	"time"
)

// Note is an author-attributed comment on a ticket. Notes are immutable once
// created.
type Note struct {
	ID        string
	TicketID  string
	AuthorID  string
	Text      string
	IsPrivate bool
	CreatedAt time.Time
}

// ExclusionSet holds author identifiers whose notes never count as responses.
// It is externally configured and read-only to the engine.
type ExclusionSet map[string]struct{}

// NewExclusionSet builds a set from a list of author identifiers.
func NewExclusionSet(authorIDs []string) ExclusionSet {
	set := make(ExclusionSet, len(authorIDs))
	for _, id := range authorIDs {
		set[id] = struct{}{}
	}
	return set
}

// Contains reports whether the author is excluded.
func (s ExclusionSet) Contains(authorID string) bool {
	_, ok := s[authorID]
	return ok
}

// IDs returns the member identifiers in no particular order.
func (s ExclusionSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// QualifiesAsResponse reports whether the note stops the SLA clock: public,
// non-blank, and authored by someone outside the exclusion set.
func (n *Note) QualifiesAsResponse(excluded ExclusionSet) bool {
	if n.IsPrivate {
		return false
	}
	if strings.TrimSpace(n.Text) == "" {
		return false
	}
	return !excluded.Contains(n.AuthorID)
}
