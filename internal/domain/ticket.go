package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen        TicketStatus = "OPEN"
	TicketStatusInProgress  TicketStatus = "IN_PROGRESS"
	TicketStatusPendingUser TicketStatus = "PENDING_USER"
	TicketStatusResolved    TicketStatus = "RESOLVED"
	TicketStatusClosed      TicketStatus = "CLOSED"
	TicketStatusCancelled   TicketStatus = "CANCELLED"
)

// ClosedStatuses lists the statuses that take a ticket out of breach
// consideration entirely.
var ClosedStatuses = []TicketStatus{TicketStatusClosed, TicketStatusCancelled}

// IsClosed reports whether the status removes the ticket from SLA tracking.
func (s TicketStatus) IsClosed() bool {
	for _, closed := range ClosedStatuses {
		if s == closed {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for support requests. SLALimit and OLALimit are
// absolute response deadlines: computed once at creation, cleared together
// when the first qualifying response arrives, nil when no obligation exists.
type Ticket struct {
	ID          string
	ExternalKey string
	ProjectID   string
	Subject     string
	Description string
	Status      TicketStatus
	ProductTags []string
	SLALimit    *time.Time
	OLALimit    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClosedAt    *time.Time
}

// HasLimit reports whether at least one deadline is currently pending.
func (t *Ticket) HasLimit() bool {
	return t.SLALimit != nil || t.OLALimit != nil
}
