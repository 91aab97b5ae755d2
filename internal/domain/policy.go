package domain

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/sla"
)

// Policy maps project+product to SLA/OLA delays and an optional business
// calendar. Policies are read-only configuration from the engine's
// perspective.
type Policy struct {
	ID            string
	ProjectID     string
	Products      []string
	SLADelayHours *float64
	OLADelayHours *float64
	BusinessDays  []time.Weekday
	BusinessStart *sla.ClockTime
	BusinessEnd   *sla.ClockTime
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SLADelay returns the SLA delay as a duration, or false when the policy
// carries no SLA obligation.
func (p *Policy) SLADelay() (time.Duration, bool) {
	return hoursToDuration(p.SLADelayHours)
}

// OLADelay returns the OLA delay as a duration, or false when the policy
// carries no OLA obligation.
func (p *Policy) OLADelay() (time.Duration, bool) {
	return hoursToDuration(p.OLADelayHours)
}

// Calendar returns the policy's business calendar, or nil (continuous 24/7
// time) when the calendar configuration is absent or incomplete. A partially
// configured calendar is a data-entry error and fails open to wall clock.
func (p *Policy) Calendar() *sla.Calendar {
	if len(p.BusinessDays) == 0 || p.BusinessStart == nil || p.BusinessEnd == nil {
		return nil
	}
	cal := sla.NewCalendar(p.BusinessDays, *p.BusinessStart, *p.BusinessEnd)
	if !cal.Valid() {
		return nil
	}
	return cal
}

// AppliesTo reports whether any of the ticket's product tags is covered by
// this policy.
func (p *Policy) AppliesTo(productTags []string) bool {
	for _, tag := range productTags {
		for _, product := range p.Products {
			if tag == product {
				return true
			}
		}
	}
	return false
}

func hoursToDuration(hours *float64) (time.Duration, bool) {
	if hours == nil || *hours <= 0 {
		return 0, false
	}
	return time.Duration(*hours * float64(time.Hour)), true
}
