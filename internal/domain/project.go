package domain

import "time"

// Project scopes tickets and policies.
type Project struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
