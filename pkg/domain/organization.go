package domain

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a tenant registered in the master registry.
// The slug is the canonical partition identifier derived from the display
// name at registration time; neither changes afterwards.
type Organization struct {
	ID            uuid.UUID
	Name          string
	Slug          string
	SchemaName    string
	CreatedAt     time.Time
	DeactivatedAt *time.Time
}

// IsActive returns true if the organization has not been deactivated.
func (o *Organization) IsActive() bool {
	return o.DeactivatedAt == nil
}

// Partition is a resolved handle onto an organization's dedicated schema.
// It is only ever produced by the registry; downstream code operates on
// the handle and never reassembles schema names from raw input.
type Partition struct {
	OrgID  string
	Schema string
}
