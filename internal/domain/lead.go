package domain

import (
	"time"

	"github.com/google/uuid"
)

// LeadStatus tracks where a sales lead is in the pipeline.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusClosed    LeadStatus = "closed"
)

// ValidLeadStatus reports whether the string is a known pipeline status.
func ValidLeadStatus(status LeadStatus) bool {
	switch status {
	case LeadStatusNew, LeadStatusContacted, LeadStatusConverted, LeadStatusClosed:
		return true
	}
	return false
}

// Lead is a contact request captured from the site, optionally tied to the
// company the visitor was looking at.
type Lead struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	CVRNumber *int64     `json:"cvrNumber,omitempty"`
	Note      string     `json:"note"`
	Status    LeadStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewLead creates a lead in the initial pipeline state.
func NewLead(name, email, phone, note string, cvrNumber *int64) Lead {
	now := time.Now().UTC()
	return Lead{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		CVRNumber: cvrNumber,
		Note:      note,
		Status:    LeadStatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
