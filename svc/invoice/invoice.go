package invoice

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusPending Status = "pending"
	StatusSynced  Status = "synced"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusSynced:
		return true
	}
	return false
}

// CanTransition reports whether an invoice may move from s to next.
// Drafts and pending invoices move freely between each other; a pending
// invoice may be synced; synced invoices are final.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusPending
	case StatusPending:
		return next == StatusDraft || next == StatusSynced
	}
	return false
}

// Invoice is a user-owned document counted against the creation quota.
type Invoice struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Number    string    `json:"number"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // decides whether deletion refunds quota
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Invoice) clone() *Invoice {
	c := *i
	return &c
}
