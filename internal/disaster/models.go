package disaster

import "time"

// Disaster is a shared response record.
//
// Invariants:
// - ID, OwnerID and CreatedAt are immutable after creation.
// - AuditTrail is append-only, never truncated or reordered, and holds at
//   least one entry (the create) once the record exists.
// - Visible fields always reflect the last applied mutation.
type Disaster struct {
	ID           string       `json:"id" db:"id"`
	Title        string       `json:"title" db:"title"`
	LocationName string       `json:"location_name" db:"location_name"`
	Description  string       `json:"description" db:"description"`
	Tags         []string     `json:"tags" db:"tags"`
	OwnerID      string       `json:"owner_id" db:"owner_id"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	AuditTrail   []AuditEntry `json:"audit_trail" db:"audit_trail"`
}

// AuditEntry records one mutation. Entries carry non-decreasing timestamps
// in trail order.
type AuditEntry struct {
	Action    Action    `json:"action"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// CreateRequest carries the caller-settable fields of a new record.
type CreateRequest struct {
	Title        string   `json:"title"`
	LocationName string   `json:"location_name"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
}

// UpdateRequest is a partial merge: a nil field keeps the prior value.
// An all-nil request is valid and still appends one audit entry.
type UpdateRequest struct {
	Title        *string  `json:"title"`
	LocationName *string  `json:"location_name"`
	Description  *string  `json:"description"`
	Tags         []string `json:"tags"`
}

func (d Disaster) clone() Disaster {
	out := d
	out.Tags = append([]string(nil), d.Tags...)
	out.AuditTrail = append([]AuditEntry(nil), d.AuditTrail...)
	return out
}

// HasTag reports whether the record's tag set contains tag.
func (d Disaster) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
