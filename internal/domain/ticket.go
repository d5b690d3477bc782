package domain

import (
	"errors"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "abierto"
	TicketStatusInProgress TicketStatus = "en_proceso"
	TicketStatusClosed     TicketStatus = "cerrado"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "baja"
	TicketPriorityMedium TicketPriority = "media"
	TicketPriorityHigh   TicketPriority = "alta"
)

// Satisfaction ratings are whole stars in [MinRating, MaxRating].
const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrInvalidPriority = errors.New("invalid ticket priority")
	ErrInvalidStatus   = errors.New("invalid ticket status")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
)

var slaOffsets = map[TicketPriority]time.Duration{
	TicketPriorityHigh:   24 * time.Hour,
	TicketPriorityMedium: 72 * time.Hour,
	TicketPriorityLow:    7 * 24 * time.Hour,
}

// Valid reports whether p is part of the closed priority set.
func (p TicketPriority) Valid() bool {
	_, ok := slaOffsets[p]
	return ok
}

// SLA returns the resolution window granted to p.
func (p TicketPriority) SLA() (time.Duration, error) {
	offset, ok := slaOffsets[p]
	if !ok {
		return 0, ErrInvalidPriority
	}
	return offset, nil
}

// Deadline computes the SLA deadline for a ticket opened at createdAt.
func (p TicketPriority) Deadline(createdAt time.Time) (time.Time, error) {
	offset, err := p.SLA()
	if err != nil {
		return time.Time{}, err
	}
	return createdAt.Add(offset), nil
}

// Valid reports whether s is part of the closed status set.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// Label renders s for people: upper case, underscores as spaces.
func (s TicketStatus) Label() string {
	return strings.ToUpper(strings.ReplaceAll(string(s), "_", " "))
}

// ValidateRating checks that r is a whole star rating.
func ValidateRating(r int) error {
	if r < MinRating || r > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

// Ticket is the aggregate for support requests. AssetName and CreatorName are
// resolved by joins on read.
type Ticket struct {
	ID          int64
	Title       string
	Description string
	Priority    TicketPriority
	Status      TicketStatus
	AssetID     *int64
	AssetName   *string
	CreatorID   int64
	CreatorName string
	Deadline    time.Time
	Rating      *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsRated reports whether the requester left a satisfaction rating.
func (t *Ticket) IsRated() bool {
	return t.Rating != nil && *t.Rating > 0
}

// OwnedBy reports whether userID opened the ticket.
func (t *Ticket) OwnedBy(userID int64) bool {
	return t.CreatorID == userID
}
