// Package types defines the core domain types shared across the triage system.
package types

import (
	"fmt"
	"strings"
	"time"
)

// TicketStatus represents the lifecycle state of a support ticket
type TicketStatus string

const (
	StatusOpen     TicketStatus = "open"
	StatusResolved TicketStatus = "resolved"
)

// Priority represents ticket urgency as classified by the AI triage layer
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ValidPriority reports whether s is a recognized priority value.
// Callers that classify free-form model output must fall back to
// PriorityMedium when this returns false.
func ValidPriority(s string) bool {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Ticket is a support ticket as stored in the record store.
// Resolution is empty until the ticket has been resolved.
type Ticket struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Resolution  string       `json:"resolution,omitempty"`
	Status      TicketStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Validate checks that required fields are present
func (t *Ticket) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("ticket ID is required")
	}
	if t.Title == "" {
		return fmt.Errorf("ticket title is required")
	}
	switch t.Status {
	case StatusOpen, StatusResolved:
	default:
		return fmt.Errorf("invalid ticket status: %q", t.Status)
	}
	return nil
}
