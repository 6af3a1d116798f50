package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "leadbook/pkg/domain-errors"
)

// Action is what produced a history entry.
type Action string

const (
	ActionCreated  Action = "created"
	ActionImported Action = "imported"
	ActionUpdated  Action = "updated"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionCreated, ActionImported, ActionUpdated:
		return true
	}
	return false
}

// Change is one field's before and after value.
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Diff maps field name to its change. An empty Diff means nothing changed.
type Diff map[string]Change

// HistoryEntry is an append-only audit record of a buyer mutation.
type HistoryEntry struct {
	ID        string    `json:"id"`
	BuyerID   string    `json:"buyerId"`
	ChangedBy string    `json:"changedBy"`
	ChangedAt time.Time `json:"changedAt"`
	Action    Action    `json:"action"`
	Changes   Diff      `json:"changes,omitempty"`
}

// NewHistoryEntry creates a HistoryEntry with domain invariant validation.
// Updates must carry a non-empty diff; created and imported entries carry none.
func NewHistoryEntry(buyerID, changedBy string, action Action, changes Diff, at time.Time) (*HistoryEntry, error) {
	if buyerID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "history entry requires a buyer id")
	}
	if changedBy == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "history entry requires an actor")
	}
	if !action.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid history action")
	}
	if action == ActionUpdated && len(changes) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "update history entry requires changes")
	}
	if action != ActionUpdated {
		changes = nil
	}
	return &HistoryEntry{
		ID:        uuid.NewString(),
		BuyerID:   buyerID,
		ChangedBy: changedBy,
		ChangedAt: at,
		Action:    action,
		Changes:   changes,
	}, nil
}
