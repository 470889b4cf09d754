package lifecycle

import (
	"fmt"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/apperr"
)

// Status is the lifecycle position of an asset request. The string values are the stored column values.
type Status string

const (
	StatusPending           Status = "Pending"
	StatusApproved          Status = "Approved"
	StatusRejected          Status = "Rejected"
	StatusQuotationSelected Status = "Quotation Selected"
	StatusPurchaseOrderSent Status = "Purchase Order Sent"
	StatusAssetReceived     Status = "Asset Received"
	StatusCompleted         Status = "Completed"
)

// All lists every status in lifecycle order.
var All = []Status{
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusQuotationSelected,
	StatusPurchaseOrderSent,
	StatusAssetReceived,
	StatusCompleted,
}

// transitions is the only place forward edges are declared.
var transitions = map[Status][]Status{
	StatusPending:           {StatusApproved, StatusRejected},
	StatusApproved:          {StatusQuotationSelected},
	StatusQuotationSelected: {StatusPurchaseOrderSent},
	StatusPurchaseOrderSent: {StatusAssetReceived},
	StatusAssetReceived:     {StatusCompleted},
}

// rank orders the main line of the lifecycle. Rejected branches off Pending.
var rank = map[Status]int{
	StatusPending:           0,
	StatusApproved:          1,
	StatusRejected:          1,
	StatusQuotationSelected: 2,
	StatusPurchaseOrderSent: 3,
	StatusAssetReceived:     4,
	StatusCompleted:         5,
}

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	_, ok := rank[s]
	return ok
}

func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// Parse converts a stored or user supplied value into a Status.
func Parse(v string) (Status, error) {
	s := Status(v)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown request status %q", v)
	}
	return s, nil
}

// CanTransition reports whether to is a declared successor of s.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Next returns the declared successors of s.
func (s Status) Next() []Status {
	out := make([]Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// Reached reports whether s is on the main line at or past target. Rejected never reaches anything past Pending.
func (s Status) Reached(target Status) bool {
	if s == StatusRejected || target == StatusRejected {
		return s == target
	}
	return s.IsValid() && target.IsValid() && rank[s] >= rank[target]
}

// QuotationsLocked reports whether quotations of a request in status s are frozen.
// They stay editable only before a final quotation is chosen.
func (s Status) QuotationsLocked() bool {
	return s != StatusPending && s != StatusApproved
}

// Transition validates the edge from -> to and returns an InvalidTransition error when it is not declared.
func Transition(op string, from, to Status) error {
	if from.CanTransition(to) {
		return nil
	}
	if from.IsTerminal() {
		return apperr.InvalidTransition(op, "request is already %s", from)
	}
	return apperr.InvalidTransition(op, "cannot move request from %q to %q", from, to)
}
