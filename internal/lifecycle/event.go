package lifecycle

import (
	"time"

	"github.com/google/uuid"
)

const EventStatusChanged = "request.status_changed"

// Event announces a committed status change.
type Event struct {
	Type       string    `json:"type"`
	RequestID  uuid.UUID `json:"request_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	From       Status    `json:"from"`
	To         Status    `json:"to"`
	At         time.Time `json:"at"`
}

func NewEvent(requestID, employeeID uuid.UUID, from, to Status) Event {
	return Event{
		Type:       EventStatusChanged,
		RequestID:  requestID,
		EmployeeID: employeeID,
		From:       from,
		To:         to,
		At:         time.Now().UTC(),
	}
}
