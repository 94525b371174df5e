package command

import "github.com/louisbranch/galley/internal/domain/event"

// Decision is the outcome of deciding a command: the events to append,
// or the reasons the command was declined, never both.
type Decision struct {
	Events     []event.Event
	Rejections []Rejection
}

// Rejection captures a domain-level reason a command was declined.
type Rejection struct {
	Code    string
	Message string
}

// Rejected reports whether the decision declined the command.
func (d Decision) Rejected() bool {
	return len(d.Rejections) > 0
}

// Accept returns a decision that emits the provided events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// Reject returns a decision that carries the provided rejections.
func Reject(rejections ...Rejection) Decision {
	return Decision{Rejections: append([]Rejection(nil), rejections...)}
}

// RejectWith returns a decision declined for a single coded reason.
func RejectWith(code, message string) Decision {
	return Reject(Rejection{Code: code, Message: message})
}
