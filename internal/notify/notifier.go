package notify

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Event names pushed to connected dashboard clients.
const (
	EventApprovalCreated = "approval.created"
	EventApprovalDecided = "approval.decided"
)

// Event is the wire payload for an approval lifecycle notification.
type Event struct {
	Event      string `json:"event"`
	ApprovalID string `json:"approval_id"`
	TenantID   string `json:"tenant_id"`
	Status     string `json:"status,omitempty"`
	Priority   string `json:"priority,omitempty"`
	Title      string `json:"title,omitempty"`
}

// Notifier is the best-effort notification sink. Implementations must never
// block the caller and must never fail the surrounding operation.
type Notifier interface {
	ApprovalCreated(ev Event)
	ApprovalDecided(ev Event)
}

// Broadcast pushes events to the websocket hub. Sends are non-blocking: if
// the hub's channel is full the event is dropped and logged.
type Broadcast struct {
	ch  chan<- []byte
	log *logrus.Logger
}

func NewBroadcast(ch chan<- []byte, log *logrus.Logger) *Broadcast {
	return &Broadcast{ch: ch, log: log}
}

func (b *Broadcast) ApprovalCreated(ev Event) {
	ev.Event = EventApprovalCreated
	b.send(ev)
}

func (b *Broadcast) ApprovalDecided(ev Event) {
	ev.Event = EventApprovalDecided
	b.send(ev)
}

func (b *Broadcast) send(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.log.WithError(err).Warn("notification payload marshal failed")
		return
	}
	select {
	case b.ch <- payload:
	default:
		b.log.WithField("event", ev.Event).Warn("notification channel full, event dropped")
	}
}

// Noop discards all events. Used in tests and when no hub is wired.
type Noop struct{}

func (Noop) ApprovalCreated(Event) {}
func (Noop) ApprovalDecided(Event) {}
