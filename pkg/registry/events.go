package registry

import (
	"context"
	"sync"

	"github.com/backkem/vap-registry/pkg/wire"
)

// EventKind discriminates the variants of Event delivered to the upper
// layer.
type EventKind int

const (
	EventConnect EventKind = iota
	EventRegisterIntents
	EventNotification
	EventQuery
	EventClose
)

// NotificationData is one stand-alone output item, as delivered to the
// upper layer by the notification resolver.
type NotificationData struct {
	ClientID     string
	Capabilities []wire.Capability
}

// Notification is the event the upper layer sees for a batch of
// stand-alone notification items from one skill.
type Notification struct {
	SkillID string
	Data    []NotificationData
}

// Event is one decoded protocol event crossing the façade.
type Event struct {
	Kind            EventKind
	Connect         wire.MsgConnect
	RegisterIntents wire.MsgRegisterIntents
	Notification    Notification
	Query           wire.MsgQuery
	Close           wire.MsgSkillClose
}

// Reply is what the upper layer hands back to fulfil an Event.
type Reply struct {
	Status  wire.Status
	Payload []byte
}

// ReplySlot is a one-shot reply channel paired with an Event. Exactly one
// of Fulfill or Decline may be called, and only once; calling neither
// leaves the producer's transport handler awaiting until its context is
// done.
type ReplySlot struct {
	ch   chan Reply
	once sync.Once
}

func newReplySlot() *ReplySlot {
	return &ReplySlot{ch: make(chan Reply, 1)}
}

// Fulfill answers the event with r. Subsequent calls (Fulfill or Decline)
// are no-ops.
func (s *ReplySlot) Fulfill(r Reply) {
	s.once.Do(func() {
		s.ch <- r
		close(s.ch)
	})
}

// Decline drops the slot without answering: the transport response is
// suppressed.
func (s *ReplySlot) Decline() {
	s.once.Do(func() {
		close(s.ch)
	})
}

// EventStream is the bounded façade spec.md §3 and §4.F describe: a
// multi-producer, single-consumer queue of (Event, ReplySlot) pairs.
// Producers (the inbound dispatcher) block when the queue is full,
// applying back-pressure to the transport handler; the upper layer drains
// it with Recv.
type EventStream struct {
	ch chan eventEnvelope
}

type eventEnvelope struct {
	event Event
	slot  *ReplySlot
}

// DefaultQueueCapacity is spec.md §3's suggested bound.
const DefaultQueueCapacity = 20

// NewEventStream creates a façade with the given capacity. capacity <= 0
// uses DefaultQueueCapacity.
func NewEventStream(capacity int) *EventStream {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &EventStream{ch: make(chan eventEnvelope, capacity)}
}

// Recv blocks for the next event, or until ctx is done.
func (s *EventStream) Recv(ctx context.Context) (Event, *ReplySlot, error) {
	select {
	case <-ctx.Done():
		return Event{}, nil, ctx.Err()
	case env, ok := <-s.ch:
		if !ok {
			return Event{}, nil, ErrClosed
		}
		return env.event, env.slot, nil
	}
}

// Close stops further delivery. A send that is blocked on the queue when
// Close runs, or that starts after it, panics on the closed channel, so
// every producer must have stopped sending before Close is called.
func (s *EventStream) Close() {
	close(s.ch)
}

// send enqueues event and awaits its reply, or ctx cancellation. It is
// unexported: only the inbound dispatcher (component C) and notification
// resolver (component D) produce events.
func (s *EventStream) send(ctx context.Context, event Event) (Reply, error) {
	slot := newReplySlot()
	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case s.ch <- eventEnvelope{event: event, slot: slot}:
	}

	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case r, ok := <-slot.ch:
		if !ok {
			return Reply{}, ErrChannelClosed
		}
		return r, nil
	}
}
