package registry

import (
	"context"

	"github.com/backkem/vap-registry/pkg/transport"
	"github.com/pion/logging"
)

// Config bundles what New needs to assemble a registry hub.
type Config struct {
	// Endpoint carries both directions: inbound skill requests are served
	// on it, and OutboundClient issues its probe/activate calls over the
	// same endpoint (spec.md §1, §4.E — mirroring the original
	// implementation's single bound CoAP client).
	Endpoint transport.Endpoint

	// QueueCapacity bounds the event façade (spec.md §3). Zero uses
	// DefaultQueueCapacity.
	QueueCapacity int

	// LoggerFactory builds the leveled loggers used by the dispatcher and
	// outbound client. A nil factory disables logging, matching the
	// pion/logging convention this hub's teacher uses throughout.
	LoggerFactory logging.LoggerFactory
}

// Inbound serves decoded protocol events out of a bound transport.Endpoint
// until its context is cancelled or the endpoint is closed.
type Inbound struct {
	endpoint transport.Endpoint
	dispatch *dispatcher
}

// Serve blocks, handling inbound requests, until ctx is done or the
// underlying endpoint closes.
func (i *Inbound) Serve(ctx context.Context) error {
	return i.endpoint.Serve(ctx, i.dispatch.Handle)
}

// New assembles the three collaborators that make up a registry hub:
//
//   - Inbound decodes transport requests into Events and serves the
//     correlation-table short-circuits (probe/activate replies) itself.
//   - EventStream is the consumer handle the upper layer drains for
//     everything Inbound could not resolve on its own (connect, register
//     intents, queries, closes, and stand-alone notifications).
//   - OutboundClient issues probe/activate requests to skills and
//     populates the same correlation tables Inbound's dispatcher consults.
func New(cfg Config) (*Inbound, *EventStream, *OutboundClient) {
	var dispatchLog, outboundLog logging.LeveledLogger
	if cfg.LoggerFactory != nil {
		dispatchLog = cfg.LoggerFactory.NewLogger("registry")
		outboundLog = cfg.LoggerFactory.NewLogger("registry-out")
	}

	probes := newProbeTable()
	invocations := newInvocationTable()
	events := NewEventStream(cfg.QueueCapacity)

	dispatch := newDispatcher(events, probes, invocations, dispatchLog)
	inbound := &Inbound{endpoint: cfg.Endpoint, dispatch: dispatch}
	outbound := newOutboundClient(cfg.Endpoint, probes, invocations, outboundLog)

	return inbound, events, outbound
}
