package registry

import (
	"context"
	"strings"

	"github.com/backkem/vap-registry/pkg/transport"
	"github.com/backkem/vap-registry/pkg/wire"
	"github.com/pion/logging"
)

// wellKnownCore is the fixed discovery payload spec.md §4.C and §6
// require GET .well-known/core to return.
const wellKnownCore = `</vap>;rt="vap-skill-registry"`

// dispatcher is spec.md §4.C's inbound dispatcher: it classifies every
// inbound transport.Request by (method, path), decodes its payload, and
// either short-circuits against the correlation tables (component D) or
// forwards a decoded event to the upper layer and waits for its reply
// (component F).
type dispatcher struct {
	events      *EventStream
	probes      *probeTable
	invocations *invocationTable
	log         logging.LeveledLogger
}

func newDispatcher(events *EventStream, probes *probeTable, invocations *invocationTable, log logging.LeveledLogger) *dispatcher {
	return &dispatcher{events: events, probes: probes, invocations: invocations, log: log}
}

// Handle implements transport.Handler. It always returns a non-nil
// *transport.Response except when the upper layer declines to answer a
// forwarded event, or ctx is done before it answers (spec.md §4.C: "Terminal state always emits exactly one
// transport response (or none if the caller supplied no response
// token).").
func (d *dispatcher) Handle(ctx context.Context, req transport.Request) *transport.Response {
	switch req.Method {
	case transport.MethodGet:
		return d.handleGet(ctx, req)
	case transport.MethodPost:
		return d.handlePost(ctx, req)
	case transport.MethodPut:
		// Generic plumbing per spec.md's supplemented-feature notes: an
		// inbound PUT on a skill path is acknowledged so an observe update
		// is produced, and is not otherwise interpreted; a PUT on any other
		// path is method-not-allowed. Real skill activation is the
		// hub-initiated PUT issued by OutboundClient.Activate.
		if !strings.HasPrefix(req.Path, "vap/skillRegistry/skills/") {
			return methodNotAllowed()
		}
		return &transport.Response{Status: wire.StatusValid}
	case transport.MethodDelete:
		return d.handleDelete(ctx, req)
	default:
		return methodNotAllowed()
	}
}

func (d *dispatcher) handleGet(ctx context.Context, req transport.Request) *transport.Response {
	switch {
	case strings.HasPrefix(req.Path, "vap/skillRegistry/skills/"):
		// Dead-but-documented: this path is the one the hub's own
		// OutboundClient issues GETs against on a skill's endpoint; an
		// inbound GET for the same path shape is answered content/empty
		// and otherwise ignored.
		return &transport.Response{Status: wire.StatusContent}
	case req.Path == "vap/skillRegistry/query":
		msg, err := wire.DecodeMsgQuery(req.Payload)
		if err != nil {
			return decodeError(err)
		}
		return d.forward(ctx, Event{Kind: EventQuery, Query: msg})
	case req.Path == ".well-known/core":
		return &transport.Response{Status: wire.StatusContent, Payload: []byte(wellKnownCore)}
	case strings.HasPrefix(req.Path, "vap/request/"):
		// Transport-level observe bookkeeping (spec.md §6); the core does
		// not enforce the "only the same skill is asking" constraint
		// mentioned in spec.md §9 — treated as a known gap, not a
		// contract.
		return &transport.Response{Status: wire.StatusValid}
	default:
		return methodNotAllowed()
	}
}

func (d *dispatcher) handlePost(ctx context.Context, req transport.Request) *transport.Response {
	switch req.Path {
	case "vap/skillRegistry/connect":
		msg, err := wire.DecodeMsgConnect(req.Payload)
		if err != nil {
			return decodeError(err)
		}
		return d.forward(ctx, Event{Kind: EventConnect, Connect: msg})
	case "vap/skillRegistry/registerIntents":
		msg, err := wire.DecodeMsgRegisterIntents(req.Payload)
		if err != nil {
			return decodeError(err)
		}
		return d.forward(ctx, Event{Kind: EventRegisterIntents, RegisterIntents: msg})
	case "vap/skillRegistry/notification":
		msg, err := wire.DecodeMsgNotification(req.Payload)
		if err != nil {
			return decodeError(err)
		}
		return d.resolveNotification(ctx, msg)
	default:
		return methodNotAllowed()
	}
}

func (d *dispatcher) handleDelete(ctx context.Context, req transport.Request) *transport.Response {
	if !strings.HasPrefix(req.Path, "vap/skillRegistry/skills/") {
		return methodNotAllowed()
	}
	msg, err := wire.DecodeMsgSkillClose(req.Payload)
	if err != nil {
		return decodeError(err)
	}
	return d.forward(ctx, Event{Kind: EventClose, Close: msg})
}

// forward sends event to the upper layer and lifts its reply onto the
// transport response. A nil return propagates the upper layer's decline
// (spec.md §4.F) as a suppressed transport response.
func (d *dispatcher) forward(ctx context.Context, event Event) *transport.Response {
	reply, err := d.events.send(ctx, event)
	if err != nil {
		if d.log != nil {
			d.log.Debugf("event declined or cancelled: %v", err)
		}
		return nil
	}
	return &transport.Response{Status: reply.Status, Payload: reply.Payload}
}

func decodeError(err error) *transport.Response {
	return &transport.Response{Status: wire.StatusForDecodeError(err)}
}

func methodNotAllowed() *transport.Response {
	return &transport.Response{Status: wire.StatusMethodNotAllowed}
}
