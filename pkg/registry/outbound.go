package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/backkem/vap-registry/pkg/transport"
	"github.com/backkem/vap-registry/pkg/wire"
	"github.com/pion/logging"
)

// InvocationReplySlot is the "inner" one-shot spec.md §4.D rule 2
// describes: the handle an OutboundClient.Activate caller uses to report
// the terminal status of an activation back to the notification resolver
// once it has applied the skill's capabilities.
type InvocationReplySlot struct {
	ch   chan invocationReply
	once sync.Once
}

// Fulfill reports the terminal status code (0..65535). Subsequent calls
// are no-ops.
func (s *InvocationReplySlot) Fulfill(code uint16) {
	s.once.Do(func() {
		s.ch <- invocationReply{Code: code}
		close(s.ch)
	})
}

// OutboundClient is spec.md §4.E's outbound client: it sends probes and
// activation requests to named skills over a transport.Endpoint and
// registers a waiter in the appropriate correlation table.
//
// The endpoint models one addressable peer path, matching the original
// implementation's single CoAP client; mapping a skill id to a network
// location is left to the embedder (spec.md §1 puts discovery out of
// scope), so in a multi-skill deployment the supplied Endpoint is expected
// to route by the "vap/skillRegistry/skills/{id}" path itself.
type OutboundClient struct {
	endpoint    transport.Endpoint
	probes      *probeTable
	invocations *invocationTable
	ids         *idAllocator
	log         logging.LeveledLogger
}

func newOutboundClient(endpoint transport.Endpoint, probes *probeTable, invocations *invocationTable, log logging.LeveledLogger) *OutboundClient {
	return &OutboundClient{
		endpoint:    endpoint,
		probes:      probes,
		invocations: invocations,
		ids:         &idAllocator{},
		log:         log,
	}
}

// Probe asks whether each of skillIDs can answer request on behalf of
// client, in list order (spec.md §4.E: "Skills are probed sequentially in
// list order; concurrent probing is permitted by implementations but not
// required."). A skill whose transport exchange fails is logged and
// omitted from the result, per spec.md §7's TransportError handling.
func (c *OutboundClient) Probe(ctx context.Context, skillIDs []string, request wire.RequestData, client wire.ClientData) []wire.MsgNotification {
	answers := make([]wire.MsgNotification, 0, len(skillIDs))
	for _, id := range skillIDs {
		notif, err := c.probeOne(ctx, id, request, client)
		if err != nil {
			if c.log != nil {
				c.log.Warnf("probe %s failed: %v", id, err)
			}
			continue
		}
		answers = append(answers, notif)
	}
	return answers
}

func (c *OutboundClient) probeOne(ctx context.Context, skillID string, request wire.RequestData, client wire.ClientData) (wire.MsgNotification, error) {
	requestID := c.ids.allocate()
	waiter := c.probes.insert(requestID)

	msg := wire.MsgSkillRequest{Client: client, RequestID: requestID, Request: request}
	resp, err := c.endpoint.Do(ctx, transport.Request{
		Method:  transport.MethodGet,
		Path:    fmt.Sprintf("vap/skillRegistry/skills/%s", skillID),
		Payload: msg.Encode(),
	})
	if err != nil {
		c.probes.take(requestID) // revert the insert; this exchange never happened
		return wire.MsgNotification{}, err
	}
	if resp.Status != wire.StatusValid {
		c.probes.take(requestID)
		return wire.MsgNotification{}, fmt.Errorf("%w: got %s", transport.ErrUnexpectedStatus, resp.Status)
	}

	select {
	case <-ctx.Done():
		return wire.MsgNotification{}, ctx.Err()
	case confidence, ok := <-waiter:
		if !ok {
			return wire.MsgNotification{}, ErrChannelClosed
		}
		return wire.MsgNotification{
			SkillID: skillID,
			Data: []wire.NotificationItem{
				{Kind: wire.NotifyCanYouAnswer, RequestID: requestID, Confidence: confidence},
			},
		}, nil
	}
}

// Activate asks skillID to execute skillRequest, returning the
// capabilities it wishes to perform and a slot the caller uses to report
// the terminal status back once it has applied them.
func (c *OutboundClient) Activate(ctx context.Context, skillID string, skillRequest wire.MsgSkillRequest) ([]wire.Capability, *InvocationReplySlot, error) {
	requestID := c.ids.allocate()
	skillRequest.RequestID = requestID
	waiter := c.invocations.insert(requestID)

	resp, err := c.endpoint.Do(ctx, transport.Request{
		Method:  transport.MethodPut,
		Path:    fmt.Sprintf("vap/skillRegistry/skills/%s", skillID),
		Payload: skillRequest.Encode(),
	})
	if err != nil {
		c.invocations.take(requestID)
		return nil, nil, err
	}
	if resp.Status != wire.StatusContent {
		c.invocations.take(requestID)
		return nil, nil, fmt.Errorf("%w: got %s", transport.ErrUnexpectedStatus, resp.Status)
	}

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case result, ok := <-waiter:
		if !ok {
			return nil, nil, ErrChannelClosed
		}
		return result.Capabilities, &InvocationReplySlot{ch: result.Inner}, nil
	}
}
