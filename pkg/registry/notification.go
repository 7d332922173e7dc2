package registry

import (
	"context"
	"sync"

	"github.com/backkem/vap-registry/pkg/transport"
	"github.com/backkem/vap-registry/pkg/wire"
)

// resolveNotification implements spec.md §4.D: classify each sub-item of
// msg independently, resolve probes and invocations against the
// correlation tables, collect stand-alone items into one batch, and
// assemble the transport response once everything in flight has settled.
//
// Ordering guarantee: joined holds one ResponseItem per non-stand-alone
// sub-item, appended in input order, so the assembled
// MsgNotificationResponse preserves that order even though in-flight
// (Requested) items resolve out of order relative to immediately-resolved
// (CanYouAnswer) ones.
func (d *dispatcher) resolveNotification(ctx context.Context, msg wire.MsgNotification) *transport.Response {
	// inFlight tracks a Requested sub-item whose capabilities have been
	// handed to the original activate() caller; joined[index] is filled in
	// once that caller reports the terminal status on inner.
	type inFlightItem struct {
		index     int
		requestID wire.RequestId
		inner     chan invocationReply
	}

	joined := make([]wire.ResponseItem, 0, len(msg.Data))
	var standalone []NotificationData
	var inFlight []inFlightItem

	for _, item := range msg.Data {
		switch item.Kind {
		case wire.NotifyCanYouAnswer:
			code := wire.StatusBadRequest
			if ch, ok := d.probes.take(item.RequestID); ok {
				ch <- item.Confidence
				close(ch)
				code = wire.StatusValid
			}
			joined = append(joined, wire.ResponseItem{
				Kind: wire.NotifyCanYouAnswer, Code: uint16(code), RequestID: item.RequestID,
			})

		case wire.NotifyRequested:
			if ch, ok := d.invocations.take(item.RequestID); ok {
				inner := make(chan invocationReply, 1)
				ch <- pendingInvocationResult{Capabilities: item.Capabilities, Inner: inner}
				index := len(joined)
				joined = append(joined, wire.ResponseItem{}) // filled in once inner resolves
				inFlight = append(inFlight, inFlightItem{index: index, requestID: item.RequestID, inner: inner})
			} else {
				joined = append(joined, wire.ResponseItem{
					Kind: wire.NotifyRequested, Code: uint16(wire.StatusBadRequest), RequestID: item.RequestID,
				})
			}

		case wire.NotifyStandAlone:
			standalone = append(standalone, NotificationData{ClientID: item.ClientID, Capabilities: item.Capabilities})
		}
	}

	if len(standalone) > 0 {
		resp := d.forward(ctx, Event{
			Kind:         EventNotification,
			Notification: Notification{SkillID: msg.SkillID, Data: standalone},
		})
		// The in-flight Requested waiters are still driven to completion,
		// but per spec.md §4.D / §9 their codes are not reflected in this
		// particular transport response — a known, specified limitation.
		for _, f := range inFlight {
			go awaitInvocationReply(ctx, f.inner)
		}
		return resp
	}

	var wg sync.WaitGroup
	wg.Add(len(inFlight))
	for _, f := range inFlight {
		go func(f inFlightItem) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				joined[f.index] = wire.ResponseItem{Kind: wire.NotifyRequested, RequestID: f.requestID}
			case reply, ok := <-f.inner:
				if !ok {
					joined[f.index] = wire.ResponseItem{Kind: wire.NotifyRequested, RequestID: f.requestID}
					return
				}
				joined[f.index] = wire.ResponseItem{Kind: wire.NotifyRequested, Code: reply.Code, RequestID: f.requestID}
			}
		}(f)
	}
	wg.Wait()

	return &transport.Response{
		Status:  wire.StatusValid,
		Payload: wire.MsgNotificationResponse{Data: joined}.Encode(),
	}
}

func awaitInvocationReply(ctx context.Context, inner chan invocationReply) {
	select {
	case <-ctx.Done():
	case <-inner:
	}
}
