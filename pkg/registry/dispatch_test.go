package registry

import (
	"context"
	"testing"

	"github.com/backkem/vap-registry/pkg/transport"
	"github.com/backkem/vap-registry/pkg/wire"
)

func newTestDispatcher() (*dispatcher, *EventStream) {
	events := NewEventStream(0)
	d := newDispatcher(events, newProbeTable(), newInvocationTable(), nil)
	return d, events
}

func TestHandleUnknownRouteIsMethodNotAllowed(t *testing.T) {
	d, _ := newTestDispatcher()
	resp := d.Handle(context.Background(), transport.Request{Method: transport.MethodGet, Path: "nonsense"})
	if resp.Status != wire.StatusMethodNotAllowed {
		t.Errorf("Status = %v, want method-not-allowed", resp.Status)
	}
}

func TestHandleWellKnownCore(t *testing.T) {
	d, _ := newTestDispatcher()
	resp := d.Handle(context.Background(), transport.Request{Method: transport.MethodGet, Path: ".well-known/core"})
	if resp.Status != wire.StatusContent {
		t.Fatalf("Status = %v, want content", resp.Status)
	}
	if string(resp.Payload) != wellKnownCore {
		t.Errorf("Payload = %q, want %q", resp.Payload, wellKnownCore)
	}
}

func TestHandleConnectForwardsToEventStream(t *testing.T) {
	d, events := newTestDispatcher()
	ctx := context.Background()

	done := make(chan *transport.Response, 1)
	go func() {
		msg := wire.MsgConnect{ID: "weather", Capabilities: []string{"text"}}
		done <- d.Handle(ctx, transport.Request{Method: transport.MethodPost, Path: "vap/skillRegistry/connect", Payload: msg.Encode()})
	}()

	event, slot, err := events.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	if event.Kind != EventConnect || event.Connect.ID != "weather" {
		t.Fatalf("event = %+v, want connect for weather", event)
	}
	slot.Fulfill(Reply{Status: wire.StatusValid})

	resp := <-done
	if resp.Status != wire.StatusValid {
		t.Errorf("Status = %v, want valid", resp.Status)
	}
}

func TestHandleConnectMalformedPayload(t *testing.T) {
	d, _ := newTestDispatcher()
	resp := d.Handle(context.Background(), transport.Request{
		Method:  transport.MethodPost,
		Path:    "vap/skillRegistry/connect",
		Payload: []byte{0xff},
	})
	if resp.Status != wire.StatusBadRequest {
		t.Errorf("Status = %v, want bad-request", resp.Status)
	}
}

func TestHandleDeclinedEventSuppressesResponse(t *testing.T) {
	d, events := newTestDispatcher()
	ctx := context.Background()

	done := make(chan *transport.Response, 1)
	go func() {
		msg := wire.MsgSkillClose{ID: "weather"}
		done <- d.Handle(ctx, transport.Request{Method: transport.MethodDelete, Path: "vap/skillRegistry/skills/weather", Payload: msg.Encode()})
	}()

	_, slot, err := events.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	slot.Decline()

	if resp := <-done; resp != nil {
		t.Errorf("Handle() = %+v, want nil (suppressed)", resp)
	}
}

func TestHandleDeleteWrongPrefixIsMethodNotAllowed(t *testing.T) {
	d, _ := newTestDispatcher()
	resp := d.Handle(context.Background(), transport.Request{Method: transport.MethodDelete, Path: "vap/other"})
	if resp.Status != wire.StatusMethodNotAllowed {
		t.Errorf("Status = %v, want method-not-allowed", resp.Status)
	}
}
