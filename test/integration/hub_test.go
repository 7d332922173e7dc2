// Package integration exercises the registry hub and an echo skill
// together over the in-memory reference transport, the way backkem-matter's
// own test/integration package exercises a commissioned device/controller
// pair over its reference transport.
package integration

import (
	"context"
	"testing"
	"time"

	echoskill "github.com/backkem/vap-registry/examples/echo-skill"
	"github.com/backkem/vap-registry/pkg/registry"
	"github.com/backkem/vap-registry/pkg/transport"
	"github.com/backkem/vap-registry/pkg/wire"
)

// hubPair bundles a running hub and a connected echo skill for one test.
type hubPair struct {
	inbound  *registry.Inbound
	events   *registry.EventStream
	outbound *registry.OutboundClient
	pipe     *transport.Pipe
	cancel   context.CancelFunc
}

func newHubPair(t *testing.T, skillID string) (*hubPair, context.Context) {
	t.Helper()

	pipe := transport.NewPipe()
	t.Cleanup(func() { pipe.Close() })

	inbound, events, outbound := registry.New(registry.Config{Endpoint: pipe.Side0()})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go inbound.Serve(ctx)

	skill := echoskill.New(skillID, pipe.Side1())
	go skill.Run(ctx)

	return &hubPair{inbound: inbound, events: events, outbound: outbound, pipe: pipe, cancel: cancel}, ctx
}

// drainOneEvent answers the next event on the façade with a minimal valid
// reply, returning the event so tests can assert on arrival order.
func drainOneEvent(t *testing.T, ctx context.Context, events *registry.EventStream) registry.Event {
	t.Helper()
	event, slot, err := events.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	slot.Fulfill(registry.Reply{Status: wire.StatusValid})
	return event
}

func TestConnectAndRegisterIntentsReachUpperLayer(t *testing.T) {
	pair, ctx := newHubPair(t, "echo")

	connect := drainOneEvent(t, ctx, pair.events)
	if connect.Kind != registry.EventConnect || connect.Connect.ID != "echo" {
		t.Fatalf("first event = %+v, want connect for echo", connect)
	}

	register := drainOneEvent(t, ctx, pair.events)
	if register.Kind != registry.EventRegisterIntents || register.RegisterIntents.SkillID != "echo" {
		t.Fatalf("second event = %+v, want registerIntents for echo", register)
	}
	if len(register.RegisterIntents.NluData) != 1 || register.RegisterIntents.NluData[0].Language != "en-US" {
		t.Errorf("NluData = %+v", register.RegisterIntents.NluData)
	}
}

func TestProbeAndActivateRoundTrip(t *testing.T) {
	pair, ctx := newHubPair(t, "echo")

	go func() {
		drainOneEvent(t, ctx, pair.events) // connect
		drainOneEvent(t, ctx, pair.events) // registerIntents
	}()

	// Give the skill a moment to connect and register before probing it.
	time.Sleep(50 * time.Millisecond)

	request := wire.RequestData{Value: wire.Value{Kind: wire.KindString, Str: "say hi"}}
	client := wire.ClientData{Value: wire.Value{Kind: wire.KindString, Str: "tester"}}

	answers := pair.outbound.Probe(ctx, []string{"echo"}, request, client)
	if len(answers) != 1 {
		t.Fatalf("Probe() returned %d answers, want 1", len(answers))
	}
	if got := answers[0].Data[0].Confidence; got != echoskill.Confidence {
		t.Errorf("confidence = %v, want %v", got, echoskill.Confidence)
	}

	caps, slot, err := pair.outbound.Activate(ctx, "echo", wire.MsgSkillRequest{Request: request, Client: client})
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if len(caps) != 1 || caps[0].Kind != "text" {
		t.Fatalf("Activate() capabilities = %+v", caps)
	}
	slot.Fulfill(uint16(wire.StatusValid))
}

func TestUnknownRouteIsMethodNotAllowedWithoutReachingUpperLayer(t *testing.T) {
	pipe := transport.NewPipe()
	defer pipe.Close()

	inbound, events, _ := registry.New(registry.Config{Endpoint: pipe.Side0()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go inbound.Serve(ctx)

	// Nothing should ever be sent to events for an unroutable request; a
	// background drain that calls t.Error if it fires proves that.
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-ctx.Done():
		default:
			_, slot, err := events.Recv(ctx)
			if err == nil {
				slot.Fulfill(registry.Reply{Status: wire.StatusValid})
				t.Error("unexpected event delivered for an unroutable request")
			}
		}
	}()

	resp, err := pipe.Side1().Do(ctx, transport.Request{Method: transport.MethodGet, Path: "vap/nonsense"})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if resp.Status != wire.StatusMethodNotAllowed {
		t.Errorf("Status = %v, want method-not-allowed", resp.Status)
	}

	cancel()
	<-done
}
