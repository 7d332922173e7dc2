package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/backkem/vap-registry/pkg/transport"
	"github.com/backkem/vap-registry/pkg/wire"
)

func TestOutboundProbeOmitsTransportFailures(t *testing.T) {
	pipe := transport.NewPipe()
	defer pipe.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go pipe.Side1().Serve(ctx, func(ctx context.Context, req transport.Request) *transport.Response {
		return &transport.Response{Status: wire.StatusMethodNotAllowed}
	})

	client := newOutboundClient(pipe.Side0(), newProbeTable(), newInvocationTable(), nil)
	answers := client.Probe(ctx, []string{"broken-skill"}, wire.RequestData{}, wire.ClientData{})
	if len(answers) != 0 {
		t.Errorf("Probe() = %+v, want no answers for a rejected exchange", answers)
	}
}

func TestOutboundActivateReturnsErrorOnUnexpectedStatus(t *testing.T) {
	pipe := transport.NewPipe()
	defer pipe.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go pipe.Side1().Serve(ctx, func(ctx context.Context, req transport.Request) *transport.Response {
		return &transport.Response{Status: wire.StatusBadRequest}
	})

	client := newOutboundClient(pipe.Side0(), newProbeTable(), newInvocationTable(), nil)
	_, _, err := client.Activate(ctx, "skill", wire.MsgSkillRequest{})
	if !errors.Is(err, transport.ErrUnexpectedStatus) {
		t.Fatalf("Activate() error = %v, want ErrUnexpectedStatus", err)
	}
}
