// vap-registry-hub runs the skill registry broker against an in-process
// echo skill and walks through one probe/activate cycle end to end,
// logging every event and reply along the way.
//
// Usage:
//
//	vap-registry-hub [options]
//
// Options:
//
//	-queue-cap  event façade capacity (default: 20)
//	-log-level  trace|debug|info|warn|error (default: info)
//	-nlu-dir    directory of per-language NLU declaration files the demo
//	            skill registers instead of its built-in intent
//
// Binding the hub to a real constrained-network listener is an embedder
// concern this binary does not take a position on (spec.md §1 puts
// transport and discovery out of scope): it wires the broker and a skill
// to opposite ends of the package's in-memory reference transport
// instead, so the full message flow can be exercised without external
// dependencies.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	echoskill "github.com/backkem/vap-registry/examples/echo-skill"
	"github.com/backkem/vap-registry/pkg/nluconfig"
	"github.com/backkem/vap-registry/pkg/registry"
	"github.com/backkem/vap-registry/pkg/transport"
	"github.com/backkem/vap-registry/pkg/wire"
	"github.com/pion/logging"
)

// Options holds the standard CLI flags for the hub binary.
type Options struct {
	QueueCapacity int
	LogLevel      string
	SkillID       string
	NluDir        string
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		QueueCapacity: registry.DefaultQueueCapacity,
		LogLevel:      "info",
		SkillID:       "echo",
	}
}

// ParseFlags parses os.Args into Options.
func ParseFlags() Options {
	opts := DefaultOptions()
	flag.IntVar(&opts.QueueCapacity, "queue-cap", opts.QueueCapacity, "event façade capacity")
	flag.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "trace|debug|info|warn|error")
	flag.StringVar(&opts.SkillID, "skill-id", opts.SkillID, "id the demo skill connects as")
	flag.StringVar(&opts.NluDir, "nlu-dir", opts.NluDir, "directory of per-language NLU declaration files for the demo skill")
	flag.Parse()
	return opts
}

func main() {
	opts := ParseFlags()

	factory := logging.NewDefaultLoggerFactory()
	factory.DefaultLogLevel = parseLogLevel(opts.LogLevel)
	log.SetFlags(0)

	pipe := transport.NewPipe()
	defer pipe.Close()

	inbound, events, outbound := registry.New(registry.Config{
		Endpoint:      pipe.Side0(),
		QueueCapacity: opts.QueueCapacity,
		LoggerFactory: factory,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := inbound.Serve(ctx); err != nil && ctx.Err() == nil {
			log.Printf("serve: %v", err)
		}
	}()

	skill := echoskill.New(opts.SkillID, pipe.Side1())
	if opts.NluDir != "" {
		langs, err := nluconfig.ListLanguages(opts.NluDir)
		if err != nil {
			log.Fatalf("nlu-dir: %v", err)
		}
		data, err := nluconfig.LoadIntents(langs, opts.NluDir)
		if err != nil {
			log.Fatalf("nlu-dir: %v", err)
		}
		skill.WithNluData(data)
	}
	go func() {
		if err := skill.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("skill: %v", err)
		}
	}()

	go runDemoExchange(ctx, opts.SkillID, outbound)

	log.Println("vap-registry-hub ready")
	serveEvents(ctx, events)
	log.Println("shutting down")
}

// runDemoExchange waits a fixed 200ms for the demo skill to connect, then
// probes and activates it once, logging the outcome. A production embedder would
// drive OutboundClient from its own dialogue manager instead of a timer.
func runDemoExchange(ctx context.Context, skillID string, outbound *registry.OutboundClient) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(200 * time.Millisecond):
	}

	request := wire.RequestData{Value: wire.Value{Kind: wire.KindString, Str: "say hello"}}
	client := wire.ClientData{Value: wire.Value{Kind: wire.KindString, Str: "demo-client"}}

	answers := outbound.Probe(ctx, []string{skillID}, request, client)
	for _, a := range answers {
		for _, item := range a.Data {
			log.Printf("probe answer: skill=%s confidence=%.2f", a.SkillID, item.Confidence)
		}
	}
	if len(answers) == 0 {
		log.Printf("probe: no answers")
		return
	}

	caps, slot, err := outbound.Activate(ctx, skillID, wire.MsgSkillRequest{Request: request, Client: client})
	if err != nil {
		log.Printf("activate: %v", err)
		return
	}
	log.Printf("activate: received %d capabilities", len(caps))
	slot.Fulfill(uint16(wire.StatusValid))
}

// serveEvents drains the event façade, answering every event with the
// minimal valid acknowledgement and logging what arrived. A real upper
// layer would route these to skill bookkeeping, NLU dispatch, and the
// assistant's dialogue manager instead.
func serveEvents(ctx context.Context, events *registry.EventStream) {
	for {
		event, slot, err := events.Recv(ctx)
		if err != nil {
			return
		}

		switch event.Kind {
		case registry.EventConnect:
			log.Printf("connect: skill=%s capabilities=%v", event.Connect.ID, event.Connect.Capabilities)
			slot.Fulfill(registry.Reply{Status: wire.StatusValid})
		case registry.EventRegisterIntents:
			log.Printf("registerIntents: skill=%s languages=%d", event.RegisterIntents.SkillID, len(event.RegisterIntents.NluData))
			slot.Fulfill(registry.Reply{Status: wire.StatusValid})
		case registry.EventNotification:
			log.Printf("notification: skill=%s items=%d", event.Notification.SkillID, len(event.Notification.Data))
			slot.Fulfill(registry.Reply{Status: wire.StatusValid})
		case registry.EventQuery:
			log.Printf("query received")
			slot.Fulfill(registry.Reply{Status: wire.StatusContent})
		case registry.EventClose:
			log.Printf("close: skill=%s", event.Close.ID)
			slot.Fulfill(registry.Reply{Status: wire.StatusValid})
		}
	}
}

func parseLogLevel(s string) logging.LogLevel {
	switch s {
	case "trace":
		return logging.LogLevelTrace
	case "debug":
		return logging.LogLevelDebug
	case "warn":
		return logging.LogLevelWarn
	case "error":
		return logging.LogLevelError
	default:
		return logging.LogLevelInfo
	}
}
