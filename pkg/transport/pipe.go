package transport

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/transport/v3/test"
)

// Pipe provides two in-memory, bidirectional Endpoints wired directly to
// each other. It is the reference transport used by pkg/registry's tests
// and by examples/echo-skill: no real network, fully deterministic.
//
// Under the hood it wraps pion's test.Bridge, normally used to shuttle raw
// datagrams between two virtual network peers. Here the bridge carries
// length-prefixed envelope frames instead, and each side runs a duplex
// request/response loop rather than a fire-and-forget packet reader.
type Pipe struct {
	bridge *test.Bridge
	side0  *pipeEndpoint
	side1  *pipeEndpoint
	stop   chan struct{}
}

// NewPipe creates a connected pair of endpoints. Side0() and Side1() are
// each other's peer.
func NewPipe() *Pipe {
	bridge := test.NewBridge()
	p := &Pipe{
		bridge: bridge,
		side0:  newPipeEndpoint(bridge.GetConn0()),
		side1:  newPipeEndpoint(bridge.GetConn1()),
		stop:   make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				bridge.Tick()
			}
		}
	}()

	return p
}

// Side0 returns one endpoint of the pair.
func (p *Pipe) Side0() Endpoint { return p.side0 }

// Side1 returns the other endpoint of the pair.
func (p *Pipe) Side1() Endpoint { return p.side1 }

// Close tears down both endpoints and the underlying bridge.
func (p *Pipe) Close() error {
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
	err0 := p.side0.Close()
	err1 := p.side1.Close()
	if err0 != nil {
		return err0
	}
	return err1
}

// pipeEndpoint implements Endpoint over one end of an in-memory net.Conn
// pair, multiplexing inbound requests (dispatched to the installed
// handler) and replies to our own outbound Do() calls on a single duplex
// stream, keyed by stream id.
//
// A single read loop runs from construction until the connection closes,
// so Do() works on an endpoint that never calls Serve (a pure client).
// Inbound requests arriving before Serve has installed a handler are
// backlogged and replayed once it does.
type pipeEndpoint struct {
	conn net.Conn

	nextStreamID atomic.Uint64

	mu         sync.Mutex
	pending    map[uint64]chan envelope
	handler    Handler
	handlerCtx context.Context
	backlog    []envelope
	closed     bool

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

func newPipeEndpoint(conn net.Conn) *pipeEndpoint {
	e := &pipeEndpoint{
		conn:    conn,
		pending: make(map[uint64]chan envelope),
		done:    make(chan struct{}),
	}
	go e.readLoop()
	return e
}

// readLoop reads frames until the connection is closed, delivering replies
// to pending Do() waiters and inbound requests to the handler.
func (e *pipeEndpoint) readLoop() {
	defer close(e.done)
	for {
		frame, err := readFrame(e.conn)
		if err != nil {
			e.teardown()
			return
		}

		if frame.isReply {
			e.deliverReply(frame)
			continue
		}

		e.mu.Lock()
		handler, ctx := e.handler, e.handlerCtx
		if handler == nil {
			e.backlog = append(e.backlog, frame)
			e.mu.Unlock()
			continue
		}
		e.mu.Unlock()

		go e.handleInbound(ctx, handler, frame)
	}
}

// Serve installs handler (replaying any backlogged requests) and blocks
// until ctx is done or the endpoint is closed. Cancelling ctx closes the
// endpoint.
func (e *pipeEndpoint) Serve(ctx context.Context, handler Handler) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.handler = handler
	e.handlerCtx = ctx
	backlog := e.backlog
	e.backlog = nil
	e.mu.Unlock()

	for _, frame := range backlog {
		go e.handleInbound(ctx, handler, frame)
	}

	select {
	case <-ctx.Done():
		_ = e.Close()
		return ctx.Err()
	case <-e.done:
		return ErrClosed
	}
}

func (e *pipeEndpoint) handleInbound(ctx context.Context, handler Handler, frame envelope) {
	resp := handler(ctx, Request{Method: frame.method, Path: frame.path, Payload: frame.payload})
	if resp == nil {
		// Upper layer declined to answer; suppress the reply.
		return
	}

	reply := envelope{
		streamID: frame.streamID,
		isReply:  true,
		status:   resp.Status,
		payload:  resp.Payload,
	}
	_ = writeFrame(e.conn, reply)
}

func (e *pipeEndpoint) deliverReply(frame envelope) {
	e.mu.Lock()
	ch, ok := e.pending[frame.streamID]
	if ok {
		delete(e.pending, frame.streamID)
	}
	e.mu.Unlock()
	if !ok {
		// No waiter left (Do() was cancelled); discard the late reply.
		return
	}
	ch <- frame
}

// Do sends req and blocks for its matching reply, or until ctx is done.
func (e *pipeEndpoint) Do(ctx context.Context, req Request) (*Response, error) {
	streamID := e.nextStreamID.Add(1)
	ch := make(chan envelope, 1)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	e.pending[streamID] = ch
	e.mu.Unlock()

	out := envelope{streamID: streamID, method: req.Method, path: req.Path, payload: req.Payload}
	if err := writeFrame(e.conn, out); err != nil {
		e.mu.Lock()
		delete(e.pending, streamID)
		e.mu.Unlock()
		return nil, err
	}

	select {
	case <-ctx.Done():
		e.mu.Lock()
		delete(e.pending, streamID)
		e.mu.Unlock()
		return nil, ctx.Err()
	case frame, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		return &Response{Status: frame.status, Payload: frame.payload}, nil
	}
}

// teardown marks the endpoint closed and releases any Do() waiters.
func (e *pipeEndpoint) teardown() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
}

// Close closes the underlying connection and releases any Do() waiters.
// Subsequent calls return the first call's result.
func (e *pipeEndpoint) Close() error {
	e.closeOnce.Do(func() {
		e.teardown()
		e.closeErr = e.conn.Close()
	})
	return e.closeErr
}
