package registry

import (
	"sync"

	"github.com/backkem/vap-registry/pkg/wire"
)

// invocationReply is what an activate() caller hands back to the
// notification resolver once the skill's capabilities have been applied
// (spec.md §3's "one-shot<RequestResponse>").
type invocationReply struct {
	Code uint16
}

// pendingInvocationResult is what the notification resolver delivers once
// a matching Requested notification arrives: the capabilities the skill
// wants executed, plus a fresh one-shot the activate() caller uses to
// report the terminal status back (spec.md §4.D rule 2).
type pendingInvocationResult struct {
	Capabilities []wire.Capability
	Inner        chan invocationReply
}

// probeTable is spec.md §3's PendingProbeTable: RequestId → one-shot
// confidence reply. A single sync.Mutex guards map membership only; it is
// never held while a goroutine awaits a channel (spec.md §4.B, §9).
type probeTable struct {
	mu sync.Mutex
	m  map[wire.RequestId]chan float32
}

func newProbeTable() *probeTable {
	return &probeTable{m: make(map[wire.RequestId]chan float32)}
}

// insert registers a fresh one-shot slot for id. Precondition: id is not
// already present (spec.md §3's "RequestId is inserted into at most one of
// the two tables").
func (t *probeTable) insert(id wire.RequestId) chan float32 {
	ch := make(chan float32, 1)
	t.mu.Lock()
	t.m[id] = ch
	t.mu.Unlock()
	return ch
}

// take atomically removes and returns the slot for id, if present.
func (t *probeTable) take(id wire.RequestId) (chan float32, bool) {
	t.mu.Lock()
	ch, ok := t.m[id]
	if ok {
		delete(t.m, id)
	}
	t.mu.Unlock()
	return ch, ok
}

// invocationTable is spec.md §3's PendingInvocationTable.
type invocationTable struct {
	mu sync.Mutex
	m  map[wire.RequestId]chan pendingInvocationResult
}

func newInvocationTable() *invocationTable {
	return &invocationTable{m: make(map[wire.RequestId]chan pendingInvocationResult)}
}

func (t *invocationTable) insert(id wire.RequestId) chan pendingInvocationResult {
	ch := make(chan pendingInvocationResult, 1)
	t.mu.Lock()
	t.m[id] = ch
	t.mu.Unlock()
	return ch
}

func (t *invocationTable) take(id wire.RequestId) (chan pendingInvocationResult, bool) {
	t.mu.Lock()
	ch, ok := t.m[id]
	if ok {
		delete(t.m, id)
	}
	t.mu.Unlock()
	return ch, ok
}
