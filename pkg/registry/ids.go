package registry

import (
	"sync/atomic"

	"github.com/backkem/vap-registry/pkg/wire"
)

// idAllocator is the monotonic RequestId source (spec.md §4.G). It is
// touched only by OutboundClient's single owner per spec.md §9, but is
// implemented with an atomic counter rather than a bare interior-mutable
// cell so a future multi-task outbound client does not need to change it.
type idAllocator struct {
	next atomic.Uint64
}

// allocate returns a fresh id. Wraparound after 2^64 ids is tolerated: table
// entries are short-lived, so a reused id colliding with a still-pending
// one is not expected in practice (spec.md §4.G).
func (a *idAllocator) allocate() wire.RequestId {
	return a.next.Add(1) - 1
}
