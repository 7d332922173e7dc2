package registry

import "errors"

// Errors surfaced by the registry broker (spec.md §7).
var (
	// ErrChannelClosed is returned when the peer end of a one-shot reply
	// slot was dropped: the upper layer declined to answer an event, or an
	// outbound probe/activate caller cancelled before a reply arrived.
	ErrChannelClosed = errors.New("registry: one-shot channel closed")

	// ErrClosed is returned by EventStream.Recv once the stream has been
	// closed (e.g. the inbound dispatcher shut down).
	ErrClosed = errors.New("registry: event stream closed")
)
