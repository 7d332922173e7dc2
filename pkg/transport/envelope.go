package transport

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/backkem/vap-registry/pkg/wire"
)

// envelope frames one Request or Response crossing a Pipe connection. It
// carries a stream id so a single duplex byte stream can multiplex
// concurrent outbound Do() calls against concurrent inbound requests,
// mirroring how MRP-style exchange layers correlate messages by an
// exchange id over one connection.
type envelope struct {
	streamID uint64
	isReply  bool
	method   Method
	path     string
	status   wire.Status
	payload  []byte
}

func encodeEnvelope(e envelope) []byte {
	w := wire.NewWriter()
	w.WriteMapHeader(6)
	w.WriteString("stream_id")
	w.WriteUint(e.streamID)
	w.WriteString("is_reply")
	w.WriteBool(e.isReply)
	w.WriteString("method")
	w.WriteUint(uint64(e.method))
	w.WriteString("path")
	w.WriteString(e.path)
	w.WriteString("status")
	w.WriteUint(uint64(e.status))
	w.WriteString("payload")
	w.WriteBytes(e.payload)
	return w.Bytes()
}

func decodeEnvelope(data []byte) (envelope, error) {
	var e envelope
	root, err := wire.NewReader(data).ReadValue()
	if err != nil {
		return e, err
	}
	sidV, err := root.Field("stream_id")
	if err != nil {
		return e, err
	}
	if e.streamID, err = sidV.AsUint(); err != nil {
		return e, err
	}
	replyV, err := root.Field("is_reply")
	if err != nil {
		return e, err
	}
	if e.isReply, err = replyV.AsBool(); err != nil {
		return e, err
	}
	methodV, err := root.Field("method")
	if err != nil {
		return e, err
	}
	m, err := methodV.AsUint()
	if err != nil {
		return e, err
	}
	e.method = Method(m)
	pathV, err := root.Field("path")
	if err != nil {
		return e, err
	}
	if e.path, err = pathV.AsString(); err != nil {
		return e, err
	}
	statusV, err := root.Field("status")
	if err != nil {
		return e, err
	}
	status, err := statusV.AsUint()
	if err != nil {
		return e, err
	}
	e.status = wire.Status(status)
	payloadV, err := root.Field("payload")
	if err != nil {
		return e, err
	}
	if e.payload, err = payloadV.AsBytes(); err != nil {
		return e, err
	}
	return e, nil
}

// writeFrame writes a length-prefixed envelope to w.
func writeFrame(w io.Writer, e envelope) error {
	body := encodeEnvelope(e)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("transport: write frame length: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("transport: write frame body: %w", err)
	}
	return nil
}

// readFrame reads one length-prefixed envelope from r.
func readFrame(r io.Reader) (envelope, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return envelope{}, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return envelope{}, err
	}
	return decodeEnvelope(body)
}
