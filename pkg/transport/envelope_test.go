package transport

import (
	"bytes"
	"testing"

	"github.com/backkem/vap-registry/pkg/wire"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	in := envelope{
		streamID: 9,
		isReply:  true,
		method:   MethodPut,
		path:     "vap/skillRegistry/skills/weather",
		status:   wire.StatusContent,
		payload:  []byte("hello"),
	}
	out, err := decodeEnvelope(encodeEnvelope(in))
	if err != nil {
		t.Fatalf("decodeEnvelope() error = %v", err)
	}
	if out.streamID != in.streamID || out.isReply != in.isReply || out.method != in.method ||
		out.path != in.path || out.status != in.status || !bytes.Equal(out.payload, in.payload) {
		t.Errorf("decodeEnvelope() = %+v, want %+v", out, in)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := envelope{streamID: 1, method: MethodGet, path: "a", payload: []byte("x")}
	if err := writeFrame(&buf, in); err != nil {
		t.Fatalf("writeFrame() error = %v", err)
	}

	out, err := readFrame(&buf)
	if err != nil {
		t.Fatalf("readFrame() error = %v", err)
	}
	if out.streamID != in.streamID || out.path != in.path || string(out.payload) != "x" {
		t.Errorf("readFrame() = %+v, want %+v", out, in)
	}
}
