package wire

import "testing"

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteMapHeader(3)
	w.WriteString("name")
	w.WriteString("echo")
	w.WriteString("count")
	w.WriteUint(7)
	w.WriteString("tags")
	w.WriteListHeader(2)
	w.WriteBool(true)
	w.WriteInt(-42)

	v, err := NewReader(w.Bytes()).ReadValue()
	if err != nil {
		t.Fatalf("ReadValue() error = %v", err)
	}

	name, err := v.Field("name")
	if err != nil {
		t.Fatalf("Field(name) error = %v", err)
	}
	if s, _ := name.AsString(); s != "echo" {
		t.Errorf("name = %q, want %q", s, "echo")
	}

	count, err := v.Field("count")
	if err != nil {
		t.Fatalf("Field(count) error = %v", err)
	}
	if u, _ := count.AsUint(); u != 7 {
		t.Errorf("count = %d, want 7", u)
	}

	tags, err := v.Field("tags")
	if err != nil {
		t.Fatalf("Field(tags) error = %v", err)
	}
	list, err := tags.AsList()
	if err != nil {
		t.Fatalf("AsList() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(tags) = %d, want 2", len(list))
	}
	if b, _ := list[0].AsBool(); !b {
		t.Errorf("tags[0] = %v, want true", b)
	}
	if list[1].Kind != KindInt || list[1].Int != -42 {
		t.Errorf("tags[1] = %+v, want int -42", list[1])
	}
}

func TestOptFieldAbsent(t *testing.T) {
	w := NewWriter()
	w.WriteMapHeader(0)
	v, err := NewReader(w.Bytes()).ReadValue()
	if err != nil {
		t.Fatalf("ReadValue() error = %v", err)
	}

	_, ok, err := v.OptField("missing")
	if err != nil {
		t.Fatalf("OptField() error = %v", err)
	}
	if ok {
		t.Error("OptField() ok = true, want false")
	}
}

func TestFieldTypeMismatch(t *testing.T) {
	w := NewWriter()
	w.WriteString("not a map")
	v, err := NewReader(w.Bytes()).ReadValue()
	if err != nil {
		t.Fatalf("ReadValue() error = %v", err)
	}
	if _, err := v.Field("x"); err != ErrTypeMismatch {
		t.Errorf("Field() error = %v, want %v", err, ErrTypeMismatch)
	}
}

func TestWriteStringInvalidUTF8Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("WriteString() with invalid UTF-8 did not panic")
		}
	}()
	NewWriter().WriteString(string([]byte{0xff, 0xfe}))
}

func TestReadValueTruncated(t *testing.T) {
	w := NewWriter()
	w.WriteString("hello")
	truncated := w.Bytes()[:2]
	if _, err := NewReader(truncated).ReadValue(); err == nil {
		t.Error("ReadValue() on truncated input returned nil error")
	}
}

func TestWriteValueRoundTripsDecodedTree(t *testing.T) {
	w := NewWriter()
	w.WriteMapHeader(1)
	w.WriteString("k")
	w.WriteFloat32(1.5)
	v, err := NewReader(w.Bytes()).ReadValue()
	if err != nil {
		t.Fatalf("ReadValue() error = %v", err)
	}

	w2 := NewWriter()
	w2.WriteValue(v)
	v2, err := NewReader(w2.Bytes()).ReadValue()
	if err != nil {
		t.Fatalf("ReadValue() round 2 error = %v", err)
	}

	f, err := v2.Field("k")
	if err != nil {
		t.Fatalf("Field(k) error = %v", err)
	}
	got, err := f.AsFloat32()
	if err != nil || got != 1.5 {
		t.Errorf("k = %v, %v, want 1.5, nil", got, err)
	}
}
