package wire

import "errors"

// Codec errors. ErrTypeMismatch corresponds to spec.md §4.A's
// "type-mismatch" decode failure (maps to status request-entity-incomplete
// at the dispatcher); every other error below maps to bad-request.
var (
	// ErrTypeMismatch is returned when a field is present but of the wrong
	// shape, or a required field is absent.
	ErrTypeMismatch = errors.New("wire: type mismatch")

	// ErrMalformed is returned when the byte stream itself cannot be parsed
	// as a value tree (truncated, invalid tag, invalid length).
	ErrMalformed = errors.New("wire: malformed value")

	// ErrInvalidUTF8 is returned when a string value contains invalid UTF-8.
	ErrInvalidUTF8 = errors.New("wire: invalid UTF-8 string")

	// ErrUnknownType is the value Writer.WriteValue panics with when asked
	// to encode a Value whose Kind has no encoding. This is a programmer
	// error, not a wire-format error: it is fatal per spec.md §4.A.
	ErrUnknownType = errors.New("wire: unsupported value type")
)
