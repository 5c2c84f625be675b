package wire

import "errors"

// Codec-level errors as described in the error handling design. Wire
// and I/O errors at the framing boundary terminate only the offending
// connection; they never corrupt shared state.
var (
	// ErrTruncated means the input ended in the middle of a field.
	ErrTruncated = errors.New("wire: truncated input")

	// ErrTooLarge means a varint exceeded 64 bits or a bounded field's
	// declared length exceeded its protocol limit.
	ErrTooLarge = errors.New("wire: field too large")

	// ErrInvalid means an encoding that cannot correspond to any valid
	// value was seen, e.g. a non-minimal varint where minimality is
	// required.
	ErrInvalid = errors.New("wire: invalid encoding")
)
