package rtx

import "errors"

var (
	// ErrMalformedPacket reports a packet whose byte layout violates the
	// retransmission wire format (payload too short to hold the embedded
	// original sequence number). Header-level parse errors are returned
	// as-is from the rtp package, not wrapped in this.
	ErrMalformedPacket = errors.New("malformed retransmission packet")

	// ErrShortBuffer reports a byte-shift whose destination range would
	// fall outside the backing buffer.
	ErrShortBuffer = errors.New("buffer too short for shift")
)
