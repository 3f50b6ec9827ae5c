// Package rtx implements lossless transcoding between plain RTP packets and
// their retransmission form, which embeds the original sequence number as
// the first two payload bytes so a receiver can identify the retransmitted
// original.
package rtx

import (
	"fmt"

	"github.com/pion/rtp"
)

// Packet is an RTP packet backed by a single contiguous buffer laid out as
// [header bytes][payload bytes]. The header struct is authoritative for
// header fields; the buffer is authoritative for payload bytes.
//
// A Packet owns its buffer exclusively. Every operation in this package
// that produces a new Packet copies storage, so independent packet values
// never alias each other and a cached packet can be encapsulated from
// multiple goroutines concurrently.
type Packet struct {
	Header rtp.Header

	buf        []byte
	headerLen  int
	payloadLen int
}

// NewPacket builds a Packet over buf, which must already hold the
// serialized header followed by payloadLen payload bytes. The Packet takes
// ownership of buf; the caller must not retain it.
func NewPacket(hdr rtp.Header, payloadLen int, buf []byte) (*Packet, error) {
	headerLen := hdr.MarshalSize()
	if payloadLen < 0 || len(buf) < headerLen+payloadLen {
		return nil, fmt.Errorf("%w: %d bytes for %d header + %d payload", ErrShortBuffer, len(buf), headerLen, payloadLen)
	}
	return &Packet{
		Header:     hdr,
		buf:        buf,
		headerLen:  headerLen,
		payloadLen: payloadLen,
	}, nil
}

// ParsePacket parses a plain RTP packet from buf. Everything after the
// header is the payload. The returned Packet takes ownership of buf — no
// defensive copy is made on this hot path, so the caller must hand the
// buffer over and not reuse it.
func ParsePacket(buf []byte) (*Packet, error) {
	var hdr rtp.Header
	n, err := hdr.Unmarshal(buf)
	if err != nil {
		return nil, err
	}
	return &Packet{
		Header:     hdr,
		buf:        buf,
		headerLen:  n,
		payloadLen: len(buf) - n,
	}, nil
}

// Payload returns the payload region as a view into the packet's buffer.
func (p *Packet) Payload() []byte {
	return p.buf[p.headerLen : p.headerLen+p.payloadLen]
}

// Size returns the wire size: header bytes plus payload bytes.
func (p *Packet) Size() int {
	return p.headerLen + p.payloadLen
}

// Marshal serializes the packet: header bytes first, payload bytes after.
// The payload is written exactly as stored — for a retransmission packet it
// already begins with the embedded original sequence number, which must not
// be written a second time.
func (p *Packet) Marshal() ([]byte, error) {
	buf := make([]byte, p.Header.MarshalSize()+p.payloadLen)
	n, err := p.Header.MarshalTo(buf)
	if err != nil {
		return nil, err
	}
	copy(buf[n:], p.Payload())
	return buf[:n+p.payloadLen], nil
}
