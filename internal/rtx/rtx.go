package rtx

import (
	"encoding/binary"
	"fmt"
)

// seqNumSize is the width of the embedded original sequence number that a
// retransmission packet carries as its first payload bytes, big-endian.
const seqNumSize = 2

// seqNumOffset is the byte offset of the sequence number field inside every
// RTP header.
const seqNumOffset = 2

// RetransmissionPacket is a Packet whose payload starts with the original
// sequence number of the packet it retransmits, followed by the original
// payload bytes. Its payload is therefore always at least seqNumSize long.
type RetransmissionPacket struct {
	Packet
}

// OriginalSequenceNumber returns the sequence number of the retransmitted
// original, read big-endian from the first two payload bytes.
func (r *RetransmissionPacket) OriginalSequenceNumber() uint16 {
	return binary.BigEndian.Uint16(r.Payload()[:seqNumSize])
}

// Encapsulate wraps a packet into its retransmission form: fresh storage, a
// two-byte gap opened after the header by shifting the payload right, and
// the packet's sequence number written big-endian into the gap.
//
// The input and its storage are left untouched — a cached packet may be
// encapsulated any number of times, concurrently or not, and the returned
// packet never aliases the input's buffer.
func Encapsulate(p *Packet) *RetransmissionPacket {
	used := p.headerLen + p.payloadLen
	buf := make([]byte, used+seqNumSize)
	copy(buf, p.buf[:used])

	// Cannot fail: buf was allocated with room for the gap.
	_ = shiftRight(buf, p.headerLen, used, seqNumSize)
	binary.BigEndian.PutUint16(buf[p.headerLen:p.headerLen+seqNumSize], p.Header.SequenceNumber)

	return &RetransmissionPacket{Packet{
		Header:     p.Header.Clone(),
		buf:        buf,
		headerLen:  p.headerLen,
		payloadLen: p.payloadLen + seqNumSize,
	}}
}

// ParseRetransmission parses a retransmission packet from buf. The payload
// must be long enough to hold the embedded original sequence number or
// ErrMalformedPacket is returned; header parse errors propagate unchanged.
// Like ParsePacket, the returned packet takes ownership of buf.
func ParseRetransmission(buf []byte) (*RetransmissionPacket, error) {
	p, err := ParsePacket(buf)
	if err != nil {
		return nil, err
	}
	if p.payloadLen < seqNumSize {
		return nil, fmt.Errorf("%w: %d payload bytes, need at least %d for the original sequence number",
			ErrMalformedPacket, p.payloadLen, seqNumSize)
	}
	return &RetransmissionPacket{*p}, nil
}

// Decapsulate reconstructs the original packet from a retransmission: the
// embedded sequence number is read out, the remaining payload is shifted
// left over it on a fresh copy of the storage, and the cloned header gets
// its sequence number overwritten with the original's so the reconstructed
// packet reports the retransmitted packet's identity, not the wrapper's.
func Decapsulate(r *RetransmissionPacket) (*Packet, error) {
	if r.payloadLen < seqNumSize {
		return nil, fmt.Errorf("%w: %d payload bytes, need at least %d for the original sequence number",
			ErrMalformedPacket, r.payloadLen, seqNumSize)
	}

	origSeq := r.OriginalSequenceNumber()
	used := r.headerLen + r.payloadLen
	buf := make([]byte, used)
	copy(buf, r.buf[:used])

	if err := shiftLeft(buf, r.headerLen+seqNumSize, used, seqNumSize); err != nil {
		return nil, err
	}
	// Keep the buffer's header bytes consistent with the restored identity.
	binary.BigEndian.PutUint16(buf[seqNumOffset:seqNumOffset+2], origSeq)

	hdr := r.Header.Clone()
	hdr.SequenceNumber = origSeq

	return &Packet{
		Header:     hdr,
		buf:        buf[:used-seqNumSize],
		headerLen:  r.headerLen,
		payloadLen: r.payloadLen - seqNumSize,
	}, nil
}
