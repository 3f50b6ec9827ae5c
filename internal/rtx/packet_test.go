package rtx_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pion/rtp"

	"github.com/1ureka/rtxrelay/internal/rtx"
)

// TestNewPacketRejectsShortBuffer verifies the constructor checks that the
// backing buffer can actually hold header + payload.
func TestNewPacketRejectsShortBuffer(t *testing.T) {
	hdr := rtp.Header{Version: 2}

	_, err := rtx.NewPacket(hdr, 10, make([]byte, hdr.MarshalSize()+4))
	if !errors.Is(err, rtx.ErrShortBuffer) {
		t.Errorf("want ErrShortBuffer, got %v", err)
	}

	_, err = rtx.NewPacket(hdr, -1, make([]byte, hdr.MarshalSize()))
	if !errors.Is(err, rtx.ErrShortBuffer) {
		t.Errorf("negative payload length: want ErrShortBuffer, got %v", err)
	}
}

// TestParsePacketOwnsBuffer documents the parse-path aliasing contract: the
// returned packet is a view over the caller's buffer, so the relay must hand
// each datagram buffer over instead of reusing it.
func TestParsePacketOwnsBuffer(t *testing.T) {
	hdr := rtp.Header{Version: 2, SequenceNumber: 77}
	buf := make([]byte, hdr.MarshalSize()+3)
	if _, err := hdr.MarshalTo(buf); err != nil {
		t.Fatalf("MarshalTo failed: %v", err)
	}
	copy(buf[hdr.MarshalSize():], []byte{0x01, 0x02, 0x03})

	p, err := rtx.ParsePacket(buf)
	if err != nil {
		t.Fatalf("ParsePacket failed: %v", err)
	}
	if p.Header.SequenceNumber != 77 {
		t.Errorf("SequenceNumber: got %d, want 77", p.Header.SequenceNumber)
	}

	buf[hdr.MarshalSize()] = 0xFF
	if p.Payload()[0] != 0xFF {
		t.Error("parsed packet does not alias the input buffer")
	}
}

// TestMarshalRoundTrip verifies Marshal emits header bytes then payload
// bytes and that the result parses back to an identical packet.
func TestMarshalRoundTrip(t *testing.T) {
	p := newTestPacket(t, 4242, []byte{0xDE, 0xAD, 0xBE, 0xEF})

	wire, err := p.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if len(wire) != p.Size() {
		t.Fatalf("wire length: got %d, want %d", len(wire), p.Size())
	}

	back, err := rtx.ParsePacket(wire)
	if err != nil {
		t.Fatalf("ParsePacket failed: %v", err)
	}
	if back.Header.SequenceNumber != 4242 {
		t.Errorf("SequenceNumber: got %d, want 4242", back.Header.SequenceNumber)
	}
	if !bytes.Equal(back.Payload(), p.Payload()) {
		t.Errorf("payload mismatch: got % X, want % X", back.Payload(), p.Payload())
	}
}
