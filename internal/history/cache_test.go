package history_test

import (
	"testing"

	"github.com/pion/rtp"

	"github.com/1ureka/rtxrelay/internal/history"
	"github.com/1ureka/rtxrelay/internal/rtx"
)

func newPacket(t *testing.T, seq uint16) *rtx.Packet {
	t.Helper()

	hdr := rtp.Header{Version: 2, SequenceNumber: seq}
	buf := make([]byte, hdr.MarshalSize())
	if _, err := hdr.MarshalTo(buf); err != nil {
		t.Fatalf("MarshalTo failed: %v", err)
	}

	p, err := rtx.NewPacket(hdr, 0, buf)
	if err != nil {
		t.Fatalf("NewPacket failed: %v", err)
	}
	return p
}

func TestPutGet(t *testing.T) {
	c := history.New(4)

	c.Put(newPacket(t, 10))
	c.Put(newPacket(t, 11))

	p, ok := c.Get(10)
	if !ok {
		t.Fatal("sequence 10 not found")
	}
	if p.Header.SequenceNumber != 10 {
		t.Errorf("got sequence %d, want 10", p.Header.SequenceNumber)
	}

	if _, ok := c.Get(99); ok {
		t.Error("unexpected hit for sequence 99")
	}
}

// TestEvictionOrder verifies the oldest packet leaves first once capacity
// is reached.
func TestEvictionOrder(t *testing.T) {
	c := history.New(3)

	for seq := uint16(1); seq <= 5; seq++ {
		c.Put(newPacket(t, seq))
	}

	if c.Len() != 3 {
		t.Fatalf("cache size: got %d, want 3", c.Len())
	}
	for _, seq := range []uint16{1, 2} {
		if _, ok := c.Get(seq); ok {
			t.Errorf("sequence %d should have been evicted", seq)
		}
	}
	for _, seq := range []uint16{3, 4, 5} {
		if _, ok := c.Get(seq); !ok {
			t.Errorf("sequence %d missing", seq)
		}
	}
}

// TestReplaceDoesNotGrow verifies that re-putting a sequence number replaces
// the entry instead of inflating the eviction order.
func TestReplaceDoesNotGrow(t *testing.T) {
	c := history.New(2)

	c.Put(newPacket(t, 1))
	c.Put(newPacket(t, 1))
	c.Put(newPacket(t, 2))

	if c.Len() != 2 {
		t.Fatalf("cache size: got %d, want 2", c.Len())
	}
	if _, ok := c.Get(1); !ok {
		t.Error("sequence 1 missing after replacement")
	}
}
