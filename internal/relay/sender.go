package relay

import (
	"context"
	"net"

	"github.com/1ureka/rtxrelay/internal/util"
)

// sendBufferSize is the outgoing datagram channel capacity.
const sendBufferSize = 256

// sender is a goroutine-based datagram writer that serializes all writes to
// the egress socket. Media and retransmissions share it, so ordering between
// the two is preserved.
type sender struct {
	inbox chan []byte
}

// newSender creates a sender and starts the background loop. The loop exits
// when ctx is cancelled; on a write error it calls fail so the whole relay
// shuts down instead of ingesting into a dead inbox.
func newSender(ctx context.Context, conn *net.UDPConn, fail func()) *sender {
	s := &sender{inbox: make(chan []byte, sendBufferSize)}
	go s.loop(ctx, conn, fail)
	return s
}

// loop is the single-writer goroutine.
func (s *sender) loop(ctx context.Context, conn *net.UDPConn, fail func()) {
	for {
		select {
		case buf := <-s.inbox:
			if _, err := conn.Write(buf); err != nil {
				select {
				case <-ctx.Done():
				default:
					util.LogError("failed to write datagram (%d bytes): %v", len(buf), err)
				}
				fail()
				return
			}
			util.Stats.AddSent(len(buf))
		case <-ctx.Done():
			return
		}
	}
}

// send queues a datagram without blocking the receive path; when the inbox
// is full the datagram is dropped, which for media is better than stalling.
func (s *sender) send(buf []byte) {
	select {
	case s.inbox <- buf:
	default:
		util.LogDebug("send inbox full, dropping %d bytes", len(buf))
	}
}
