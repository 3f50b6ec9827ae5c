// Package responder turns receiver loss reports into retransmission
// packets. It only answers explicit NACKs — deciding when a receiver asks
// for a retransmission is the receiver's business.
package responder

import (
	"github.com/pion/rtcp"

	"github.com/1ureka/rtxrelay/internal/history"
	"github.com/1ureka/rtxrelay/internal/rtx"
	"github.com/1ureka/rtxrelay/internal/util"
)

// Responder looks NACKed sequence numbers up in the packet history and
// hands freshly encapsulated retransmissions to a send callback.
type Responder struct {
	cache *history.Cache
	send  func(*rtx.RetransmissionPacket)
}

// New creates a Responder over the given cache. send is invoked once per
// produced retransmission, from the goroutine that calls HandleRTCP.
func New(cache *history.Cache, send func(*rtx.RetransmissionPacket)) *Responder {
	return &Responder{cache: cache, send: send}
}

// HandleRTCP parses a compound RTCP datagram and produces one
// retransmission per NACKed sequence number still present in the cache.
// Cache misses are counted but are not errors — the sequence has simply
// aged out. Returns the number of retransmissions produced.
func (r *Responder) HandleRTCP(buf []byte) (int, error) {
	pkts, err := rtcp.Unmarshal(buf)
	if err != nil {
		return 0, err
	}

	produced := 0
	for _, pkt := range pkts {
		nack, ok := pkt.(*rtcp.TransportLayerNack)
		if !ok {
			// Receiver reports, sender reports etc. are none of our business.
			continue
		}

		for _, pair := range nack.Nacks {
			pair.Range(func(seq uint16) bool {
				p, ok := r.cache.Get(seq)
				if !ok {
					util.LogDebug("NACK for sequence %d missed the history cache", seq)
					util.Stats.AddNackMiss()
					return true
				}

				r.send(rtx.Encapsulate(p))
				util.Stats.AddRetransmission()
				produced++
				return true
			})
		}
	}

	return produced, nil
}
