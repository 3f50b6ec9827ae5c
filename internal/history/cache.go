// Package history caches recently forwarded packets by RTP sequence number,
// so that a NACKed sequence can be looked up and re-encapsulated on demand.
package history

import (
	"sync"

	"github.com/1ureka/rtxrelay/internal/rtx"
)

// Cache is a fixed-capacity packet store with FIFO eviction. It is shared
// between the relay's receive goroutine and the responder, so all access is
// mutex-guarded. Stored packets own their buffers exclusively, which makes
// encapsulating a cached packet safe at any time after Put.
type Cache struct {
	mu       sync.Mutex
	capacity int
	packets  map[uint16]*rtx.Packet
	order    []uint16 // insertion order, oldest first
}

// New creates an empty cache holding at most capacity packets.
func New(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		packets:  make(map[uint16]*rtx.Packet, capacity),
	}
}

// Put stores a packet under its own sequence number, evicting the oldest
// entry once the cache is full. Re-putting an existing sequence number
// replaces the stored packet without affecting eviction order.
func (c *Cache) Put(p *rtx.Packet) {
	seq := p.Header.SequenceNumber

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.packets[seq]; ok {
		c.packets[seq] = p
		return
	}

	c.packets[seq] = p
	c.order = append(c.order, seq)

	for len(c.order) > c.capacity {
		delete(c.packets, c.order[0])
		c.order = c.order[1:]
	}
}

// Get returns the cached packet for seq, if still present.
func (c *Cache) Get(seq uint16) (*rtx.Packet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.packets[seq]
	return p, ok
}

// Len returns the number of cached packets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.packets)
}
