// Package relay implements the forwarding engine: RTP in (UDP socket or an
// injected source), raw bytes out to the egress address, with a packet
// history that answers receiver NACKs with retransmission packets.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/1ureka/rtxrelay/internal/config"
	"github.com/1ureka/rtxrelay/internal/history"
	"github.com/1ureka/rtxrelay/internal/responder"
	"github.com/1ureka/rtxrelay/internal/rtx"
	"github.com/1ureka/rtxrelay/internal/util"
)

// maxDatagramSize bounds a single read; RTP over UDP stays within one MTU.
const maxDatagramSize = 1500

// Relay owns the sockets and the packet history. Media packets are parsed,
// cached and forwarded as-is; RTCP arriving on the egress socket's return
// path is fed to the responder, whose retransmissions go out through the
// same single-writer sender.
type Relay struct {
	ctx    context.Context
	cancel context.CancelFunc

	cache  *history.Cache
	resp   *responder.Responder
	sender *sender

	ingress *net.UDPConn // nil when media is injected via Ingest
	egress  *net.UDPConn

	closeOnce sync.Once
	closeErr  error
}

// New creates a Relay per cfg: a connected egress socket towards
// cfg.ForwardAddr, and — in UDP mode — an ingress socket on cfg.ListenAddr.
// Run starts the loops.
func New(ctx context.Context, cfg *config.Config) (*Relay, error) {
	raddr, err := net.ResolveUDPAddr("udp", cfg.ForwardAddr)
	if err != nil {
		return nil, fmt.Errorf("bad forward address %q: %w", cfg.ForwardAddr, err)
	}
	egress, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("failed to open egress socket: %w", err)
	}

	var ingress *net.UDPConn
	if cfg.Mode == config.ModeUDP {
		laddr, err := net.ResolveUDPAddr("udp", cfg.ListenAddr)
		if err != nil {
			egress.Close()
			return nil, fmt.Errorf("bad listen address %q: %w", cfg.ListenAddr, err)
		}
		ingress, err = net.ListenUDP("udp", laddr)
		if err != nil {
			egress.Close()
			return nil, fmt.Errorf("failed to open ingress socket: %w", err)
		}
	}

	rCtx, rCancel := context.WithCancel(ctx)

	r := &Relay{
		ctx:     rCtx,
		cancel:  rCancel,
		cache:   history.New(cfg.HistorySize),
		ingress: ingress,
		egress:  egress,
	}
	r.sender = newSender(rCtx, egress, rCancel)
	r.resp = responder.New(r.cache, r.sendRetransmission)

	return r, nil
}

// Run starts the receive loops and blocks until the context is cancelled or
// a socket fails, then releases the sockets.
func (r *Relay) Run() error {
	if r.ingress != nil {
		util.LogInfo("relaying RTP from %s to %s", r.ingress.LocalAddr(), r.egress.RemoteAddr())
		go r.ingressLoop()
	} else {
		util.LogInfo("relaying injected RTP to %s", r.egress.RemoteAddr())
	}
	go r.rtcpLoop()

	<-r.ctx.Done()
	return r.Close()
}

// Done returns a channel closed when the relay has shut down.
func (r *Relay) Done() <-chan struct{} {
	return r.ctx.Done()
}

// IngressAddr returns the ingress socket's local address, or nil when media
// is injected instead of read from a socket.
func (r *Relay) IngressAddr() net.Addr {
	if r.ingress == nil {
		return nil
	}
	return r.ingress.LocalAddr()
}

// Close cancels the loops and closes both sockets. Safe to call more than
// once.
func (r *Relay) Close() error {
	r.closeOnce.Do(func() {
		r.cancel()
		errs := []error{r.egress.Close()}
		if r.ingress != nil {
			errs = append(errs, r.ingress.Close())
		}
		r.closeErr = errors.Join(errs...)
	})
	return r.closeErr
}

// Ingest hands one RTP datagram to the relay, which takes ownership of buf.
// The packet is cached for future NACKs and its bytes are queued for the
// egress unchanged. Malformed datagrams are dropped per-packet.
func (r *Relay) Ingest(buf []byte) {
	p, err := rtx.ParsePacket(buf)
	if err != nil {
		util.LogDebug("dropping malformed RTP datagram (%d bytes): %v", len(buf), err)
		return
	}

	r.cache.Put(p)
	r.sender.send(buf)
	util.Stats.AddForwarded(len(buf))
}

// sendRetransmission marshals a retransmission packet and queues it on the
// egress sender. Used as the responder's send callback.
func (r *Relay) sendRetransmission(p *rtx.RetransmissionPacket) {
	buf, err := p.Marshal()
	if err != nil {
		util.LogError("failed to marshal retransmission (seq %d): %v", p.OriginalSequenceNumber(), err)
		return
	}
	util.LogDebug("retransmitting sequence %d (%d bytes)", p.OriginalSequenceNumber(), len(buf))
	r.sender.send(buf)
}

// ingressLoop reads RTP datagrams from the ingress socket. Each datagram
// gets a fresh buffer because the parsed packet keeps it alive in the
// history cache.
func (r *Relay) ingressLoop() {
	for {
		buf := make([]byte, maxDatagramSize)
		n, _, err := r.ingress.ReadFromUDP(buf)
		if err != nil {
			r.logLoopExit("ingress", err)
			return
		}
		r.Ingest(buf[:n])
	}
}

// rtcpLoop reads the egress socket's return path, where the receiver sends
// its RTCP. The buffer is reused — the responder retains nothing from it.
func (r *Relay) rtcpLoop() {
	buf := make([]byte, maxDatagramSize)
	for {
		n, err := r.egress.Read(buf)
		if err != nil {
			r.logLoopExit("rtcp", err)
			return
		}
		if _, err := r.resp.HandleRTCP(buf[:n]); err != nil {
			util.LogDebug("dropping malformed RTCP datagram (%d bytes): %v", n, err)
		}
	}
}

// logLoopExit logs a read loop's exit, quietly when it is a shutdown.
func (r *Relay) logLoopExit(name string, err error) {
	select {
	case <-r.ctx.Done():
		util.LogDebug("%s loop stopped", name)
	default:
		util.LogError("%s read failed: %v", name, err)
		r.cancel()
	}
}
