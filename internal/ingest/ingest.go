// Package ingest receives media over a WebRTC PeerConnection and feeds each
// raw RTP datagram into the relay pipeline.
package ingest

import (
	"context"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/rtxrelay/internal/util"
)

// maxPacketSize bounds a single track read; RTP packets stay within one MTU.
const maxPacketSize = 1500

// Ingest wraps a receiving PeerConnection. Every datagram read from a
// remote track is handed to the sink on a fresh buffer, which the sink takes
// ownership of.
//
// Its lifecycle is governed by the PeerConnection state and the context
// passed at construction time.
type Ingest struct {
	pc   *webrtc.PeerConnection
	sink func([]byte)

	readySignal chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an Ingest feeding sink. The caller drives signaling through
// the exposed session methods (the signaling package's Session interface).
func New(ctx context.Context, sink func([]byte)) (*Ingest, error) {
	pc, err := newPeerConnection()
	if err != nil {
		return nil, err
	}

	iCtx, iCancel := context.WithCancel(ctx)

	i := &Ingest{
		pc:          pc,
		sink:        sink,
		readySignal: make(chan struct{}),
		ctx:         iCtx,
		cancel:      iCancel,
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		util.LogInfo("receiving %s track (SSRC %08x)", track.Kind(), uint32(track.SSRC()))
		go i.readLoop(track)
	})

	// Ready gate and teardown driven by the connection state.
	var readyOnce sync.Once
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		util.LogDebug("PeerConnection state: %s", state.String())
		switch state {
		case webrtc.PeerConnectionStateConnected:
			readyOnce.Do(func() { close(i.readySignal) })
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			iCancel()
		}
	})

	return i, nil
}

// readLoop pulls RTP from one remote track until it ends. Each datagram
// gets a fresh buffer because the sink caches packets beyond the call.
func (i *Ingest) readLoop(track *webrtc.TrackRemote) {
	for {
		buf := make([]byte, maxPacketSize)
		n, _, err := track.Read(buf)
		if err != nil {
			select {
			case <-i.ctx.Done():
			default:
				util.LogWarning("%s track read ended: %v", track.Kind(), err)
			}
			return
		}
		i.sink(buf[:n])
	}
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// Ready returns a channel that is closed once the PeerConnection reaches
// the connected state.
func (i *Ingest) Ready() <-chan struct{} {
	return i.readySignal
}

// Done returns a channel that is closed when the ingest is shut down.
func (i *Ingest) Done() <-chan struct{} {
	return i.ctx.Done()
}

// Close shuts down the PeerConnection.
func (i *Ingest) Close() error {
	i.cancel()
	return i.pc.Close()
}

// ---------------------------------------------------------------------------
// Signaling (the signaling package's Session interface)
// ---------------------------------------------------------------------------

// CreateAnswer generates an SDP answer to the applied remote offer.
func (i *Ingest) CreateAnswer() (webrtc.SessionDescription, error) {
	return i.pc.CreateAnswer(nil)
}

// SetLocalDescription applies the local SDP.
func (i *Ingest) SetLocalDescription(sdp webrtc.SessionDescription) error {
	return i.pc.SetLocalDescription(sdp)
}

// SetRemoteDescription applies the remote SDP.
func (i *Ingest) SetRemoteDescription(sdp webrtc.SessionDescription) error {
	return i.pc.SetRemoteDescription(sdp)
}

// OnICECandidate registers a callback invoked whenever a new local ICE
// candidate is gathered. A nil candidate signals the end of gathering.
func (i *Ingest) OnICECandidate(fn func(*webrtc.ICECandidate)) {
	i.pc.OnICECandidate(fn)
}

// AddICECandidate adds a remote ICE candidate received through signaling.
func (i *Ingest) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	return i.pc.AddICECandidate(candidate)
}
