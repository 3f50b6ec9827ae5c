package signaling

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"

	"github.com/1ureka/rtxrelay/internal/util"
)

// Session is the subset of the ingest peer the exchange drives. The relay
// is always the answering side.
type Session interface {
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(webrtc.SessionDescription) error
	SetRemoteDescription(webrtc.SessionDescription) error
	AddICECandidate(webrtc.ICECandidateInit) error
	OnICECandidate(func(*webrtc.ICECandidate))
	Ready() <-chan struct{}
}

// sender serializes outgoing signaling messages to the WebSocket.
type sender struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *sender) send(msg message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}

// Establish runs the complete relay-side signaling flow: start a WS server
// on the given port, wait for the offering peer, answer its offer and trade
// ICE candidates until the session reports ready. The WS server and
// connection are torn down before returning — they are only needed for the
// exchange itself.
func Establish(ctx context.Context, wsPort int, sess Session) error {
	srv := newServer(wsPort)
	port, err := srv.start()
	if err != nil {
		return err
	}
	defer srv.close()

	util.LogInfo("signaling server listening on :%d, waiting for the offering peer", port)

	conn, err := srv.waitForPeer(ctx)
	if err != nil {
		return fmt.Errorf("failed to wait for peer: %w", err)
	}
	defer conn.Close()
	util.LogInfo("peer connected, exchanging SDP/ICE")

	s := &sender{conn: conn}

	// Forward locally gathered ICE candidates as they appear.
	sess.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c != nil {
			data, _ := json.Marshal(c.ToJSON())
			// Error intentionally ignored: candidate delivery is best-effort.
			s.send(message{Type: msgTypeCandidate, Candidate: string(data)})
		}
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- watch(conn, s, sess) // Exits when conn is closed (deferred above).
	}()

	select {
	case <-sess.Ready():
		util.LogInfo("WebRTC session established, closing WS")
		return nil

	case err := <-errCh:
		return fmt.Errorf("signaling failed: %w", err)

	case <-ctx.Done():
		return ctx.Err()
	}
}

// watch is the receive loop: answer the peer's offer, apply its candidates.
func watch(conn *websocket.Conn, s *sender, sess Session) error {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("failed to read WS message: %w", err)
		}

		switch msg.Type {
		case msgTypeOffer:
			if err := sess.SetRemoteDescription(webrtc.SessionDescription{
				Type: webrtc.SDPTypeOffer, SDP: msg.SDP,
			}); err != nil {
				return err
			}
			answer, err := sess.CreateAnswer()
			if err != nil {
				return err
			}
			if err := sess.SetLocalDescription(answer); err != nil {
				return err
			}
			if err := s.send(message{Type: msgTypeAnswer, SDP: answer.SDP}); err != nil {
				return err
			}

		case msgTypeCandidate:
			var init webrtc.ICECandidateInit
			if err := json.Unmarshal([]byte(msg.Candidate), &init); err != nil {
				return fmt.Errorf("failed to parse ICE candidate: %w", err)
			}
			if err := sess.AddICECandidate(init); err != nil {
				return err
			}

		default:
			util.LogWarning("ignoring unexpected signaling message type %q", msg.Type)
		}
	}
}
