// Package config holds the CLI configuration types.
package config

// Mode selects how media enters the relay.
type Mode string

const (
	ModeUDP    Mode = "udp"    // plain RTP datagrams on a UDP socket
	ModeWebRTC Mode = "webrtc" // RTP read from a WebRTC media track
)

// DefaultHistorySize is the number of forwarded packets kept around for
// answering NACKs when -history is not given.
const DefaultHistorySize = 512

// Config stores all parameters gathered from the CLI flags.
type Config struct {
	Mode        Mode
	ListenAddr  string // UDP mode: ingress address for RTP datagrams
	ForwardAddr string // egress address; receiver NACKs return on this socket
	WSPort      int    // WebRTC mode: signaling server port
	HistorySize int    // packet history capacity
}
