// Rtxrelay — CLI entry point.
//
// This tool forwards an RTP stream to a downstream receiver and answers the
// receiver's RTCP NACKs with retransmission packets that embed the original
// sequence number, so the receiver can identify and deduplicate resent
// data. Media enters either as plain RTP datagrams on a UDP socket or over
// a WebRTC PeerConnection (with WebSocket signaling).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/pterm/pterm"

	"github.com/1ureka/rtxrelay/internal/config"
	"github.com/1ureka/rtxrelay/internal/ingest"
	"github.com/1ureka/rtxrelay/internal/relay"
	"github.com/1ureka/rtxrelay/internal/signaling"
	"github.com/1ureka/rtxrelay/internal/util"
)

var version = "dev"

func main() {
	// Root context — cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// CLI flags.
	mode := flag.String("mode", "udp", "Media source: udp or webrtc")
	listen := flag.String("listen", "127.0.0.1:5004", "UDP mode: ingress address for RTP datagrams")
	forward := flag.String("forward", "", "Egress address; receiver NACKs return on this socket")
	wsPort := flag.Int("wsPort", 0, "WebRTC mode: signaling server port (0 = random)")
	historySize := flag.Int("history", config.DefaultHistorySize, "Packets kept for answering NACKs")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("Rtxrelay — v%s", version))
	pterm.Println()

	if *forward == "" {
		util.LogError("missing -forward address")
		os.Exit(1)
	}
	if *historySize < 1 {
		util.LogError("invalid -history (must be at least 1)")
		os.Exit(1)
	}

	cfg := &config.Config{
		Mode:        config.Mode(*mode),
		ListenAddr:  *listen,
		ForwardAddr: *forward,
		WSPort:      *wsPort,
		HistorySize: *historySize,
	}

	switch cfg.Mode {
	case config.ModeUDP, config.ModeWebRTC:
	default:
		util.LogError("invalid -mode %q (must be udp or webrtc)", *mode)
		os.Exit(1)
	}

	r, err := relay.New(ctx, cfg)
	if err != nil {
		util.LogError("failed to start relay: %v", err)
		os.Exit(1)
	}
	defer r.Close()

	util.StartStatsReporter(ctx)

	if cfg.Mode == config.ModeWebRTC {
		ing, err := ingest.New(ctx, r.Ingest)
		if err != nil {
			util.LogError("failed to create WebRTC ingest: %v", err)
			os.Exit(1)
		}
		defer ing.Close()

		if err := signaling.Establish(ctx, cfg.WSPort, ing); err != nil {
			util.LogError("signaling failed: %v", err)
			os.Exit(1)
		}
	}

	if err := r.Run(); err != nil {
		util.LogError("relay stopped: %v", err)
		os.Exit(1)
	}

	util.LogInfo("bye")
}
