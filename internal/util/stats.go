package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Global stats singleton
// ──────────────────────────────────────────────────────────────────────────────

// Stats is the process-wide relay traffic counter.
var Stats = &stats{}

type stats struct {
	Forwarded   atomic.Int64 // media packets forwarded ingress → egress
	Retransmits atomic.Int64 // retransmission packets produced for NACKs
	NackMisses  atomic.Int64 // NACKed sequence numbers no longer in the cache
	BytesIn     atomic.Int64 // cumulative bytes read from the ingress
	BytesOut    atomic.Int64 // cumulative bytes written to the egress
}

func (s *stats) AddForwarded(n int) { s.Forwarded.Add(1); s.BytesIn.Add(int64(n)) }
func (s *stats) AddSent(n int)      { s.BytesOut.Add(int64(n)) }
func (s *stats) AddRetransmission() { s.Retransmits.Add(1) }
func (s *stats) AddNackMiss()       { s.NackMisses.Add(1) }

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

// StartStatsReporter launches a goroutine that logs relay statistics
// every 10 seconds. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		var prevIn, prevOut, prevFwd, prevRtx int64
		for {
			select {
			case <-ticker.C:
				in := Stats.BytesIn.Load()
				out := Stats.BytesOut.Load()
				fwd := Stats.Forwarded.Load()
				rtx := Stats.Retransmits.Load()

				inS := float64(in-prevIn) / 10.0
				outS := float64(out-prevOut) / 10.0
				fwdC := fwd - prevFwd
				rtxC := rtx - prevRtx

				if fwdC > 0 || rtxC > 0 {
					pterm.DefaultLogger.Info(formatStats(inS, outS, fwdC, rtxC))
				}

				prevIn = in
				prevOut = out
				prevFwd = fwd
				prevRtx = rtx

			case <-ctx.Done():
				return
			}
		}
	}()
}

// byteUnits defines the units for formatting byte counts in a human-readable way.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count into a human-readable string with fixed width (exactly 8 chars)
// for example: "99.0   B", " 1.5 KiB", " 0.1 MiB", "98.9 GiB", etc.
func formatBytes(b float64) string {
	unitIdx := 0

	// to prevent "100.0 KiB", which is 9 chars
	for b > 99 && unitIdx < 5 {
		b /= 1024
		unitIdx++
	}

	return fmt.Sprintf("%4.1f %3s", b, byteUnits[unitIdx])
}

// formatStats returns a formatted string of the current stats for display in the logger.
func formatStats(inS, outS float64, fwdC, rtxC int64) string {
	return fmt.Sprintf("In: %s/s | Out: %s/s | Pkts: %4d | RTX: %3d",
		formatBytes(inS),
		formatBytes(outS),
		fwdC,
		rtxC,
	)
}
