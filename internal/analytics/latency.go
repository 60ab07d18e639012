package analytics

import (
	"time"

	"github.com/convoinsight/backend/internal/storage/models"
)

// LatencyReport carries TTFB/TTFA percentiles over the window. Percentiles
// are null when fewer than two complete messages were observed; Samples is
// always the true count.
type LatencyReport struct {
	P50TTFBMs     *float64 `json:"p50_ttfb_ms"`
	P95TTFBMs     *float64 `json:"p95_ttfb_ms"`
	P99TTFBMs     *float64 `json:"p99_ttfb_ms"`
	P50TTFAMs     *float64 `json:"p50_ttfa_ms"`
	P95TTFAMs     *float64 `json:"p95_ttfa_ms"`
	P99TTFAMs     *float64 `json:"p99_ttfa_ms"`
	Samples       int      `json:"samples"`
	Incomplete    int      `json:"incomplete"`
	SkippedEvents int      `json:"skipped_events"`
}

// AnalyzeLatency derives per-message timing from correlated stage sequences.
// A message contributes to the sample only when all three anchors exist:
// message_received completion (T0), response_generating start (T1) and
// completion (T2), with T0 <= T1 <= T2. Anything else counts as incomplete.
func AnalyzeLatency(events []models.ChatEvent) LatencyReport {
	corr := CorrelateEvents(events)

	var ttfb, ttfa []float64
	incomplete := 0

	for _, key := range corr.Keys() {
		seq := corr.Sequences[key]

		t0 := findStage(seq, models.EventMessageReceived, models.StatusCompleted)
		t1 := findStage(seq, models.EventResponseGenerating, models.StatusStarted)
		t2 := findStage(seq, models.EventResponseGenerating, models.StatusCompleted)

		if t0 == nil || t1 == nil || t2 == nil {
			incomplete++
			continue
		}

		b := float64(t1.Sub(*t0).Milliseconds())
		a := float64(t2.Sub(*t0).Milliseconds())
		if b < 0 || a < b {
			incomplete++
			continue
		}

		ttfb = append(ttfb, b)
		ttfa = append(ttfa, a)
	}

	return LatencyReport{
		P50TTFBMs:     percentile(ttfb, 0.50),
		P95TTFBMs:     percentile(ttfb, 0.95),
		P99TTFBMs:     percentile(ttfb, 0.99),
		P50TTFAMs:     percentile(ttfa, 0.50),
		P95TTFAMs:     percentile(ttfa, 0.95),
		P99TTFAMs:     percentile(ttfa, 0.99),
		Samples:       len(ttfa),
		Incomplete:    incomplete,
		SkippedEvents: corr.Skipped,
	}
}

// findStage returns the timestamp of the first event matching type and status,
// nil when the sequence never reached that stage.
func findStage(seq []models.ChatEvent, eventType models.EventType, status models.EventStatus) *time.Time {
	for _, e := range seq {
		if e.EventType == eventType && e.Status == status {
			t := e.CreatedAt
			return &t
		}
	}
	return nil
}
