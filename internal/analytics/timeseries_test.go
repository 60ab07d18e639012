package analytics

import (
	"testing"
	"time"

	"github.com/convoinsight/backend/internal/storage/models"
)

func sessionAt(id string, at time.Time) models.ChatSession {
	return models.ChatSession{ID: id, UserID: "u1", CreatedAt: at, UpdatedAt: at}
}

func messageAt(id, sessionID string, at time.Time) models.ChatMessage {
	return models.ChatMessage{
		ID:        id,
		SessionID: sessionID,
		Role:      "user",
		Content:   `{"text":"hello"}`,
		CreatedAt: at,
	}
}

func TestActivityHourlyPatternZeroFilled(t *testing.T) {
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	messages := []models.ChatMessage{
		messageAt("m1", "s1", start.Add(9*time.Hour)),
		messageAt("m2", "s1", start.Add(9*time.Hour+30*time.Minute)),
		messageAt("m3", "s1", start.Add(14*time.Hour)),
	}

	report := AggregateActivity(nil, messages, start, end, 3)
	if len(report.HourlyPattern) != 24 {
		t.Fatalf("expected 24 hour buckets, got %d", len(report.HourlyPattern))
	}
	if report.HourlyPattern[9].Messages != 2 {
		t.Fatalf("expected 2 messages at hour 9, got %d", report.HourlyPattern[9].Messages)
	}
	if report.HourlyPattern[14].Messages != 1 {
		t.Fatalf("expected 1 message at hour 14, got %d", report.HourlyPattern[14].Messages)
	}
	if report.HourlyPattern[0].Messages != 0 || report.HourlyPattern[23].Messages != 0 {
		t.Fatal("idle hours must be zero-filled, not omitted")
	}
}

func TestActivityDailyTrendCoversWholeWindow(t *testing.T) {
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(3 * 24 * time.Hour)

	sessions := []models.ChatSession{
		sessionAt("s1", start.Add(10*time.Hour)),
		sessionAt("s2", start.Add(48*time.Hour)),
	}
	messages := []models.ChatMessage{
		messageAt("m1", "s1", start.Add(10*time.Hour)),
		messageAt("m2", "s2", start.Add(49*time.Hour)),
	}

	report := AggregateActivity(sessions, messages, start, end, 3)
	if len(report.DailyTrend) != 3 {
		t.Fatalf("expected 3 day buckets, got %d", len(report.DailyTrend))
	}
	if report.DailyTrend[0].Date != "2026-03-10" {
		t.Fatalf("unexpected first day: %s", report.DailyTrend[0].Date)
	}
	if report.DailyTrend[0].Sessions != 1 || report.DailyTrend[0].Messages != 1 {
		t.Fatalf("unexpected day 0 counts: %+v", report.DailyTrend[0])
	}
	if report.DailyTrend[1].Sessions != 0 || report.DailyTrend[1].Messages != 0 {
		t.Fatal("quiet day must be zero-filled")
	}
	if report.DailyTrend[2].Sessions != 1 || report.DailyTrend[2].Messages != 1 {
		t.Fatalf("unexpected day 2 counts: %+v", report.DailyTrend[2])
	}
	if report.TotalSessions != 2 || report.TotalMessages != 2 {
		t.Fatalf("unexpected totals: %+v", report)
	}
}

func TestActivityPeakHoursRankingAndTies(t *testing.T) {
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	messages := []models.ChatMessage{
		messageAt("m1", "s1", start.Add(8*time.Hour)),
		messageAt("m2", "s1", start.Add(8*time.Hour)),
		messageAt("m3", "s1", start.Add(8*time.Hour)),
		messageAt("m4", "s1", start.Add(11*time.Hour)),
		messageAt("m5", "s1", start.Add(11*time.Hour)),
		messageAt("m6", "s1", start.Add(17*time.Hour)),
		messageAt("m7", "s1", start.Add(20*time.Hour)),
	}

	report := AggregateActivity(nil, messages, start, end, 3)
	if len(report.PeakHours) != 3 {
		t.Fatalf("expected 3 peak hours, got %d", len(report.PeakHours))
	}
	if report.PeakHours[0].Hour != 8 || report.PeakHours[1].Hour != 11 {
		t.Fatalf("unexpected peak ordering: %+v", report.PeakHours)
	}
	// Hours 17 and 20 tie at one message each; the earlier hour wins.
	if report.PeakHours[2].Hour != 17 {
		t.Fatalf("tie must resolve to the earliest hour, got %d", report.PeakHours[2].Hour)
	}
}

func TestActivityEmptyWindow(t *testing.T) {
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(2 * 24 * time.Hour)

	report := AggregateActivity(nil, nil, start, end, 3)
	if len(report.HourlyPattern) != 24 || len(report.DailyTrend) != 2 {
		t.Fatalf("series must be emitted even with no records: %d hours, %d days",
			len(report.HourlyPattern), len(report.DailyTrend))
	}
	if report.TotalSessions != 0 || report.TotalMessages != 0 {
		t.Fatalf("unexpected totals: %+v", report)
	}
}

func TestActivityRecordsOutsideWindowIgnoredInTrend(t *testing.T) {
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	messages := []models.ChatMessage{
		messageAt("m1", "s1", start.Add(-time.Hour)),
	}

	report := AggregateActivity(nil, messages, start, end, 3)
	if report.DailyTrend[0].Messages != 0 {
		t.Fatalf("record before the window must not land in a trend bucket: %+v", report.DailyTrend[0])
	}
}
