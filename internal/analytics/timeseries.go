package analytics

import (
	"sort"
	"time"

	"github.com/convoinsight/backend/internal/storage/models"
)

type HourBucket struct {
	Hour     int `json:"hour"`
	Messages int `json:"messages"`
}

type DayBucket struct {
	Date     string `json:"date"`
	Sessions int    `json:"sessions"`
	Messages int    `json:"messages"`
}

type ActivityReport struct {
	HourlyPattern []HourBucket `json:"hourly_pattern"`
	DailyTrend    []DayBucket  `json:"daily_trend"`
	PeakHours     []HourBucket `json:"peak_hours"`
	TotalSessions int          `json:"total_sessions"`
	TotalMessages int          `json:"total_messages"`
}

// AggregateActivity builds fixed-width time series: a 24-slot hour-of-day
// traffic pattern and a zero-filled daily trend over the window. Records are
// truncated to their UTC bucket boundary. Buckets with no activity are still
// emitted so consumers always get a complete series.
func AggregateActivity(sessions []models.ChatSession, messages []models.ChatMessage, start, end time.Time, topN int) ActivityReport {
	report := ActivityReport{
		HourlyPattern: make([]HourBucket, 24),
		TotalSessions: len(sessions),
		TotalMessages: len(messages),
	}
	for h := range report.HourlyPattern {
		report.HourlyPattern[h].Hour = h
	}

	dayStart := start.UTC().Truncate(24 * time.Hour)
	dayIndex := make(map[string]int)
	for d := dayStart; d.Before(end); d = d.Add(24 * time.Hour) {
		key := d.Format("2006-01-02")
		dayIndex[key] = len(report.DailyTrend)
		report.DailyTrend = append(report.DailyTrend, DayBucket{Date: key})
	}

	for _, s := range sessions {
		if i, ok := dayIndex[s.CreatedAt.UTC().Format("2006-01-02")]; ok {
			report.DailyTrend[i].Sessions++
		}
	}
	for _, m := range messages {
		ts := m.CreatedAt.UTC()
		report.HourlyPattern[ts.Hour()].Messages++
		if i, ok := dayIndex[ts.Format("2006-01-02")]; ok {
			report.DailyTrend[i].Messages++
		}
	}

	report.PeakHours = peakHours(report.HourlyPattern, topN)

	return report
}

// peakHours selects the top-N buckets by volume, ties broken by earliest hour.
func peakHours(pattern []HourBucket, topN int) []HourBucket {
	if topN <= 0 {
		topN = 3
	}

	ranked := make([]HourBucket, len(pattern))
	copy(ranked, pattern)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Messages != ranked[j].Messages {
			return ranked[i].Messages > ranked[j].Messages
		}
		return ranked[i].Hour < ranked[j].Hour
	})

	if topN > len(ranked) {
		topN = len(ranked)
	}
	return ranked[:topN]
}
