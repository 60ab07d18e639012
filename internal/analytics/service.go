package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/convoinsight/backend/internal/metrics"
	"github.com/convoinsight/backend/internal/storage/models"
	"github.com/convoinsight/backend/pkg/circuitbreaker"
	"github.com/convoinsight/backend/pkg/logger"
	"github.com/convoinsight/backend/pkg/retry"
)

const (
	defaultWindowDays  = 30
	defaultTopTriggers = 10
)

// Store is the read boundary the engine consumes. All methods are read-only;
// the engine never mutates source records.
type Store interface {
	ListEvents(ctx context.Context, start, end time.Time) ([]models.ChatEvent, error)
	ListMessages(ctx context.Context, start, end time.Time) ([]models.ChatMessage, error)
	ListMessagesByUser(ctx context.Context, userID string, start, end time.Time) ([]models.ChatMessage, error)
	ListSessions(ctx context.Context, start, end time.Time) ([]models.ChatSession, error)
	ListSessionsByUser(ctx context.Context, userID string, start, end time.Time) ([]models.ChatSession, error)
	ListRatings(ctx context.Context, start, end time.Time) ([]models.MessageRating, error)
	ListCollections(ctx context.Context) ([]models.Collection, error)
	ListDocuments(ctx context.Context, collectionID string) ([]models.Document, error)
	ListWebpages(ctx context.Context, collectionID string) ([]models.Webpage, error)
}

// ResultCache is an explicit, keyed, invalidatable cache for shaped metric
// results. A nil cache disables caching entirely.
type ResultCache interface {
	Get(ctx context.Context, metric, windowKey string, out interface{}) (bool, error)
	Set(ctx context.Context, metric, windowKey string, value interface{}) error
	Invalidate(ctx context.Context) error
}

// Window is a closed historical [Start, End) range in UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Key() string {
	return fmt.Sprintf("%d-%d", w.Start.Unix(), w.End.Unix())
}

// ResolveWindow validates the optional date range and applies the configured
// lookback when omitted (lookbackDays <= 0 means the 30-day default). Accepts
// RFC-3339 or plain dates. end < start is a client error; computation is not
// attempted.
func ResolveWindow(startStr, endStr string, now time.Time, lookbackDays int) (Window, error) {
	now = now.UTC()
	if lookbackDays <= 0 {
		lookbackDays = defaultWindowDays
	}

	end := now
	if endStr != "" {
		parsed, err := parseDate(endStr)
		if err != nil {
			return Window{}, fmt.Errorf("%w: invalid end_date %q", ErrInvalidDateRange, endStr)
		}
		// A bare end date means "through the end of that day".
		if len(endStr) == len("2006-01-02") {
			parsed = parsed.Add(24 * time.Hour)
		}
		end = parsed
	}

	start := end.AddDate(0, 0, -lookbackDays)
	if startStr != "" {
		parsed, err := parseDate(startStr)
		if err != nil {
			return Window{}, fmt.Errorf("%w: invalid start_date %q", ErrInvalidDateRange, startStr)
		}
		start = parsed
	}

	if end.Before(start) {
		return Window{}, ErrInvalidDateRange
	}

	return Window{Start: start.UTC(), End: end.UTC()}, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Service is the metrics facade. It loads the raw window, dispatches to
// exactly one aggregator, and shapes the response. Every computation is a
// pure function of the loaded records, so concurrent requests need no
// coordination.
type Service struct {
	store       Store
	cache       ResultCache
	breaker     *circuitbreaker.CircuitBreaker
	retry       retry.Policy
	topTriggers int
}

// Options carries the tunables the facade reads from configuration. Zero
// values fall back to the defaults.
type Options struct {
	TopTriggers int
}

func NewService(store Store, cache ResultCache, breaker *circuitbreaker.CircuitBreaker, opts Options) *Service {
	if opts.TopTriggers <= 0 {
		opts.TopTriggers = defaultTopTriggers
	}
	return &Service{
		store:       store,
		cache:       cache,
		breaker:     breaker,
		retry:       retry.DefaultPolicy(),
		topTriggers: opts.TopTriggers,
	}
}

// load guards every store read with the retry policy and the circuit breaker.
// Total unavailability of the read layer surfaces as ErrUpstreamUnavailable;
// nothing partial or stale is substituted.
func load[T any](ctx context.Context, s *Service, read func() (T, error)) (T, error) {
	var result T
	op := func() error {
		var err error
		result, err = read()
		return err
	}

	var err error
	if s.breaker != nil {
		err = s.breaker.Execute(ctx, func() error {
			return retry.Do(ctx, s.retry, op)
		})
	} else {
		err = retry.Do(ctx, s.retry, op)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return result, err
		}
		metrics.StoreFailures.Inc()
		logger.Error("Record store read failed", zap.Error(err))
		return result, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return result, nil
}

func cached[T any](ctx context.Context, s *Service, metric string, w Window, compute func() (T, error)) (T, error) {
	var result T
	if s.cache != nil {
		hit, err := s.cache.Get(ctx, metric, w.Key(), &result)
		if err != nil {
			logger.Warn("Result cache read failed", zap.String("metric", metric), zap.Error(err))
		} else if hit {
			metrics.CacheHits.WithLabelValues(metric).Inc()
			return result, nil
		}
		metrics.CacheMisses.WithLabelValues(metric).Inc()
	}

	result, err := compute()
	if err != nil {
		return result, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, metric, w.Key(), result); err != nil {
			logger.Warn("Result cache write failed", zap.String("metric", metric), zap.Error(err))
		}
	}
	return result, nil
}

func (s *Service) Latency(ctx context.Context, w Window) (LatencyReport, error) {
	return cached(ctx, s, "latency", w, func() (LatencyReport, error) {
		events, err := load(ctx, s, func() ([]models.ChatEvent, error) {
			return s.store.ListEvents(ctx, w.Start, w.End)
		})
		if err != nil {
			return LatencyReport{}, err
		}
		return AnalyzeLatency(events), nil
	})
}

func (s *Service) ToolUsage(ctx context.Context, w Window) (ToolUsageReport, error) {
	return cached(ctx, s, "tool_usage", w, func() (ToolUsageReport, error) {
		events, err := load(ctx, s, func() ([]models.ChatEvent, error) {
			return s.store.ListEvents(ctx, w.Start, w.End)
		})
		if err != nil {
			return ToolUsageReport{}, err
		}
		return AggregateToolUsage(events), nil
	})
}

func (s *Service) NoAnswerRate(ctx context.Context, w Window) (NoAnswerReport, error) {
	return cached(ctx, s, "no_answer_rate", w, func() (NoAnswerReport, error) {
		messages, err := load(ctx, s, func() ([]models.ChatMessage, error) {
			return s.store.ListMessages(ctx, w.Start, w.End)
		})
		if err != nil {
			return NoAnswerReport{}, err
		}
		return AnalyzeNoAnswers(messages, s.topTriggers), nil
	})
}

func (s *Service) CitationStats(ctx context.Context, w Window) (CitationReport, error) {
	return cached(ctx, s, "citation_stats", w, func() (CitationReport, error) {
		messages, err := load(ctx, s, func() ([]models.ChatMessage, error) {
			return s.store.ListMessages(ctx, w.Start, w.End)
		})
		if err != nil {
			return CitationReport{}, err
		}
		return AnalyzeCitations(messages), nil
	})
}

func (s *Service) AnswerLength(ctx context.Context, w Window) (AnswerLengthReport, error) {
	return cached(ctx, s, "answer_length", w, func() (AnswerLengthReport, error) {
		messages, err := load(ctx, s, func() ([]models.ChatMessage, error) {
			return s.store.ListMessages(ctx, w.Start, w.End)
		})
		if err != nil {
			return AnswerLengthReport{}, err
		}
		return AnalyzeAnswerLength(messages), nil
	})
}

func (s *Service) Sentiment(ctx context.Context, w Window) (SentimentReport, error) {
	return cached(ctx, s, "sentiment", w, func() (SentimentReport, error) {
		messages, err := load(ctx, s, func() ([]models.ChatMessage, error) {
			return s.store.ListMessages(ctx, w.Start, w.End)
		})
		if err != nil {
			return SentimentReport{}, err
		}
		ratings, err := load(ctx, s, func() ([]models.MessageRating, error) {
			return s.store.ListRatings(ctx, w.Start, w.End)
		})
		if err != nil {
			return SentimentReport{}, err
		}
		return AnalyzeSatisfaction(messages, ratings), nil
	})
}

func (s *Service) Activity(ctx context.Context, w Window, topN int) (ActivityReport, error) {
	metric := fmt.Sprintf("activity:%d", topN)
	return cached(ctx, s, metric, w, func() (ActivityReport, error) {
		sessions, err := load(ctx, s, func() ([]models.ChatSession, error) {
			return s.store.ListSessions(ctx, w.Start, w.End)
		})
		if err != nil {
			return ActivityReport{}, err
		}
		messages, err := load(ctx, s, func() ([]models.ChatMessage, error) {
			return s.store.ListMessages(ctx, w.Start, w.End)
		})
		if err != nil {
			return ActivityReport{}, err
		}
		return AggregateActivity(sessions, messages, w.Start, w.End, topN), nil
	})
}

type CollectionHealthReport struct {
	Collections []CollectionHealth `json:"collections"`
}

func (s *Service) CollectionsHealth(ctx context.Context) (CollectionHealthReport, error) {
	collections, err := load(ctx, s, func() ([]models.Collection, error) {
		return s.store.ListCollections(ctx)
	})
	if err != nil {
		return CollectionHealthReport{}, err
	}

	report := CollectionHealthReport{Collections: make([]CollectionHealth, 0, len(collections))}
	for _, col := range collections {
		col := col
		pages, err := load(ctx, s, func() ([]models.Webpage, error) {
			return s.store.ListWebpages(ctx, col.ID)
		})
		if err != nil {
			return CollectionHealthReport{}, err
		}
		docs, err := load(ctx, s, func() ([]models.Document, error) {
			return s.store.ListDocuments(ctx, col.ID)
		})
		if err != nil {
			return CollectionHealthReport{}, err
		}
		report.Collections = append(report.Collections, ReportCollectionHealth(col, pages, docs))
	}

	return report, nil
}

// UserMetricsReport rolls the conversational-quality signals up for a single
// user's conversations.
type UserMetricsReport struct {
	UserID       string             `json:"user_id"`
	Sessions     int                `json:"sessions"`
	Messages     int                `json:"messages"`
	NoAnswer     NoAnswerReport     `json:"no_answer"`
	Sentiment    SentimentReport    `json:"sentiment"`
	AnswerLength AnswerLengthReport `json:"answer_length"`
}

func (s *Service) UserMetrics(ctx context.Context, userID string, w Window) (UserMetricsReport, error) {
	metric := "user_metrics:" + userID
	return cached(ctx, s, metric, w, func() (UserMetricsReport, error) {
		sessions, err := load(ctx, s, func() ([]models.ChatSession, error) {
			return s.store.ListSessionsByUser(ctx, userID, w.Start, w.End)
		})
		if err != nil {
			return UserMetricsReport{}, err
		}
		messages, err := load(ctx, s, func() ([]models.ChatMessage, error) {
			return s.store.ListMessagesByUser(ctx, userID, w.Start, w.End)
		})
		if err != nil {
			return UserMetricsReport{}, err
		}
		ratings, err := load(ctx, s, func() ([]models.MessageRating, error) {
			return s.store.ListRatings(ctx, w.Start, w.End)
		})
		if err != nil {
			return UserMetricsReport{}, err
		}

		sessionIDs := make(map[string]bool, len(sessions))
		for _, sess := range sessions {
			sessionIDs[sess.ID] = true
		}
		userRatings := ratings[:0:0]
		for _, r := range ratings {
			if sessionIDs[r.SessionID] {
				userRatings = append(userRatings, r)
			}
		}

		return UserMetricsReport{
			UserID:       userID,
			Sessions:     len(sessions),
			Messages:     len(messages),
			NoAnswer:     AnalyzeNoAnswers(messages, 5),
			Sentiment:    AnalyzeSatisfaction(messages, userRatings),
			AnswerLength: AnalyzeAnswerLength(messages),
		}, nil
	})
}
