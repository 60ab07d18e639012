package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/convoinsight/backend/internal/storage/models"
)

type fakeStore struct {
	events      []models.ChatEvent
	messages    []models.ChatMessage
	sessions    []models.ChatSession
	ratings     []models.MessageRating
	collections []models.Collection
	documents   []models.Document
	webpages    []models.Webpage

	err   error
	calls int
}

func (f *fakeStore) ListEvents(ctx context.Context, start, end time.Time) ([]models.ChatEvent, error) {
	f.calls++
	return f.events, f.err
}

func (f *fakeStore) ListMessages(ctx context.Context, start, end time.Time) ([]models.ChatMessage, error) {
	f.calls++
	return f.messages, f.err
}

func (f *fakeStore) ListMessagesByUser(ctx context.Context, userID string, start, end time.Time) ([]models.ChatMessage, error) {
	f.calls++
	return f.messages, f.err
}

func (f *fakeStore) ListSessions(ctx context.Context, start, end time.Time) ([]models.ChatSession, error) {
	f.calls++
	return f.sessions, f.err
}

func (f *fakeStore) ListSessionsByUser(ctx context.Context, userID string, start, end time.Time) ([]models.ChatSession, error) {
	f.calls++
	return f.sessions, f.err
}

func (f *fakeStore) ListRatings(ctx context.Context, start, end time.Time) ([]models.MessageRating, error) {
	f.calls++
	return f.ratings, f.err
}

func (f *fakeStore) ListCollections(ctx context.Context) ([]models.Collection, error) {
	f.calls++
	return f.collections, f.err
}

func (f *fakeStore) ListDocuments(ctx context.Context, collectionID string) ([]models.Document, error) {
	f.calls++
	return f.documents, f.err
}

func (f *fakeStore) ListWebpages(ctx context.Context, collectionID string) ([]models.Webpage, error) {
	f.calls++
	return f.webpages, f.err
}

type memCache struct {
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, metric, windowKey string, out interface{}) (bool, error) {
	raw, ok := c.entries[metric+"|"+windowKey]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (c *memCache) Set(ctx context.Context, metric, windowKey string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[metric+"|"+windowKey] = raw
	return nil
}

func (c *memCache) Invalidate(ctx context.Context) error {
	c.entries = make(map[string][]byte)
	return nil
}

func TestResolveWindowDefaults(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	w, err := ResolveWindow("", "", now, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.End.Equal(now) {
		t.Fatalf("expected end=now, got %v", w.End)
	}
	if !w.Start.Equal(now.AddDate(0, 0, -30)) {
		t.Fatalf("expected 30-day lookback, got %v", w.Start)
	}
}

func TestResolveWindowConfiguredLookback(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	w, err := ResolveWindow("", "", now, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Start.Equal(now.AddDate(0, 0, -7)) {
		t.Fatalf("expected 7-day lookback, got %v", w.Start)
	}
}

func TestResolveWindowBareEndDateIsInclusive(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	w, err := ResolveWindow("2026-03-01", "2026-03-05", now, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.End.Equal(time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("bare end date must cover the whole day, got %v", w.End)
	}
}

func TestResolveWindowRejectsReversedRange(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	_, err := ResolveWindow("2026-03-09", "2026-03-01", now, 0)
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestResolveWindowRejectsGarbage(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	if _, err := ResolveWindow("last tuesday", "", now, 0); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange for start, got %v", err)
	}
	if _, err := ResolveWindow("", "soon", now, 0); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange for end, got %v", err)
	}
}

func TestResolveWindowAcceptsRFC3339(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	w, err := ResolveWindow("2026-03-01T08:30:00Z", "2026-03-02T17:45:00Z", now, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.End.Hour() != 17 || w.End.Minute() != 45 {
		t.Fatalf("timestamp end must not be extended, got %v", w.End)
	}
}

func TestServiceLatencyEndToEnd(t *testing.T) {
	store := &fakeStore{
		events: []models.ChatEvent{
			event("m1", "s1", models.EventMessageReceived, models.StatusCompleted, 0),
			event("m1", "s1", models.EventResponseGenerating, models.StatusStarted, time.Second),
			event("m1", "s1", models.EventResponseGenerating, models.StatusCompleted, 2*time.Second),
		},
	}
	svc := NewService(store, nil, nil, Options{})
	w := Window{Start: baseTime.Add(-time.Hour), End: baseTime.Add(time.Hour)}

	report, err := svc.Latency(context.Background(), w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Samples != 1 {
		t.Fatalf("expected 1 sample, got %d", report.Samples)
	}
}

func TestServiceFailingStoreSurfacesUpstreamError(t *testing.T) {
	store := &fakeStore{err: errors.New("disk on fire")}
	svc := NewService(store, nil, nil, Options{})
	svc.retry.BaseDelay = time.Millisecond
	w := Window{Start: baseTime.Add(-time.Hour), End: baseTime}

	_, err := svc.Latency(context.Background(), w)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if store.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", store.calls)
	}
}

func TestServiceCancelledContextIsNotUpstreamError(t *testing.T) {
	store := &fakeStore{err: errors.New("slow")}
	svc := NewService(store, nil, nil, Options{})
	w := Window{Start: baseTime.Add(-time.Hour), End: baseTime}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Latency(ctx, w)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatal("cancellation must not be reported as upstream unavailability")
	}
}

func TestServiceResultCacheShortCircuitsStore(t *testing.T) {
	store := &fakeStore{
		messages: []models.ChatMessage{
			message("s1", "assistant", `{"text":"I'm sorry, I don't know."}`, 0),
		},
	}
	svc := NewService(store, newMemCache(), nil, Options{})
	w := Window{Start: baseTime.Add(-time.Hour), End: baseTime.Add(time.Hour)}

	first, err := svc.NoAnswerRate(context.Background(), w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	callsAfterFirst := store.calls

	second, err := svc.NoAnswerRate(context.Background(), w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.calls != callsAfterFirst {
		t.Fatalf("cached window must not touch the store again: %d calls", store.calls)
	}
	if first.NoAnswerCount != second.NoAnswerCount || first.RatePct != second.RatePct {
		t.Fatal("cached result diverged from computed result")
	}
}

func TestServiceDistinctWindowsGetDistinctCacheEntries(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, newMemCache(), nil, Options{})

	w1 := Window{Start: baseTime.Add(-2 * time.Hour), End: baseTime}
	w2 := Window{Start: baseTime.Add(-time.Hour), End: baseTime}
	if w1.Key() == w2.Key() {
		t.Fatal("distinct windows must not share a cache key")
	}

	if _, err := svc.Latency(context.Background(), w1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	calls := store.calls
	if _, err := svc.Latency(context.Background(), w2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.calls == calls {
		t.Fatal("second window should have required a fresh load")
	}
}

func TestServiceTopTriggersOption(t *testing.T) {
	store := &fakeStore{
		messages: []models.ChatMessage{
			message("s1", "user", `{"text":"first question"}`, 0),
			message("s1", "assistant", `{"text":"I'm sorry, no idea."}`, 1),
			message("s2", "user", `{"text":"second question"}`, 0),
			message("s2", "assistant", `{"text":"I couldn't find anything."}`, 1),
		},
	}
	svc := NewService(store, nil, nil, Options{TopTriggers: 1})
	w := Window{Start: baseTime.Add(-time.Hour), End: baseTime.Add(time.Hour)}

	report, err := svc.NoAnswerRate(context.Background(), w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.NoAnswerCount != 2 {
		t.Fatalf("expected 2 no-answers, got %d", report.NoAnswerCount)
	}
	if len(report.TopTriggers) != 1 {
		t.Fatalf("configured cap must limit trigger buckets, got %d", len(report.TopTriggers))
	}
}

func TestServiceCollectionsHealth(t *testing.T) {
	at := baseTime
	store := &fakeStore{
		collections: []models.Collection{{ID: "docs", Name: "Documentation"}},
		webpages: []models.Webpage{
			{ID: "p1", CollectionID: "docs", HTTPStatus: 200, Indexed: true, IndexedAt: &at},
			{ID: "p2", CollectionID: "docs", HTTPStatus: 404},
		},
		documents: []models.Document{
			{ID: "d1", CollectionID: "docs", SizeBytes: 512, Indexed: true, IndexedAt: &at},
		},
	}
	svc := NewService(store, nil, nil, Options{})

	report, err := svc.CollectionsHealth(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Collections) != 1 {
		t.Fatalf("expected 1 collection, got %d", len(report.Collections))
	}
	col := report.Collections[0]
	if col.Webpages.IndexedPct == nil || *col.Webpages.IndexedPct != 50.0 {
		t.Fatalf("expected webpage indexed_pct 50.0, got %v", col.Webpages.IndexedPct)
	}
	if col.Documents.TotalBytes != 512 {
		t.Fatalf("expected 512 bytes, got %d", col.Documents.TotalBytes)
	}
}

func TestServiceUserMetricsFiltersRatingsBySession(t *testing.T) {
	store := &fakeStore{
		sessions: []models.ChatSession{sessionAt("mine", baseTime)},
		messages: []models.ChatMessage{
			message("mine", "user", `{"text":"great, thanks"}`, 0),
		},
		ratings: []models.MessageRating{
			{ID: 1, SessionID: "mine", MessageID: "m1", Rating: 5},
			{ID: 2, SessionID: "other", MessageID: "m2", Rating: 1},
		},
	}
	svc := NewService(store, nil, nil, Options{})
	w := Window{Start: baseTime.Add(-time.Hour), End: baseTime.Add(time.Hour)}

	report, err := svc.UserMetrics(context.Background(), "u1", w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Sessions != 1 || report.Messages != 1 {
		t.Fatalf("unexpected rollup counts: %+v", report)
	}
	if report.Sentiment.TotalExplicitRatings != 1 {
		t.Fatalf("ratings from other users' sessions must be excluded, got %d",
			report.Sentiment.TotalExplicitRatings)
	}
	if report.Sentiment.ExplicitRatingScore == nil || *report.Sentiment.ExplicitRatingScore != 5.0 {
		t.Fatalf("expected explicit score 5.0, got %v", report.Sentiment.ExplicitRatingScore)
	}
}
