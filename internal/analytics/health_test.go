package analytics

import (
	"testing"
	"time"

	"github.com/convoinsight/backend/internal/storage/models"
)

func TestCollectionHealthWebpages(t *testing.T) {
	col := models.Collection{ID: "docs", Name: "Documentation"}

	var pages []models.Webpage
	for i := 0; i < 7; i++ {
		at := baseTime.Add(time.Duration(i) * time.Hour)
		pages = append(pages, models.Webpage{
			ID: "p" + string(rune('0'+i)), CollectionID: "docs",
			HTTPStatus: 200, Indexed: true, IndexedAt: &at,
		})
	}
	pages = append(pages,
		models.Webpage{ID: "p7", CollectionID: "docs", HTTPStatus: 404},
		models.Webpage{ID: "p8", CollectionID: "docs", HTTPStatus: 404},
		models.Webpage{ID: "p9", CollectionID: "docs", HTTPStatus: 500},
	)

	health := ReportCollectionHealth(col, pages, nil)
	if health.Webpages.Pages != 10 {
		t.Fatalf("expected 10 pages, got %d", health.Webpages.Pages)
	}
	if health.Webpages.Status2xx != 7 || health.Webpages.Status4xx != 2 || health.Webpages.Status5xx != 1 {
		t.Fatalf("unexpected status split: %+v", health.Webpages)
	}
	if health.Webpages.IndexedPct == nil || *health.Webpages.IndexedPct != 70.0 {
		t.Fatalf("expected indexed_pct 70.0, got %v", health.Webpages.IndexedPct)
	}
	if health.LastIndexedAt == nil || !health.LastIndexedAt.Equal(baseTime.Add(6*time.Hour)) {
		t.Fatalf("expected freshest index time, got %v", health.LastIndexedAt)
	}
}

func TestCollectionHealthDocuments(t *testing.T) {
	col := models.Collection{ID: "docs", Name: "Documentation"}
	at := baseTime

	docs := []models.Document{
		{ID: "d1", CollectionID: "docs", SizeBytes: 1024, Indexed: true, Public: true, IndexedAt: &at},
		{ID: "d2", CollectionID: "docs", SizeBytes: 2048, Indexed: false, Public: false},
	}

	health := ReportCollectionHealth(col, nil, docs)
	if health.Documents.Documents != 2 || health.Documents.Indexed != 1 || health.Documents.Public != 1 {
		t.Fatalf("unexpected document counts: %+v", health.Documents)
	}
	if health.Documents.TotalBytes != 3072 {
		t.Fatalf("expected 3072 bytes, got %d", health.Documents.TotalBytes)
	}
	if health.Documents.IndexedPct == nil || *health.Documents.IndexedPct != 50.0 {
		t.Fatalf("expected indexed_pct 50.0, got %v", health.Documents.IndexedPct)
	}
}

func TestCollectionHealthEmptyCollection(t *testing.T) {
	col := models.Collection{ID: "empty", Name: "Empty"}

	health := ReportCollectionHealth(col, nil, nil)
	if health.Webpages.IndexedPct != nil || health.Documents.IndexedPct != nil {
		t.Fatal("percentages over a zero denominator must be null")
	}
	if health.LastIndexedAt != nil {
		t.Fatalf("expected null last_indexed_at, got %v", health.LastIndexedAt)
	}
}

func TestCollectionHealthNeverIndexed(t *testing.T) {
	col := models.Collection{ID: "docs", Name: "Documentation"}
	pages := []models.Webpage{
		{ID: "p1", CollectionID: "docs", HTTPStatus: 200},
	}

	health := ReportCollectionHealth(col, pages, nil)
	if health.Webpages.IndexedPct == nil || *health.Webpages.IndexedPct != 0 {
		t.Fatalf("crawled but unindexed collection must report 0, got %v", health.Webpages.IndexedPct)
	}
	if health.LastIndexedAt != nil {
		t.Fatal("expected null last_indexed_at when nothing was indexed")
	}
}
