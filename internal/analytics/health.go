package analytics

import (
	"time"

	"github.com/convoinsight/backend/internal/storage/models"
)

type WebpageHealth struct {
	Pages      int      `json:"pages"`
	Indexed    int      `json:"indexed"`
	Status2xx  int      `json:"status_2xx"`
	Status3xx  int      `json:"status_3xx"`
	Status4xx  int      `json:"status_4xx"`
	Status5xx  int      `json:"status_5xx"`
	IndexedPct *float64 `json:"indexed_pct"`
}

type DocumentHealth struct {
	Documents  int      `json:"documents"`
	Indexed    int      `json:"indexed"`
	Public     int      `json:"public"`
	TotalBytes int64    `json:"total_bytes"`
	IndexedPct *float64 `json:"indexed_pct"`
}

type CollectionHealth struct {
	CollectionID string         `json:"collection_id"`
	Name         string         `json:"name"`
	Webpages     WebpageHealth  `json:"webpages"`
	Documents    DocumentHealth `json:"documents"`
	// LastIndexedAt is the most recent indexing across the collection's
	// items; null when nothing has ever been indexed.
	LastIndexedAt *time.Time `json:"last_indexed_at"`
}

// ReportCollectionHealth summarizes crawl and indexing coverage for one
// collection. Percentages over a zero denominator are reported as null.
func ReportCollectionHealth(col models.Collection, pages []models.Webpage, docs []models.Document) CollectionHealth {
	health := CollectionHealth{CollectionID: col.ID, Name: col.Name}

	var freshest *time.Time
	touch := func(t *time.Time) {
		if t == nil {
			return
		}
		if freshest == nil || t.After(*freshest) {
			freshest = t
		}
	}

	for _, p := range pages {
		health.Webpages.Pages++
		if p.Indexed {
			health.Webpages.Indexed++
		}
		switch p.HTTPStatus / 100 {
		case 2:
			health.Webpages.Status2xx++
		case 3:
			health.Webpages.Status3xx++
		case 4:
			health.Webpages.Status4xx++
		case 5:
			health.Webpages.Status5xx++
		}
		touch(p.IndexedAt)
	}

	for _, d := range docs {
		health.Documents.Documents++
		if d.Indexed {
			health.Documents.Indexed++
		}
		if d.Public {
			health.Documents.Public++
		}
		health.Documents.TotalBytes += d.SizeBytes
		touch(d.IndexedAt)
	}

	if health.Webpages.Pages > 0 {
		v := pct(health.Webpages.Indexed, health.Webpages.Pages)
		health.Webpages.IndexedPct = &v
	}
	if health.Documents.Documents > 0 {
		v := pct(health.Documents.Indexed, health.Documents.Documents)
		health.Documents.IndexedPct = &v
	}
	health.LastIndexedAt = freshest

	return health
}
