package analytics

import (
	"sort"

	"github.com/convoinsight/backend/internal/storage/models"
)

const unknownCollection = "unknown"

// CollectionUsage aggregates retrieval-tool activity for one collection.
// AvgRetrieved is null when the collection has no completed retrievals, which
// is distinct from retrieving zero documents.
type CollectionUsage struct {
	CollectionID string   `json:"collection_id"`
	Started      int      `json:"started"`
	Completed    int      `json:"completed"`
	Failed       int      `json:"failed"`
	AvgRetrieved *float64 `json:"avg_retrieved"`
}

type ToolUsageReport struct {
	Collections []CollectionUsage `json:"collections"`
	TotalEvents int               `json:"total_events"`
}

// AggregateToolUsage filters the window down to retrieval-tool events and
// groups them by (status, collection). Events whose payload lacks a collection
// are bucketed under "unknown" rather than dropped.
func AggregateToolUsage(events []models.ChatEvent) ToolUsageReport {
	type acc struct {
		started, completed, failed int
		retrievedSum               int
		retrievedN                 int
	}
	byCollection := make(map[string]*acc)

	total := 0
	for _, e := range events {
		payload := e.DecodeToolPayload()
		if !isRetrievalEvent(e, payload) {
			continue
		}
		total++

		collection := payload.Collection
		if collection == "" {
			collection = unknownCollection
		}

		a, ok := byCollection[collection]
		if !ok {
			a = &acc{}
			byCollection[collection] = a
		}

		switch e.Status {
		case models.StatusStarted:
			a.started++
		case models.StatusCompleted:
			a.completed++
			if payload.Count != nil {
				a.retrievedSum += *payload.Count
				a.retrievedN++
			}
		case models.StatusFailed:
			a.failed++
		}
	}

	report := ToolUsageReport{TotalEvents: total, Collections: make([]CollectionUsage, 0, len(byCollection))}
	for collection, a := range byCollection {
		usage := CollectionUsage{
			CollectionID: collection,
			Started:      a.started,
			Completed:    a.completed,
			Failed:       a.failed,
		}
		if a.retrievedN > 0 {
			avg := round1(float64(a.retrievedSum) / float64(a.retrievedN))
			usage.AvgRetrieved = &avg
		}
		report.Collections = append(report.Collections, usage)
	}

	sort.Slice(report.Collections, func(i, j int) bool {
		return report.Collections[i].CollectionID < report.Collections[j].CollectionID
	})

	return report
}

func isRetrievalEvent(e models.ChatEvent, payload models.ToolPayload) bool {
	if e.EventType == models.EventToolSearchDocs {
		return true
	}
	return e.EventType == models.EventToolsExecuting && payload.Tool == "search_documents"
}
