package analytics

import (
	"sort"

	"github.com/convoinsight/backend/internal/storage/models"
)

// Correlation groups raw lifecycle events into per-message stage sequences.
// Events without a message id fall back to their session so partial pipelines
// still form a timeline. No canonical stage order is enforced here; consumers
// locate the stage pairs they need and tolerate gaps or duplicates.
type Correlation struct {
	Sequences map[string][]models.ChatEvent
	Skipped   int
}

const sessionKeyPrefix = "session:"

// CorrelateEvents orders each group by timestamp, ties broken by the order the
// rows arrived in. Rows with a zero timestamp are dropped and counted, never
// fatal.
func CorrelateEvents(events []models.ChatEvent) Correlation {
	corr := Correlation{Sequences: make(map[string][]models.ChatEvent)}

	for _, e := range events {
		if e.CreatedAt.IsZero() {
			corr.Skipped++
			continue
		}

		key := e.MessageID
		if key == "" {
			if e.SessionID == "" {
				corr.Skipped++
				continue
			}
			key = sessionKeyPrefix + e.SessionID
		}

		corr.Sequences[key] = append(corr.Sequences[key], e)
	}

	for key := range corr.Sequences {
		seq := corr.Sequences[key]
		sort.SliceStable(seq, func(i, j int) bool {
			return seq[i].CreatedAt.Before(seq[j].CreatedAt)
		})
	}

	return corr
}

// Keys returns the correlation keys in deterministic order.
func (c Correlation) Keys() []string {
	keys := make([]string, 0, len(c.Sequences))
	for k := range c.Sequences {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
