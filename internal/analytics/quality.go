package analytics

import (
	"sort"
	"strings"

	"github.com/convoinsight/backend/internal/storage/models"
)

// noAnswerPhrases are matched case-insensitively against assistant text. The
// phrase itself is the normalization bucket trigger examples are grouped by.
var noAnswerPhrases = []string{
	"i'm sorry",
	"i am sorry",
	"i apologize",
	"i don't have",
	"i do not have",
	"i don't know",
	"i do not know",
	"i couldn't find",
	"i could not find",
	"couldn't find any",
	"no information",
	"no relevant information",
	"i'm unable to",
	"i am unable to",
	"unable to find",
	"i cannot answer",
	"i can't answer",
	"cannot provide",
	"not in the provided",
	"outside my knowledge",
}

type NoAnswerTrigger struct {
	Phrase   string   `json:"phrase"`
	Count    int      `json:"count"`
	Examples []string `json:"examples"`
}

type NoAnswerReport struct {
	RatePct           float64           `json:"rate_pct"`
	NoAnswerCount     int               `json:"no_answer_count"`
	AssistantMessages int               `json:"assistant_messages"`
	Examples          []string          `json:"examples"`
	TopTriggers       []NoAnswerTrigger `json:"top_triggers"`
}

// AnalyzeNoAnswers flags assistant turns matching an apology/no-information
// phrase and captures the immediately preceding user message in the same
// session as a trigger example. Examples surface both as a flat list in
// encounter order and grouped per phrase bucket, deduplicated and ranked by
// phrase frequency.
func AnalyzeNoAnswers(messages []models.ChatMessage, maxTriggers int) NoAnswerReport {
	report := NoAnswerReport{}
	triggers := make(map[string]*NoAnswerTrigger)
	seen := make(map[string]map[string]bool)
	flatSeen := make(map[string]bool)

	for i, m := range messages {
		if m.Role != "assistant" {
			continue
		}
		report.AssistantMessages++

		text := strings.ToLower(m.DecodeContent().Text)
		phrase := matchNoAnswerPhrase(text)
		if phrase == "" {
			continue
		}
		report.NoAnswerCount++

		trigger, ok := triggers[phrase]
		if !ok {
			trigger = &NoAnswerTrigger{Phrase: phrase}
			triggers[phrase] = trigger
			seen[phrase] = make(map[string]bool)
		}
		trigger.Count++

		if example := precedingUserText(messages, i); example != "" {
			if !seen[phrase][example] {
				seen[phrase][example] = true
				trigger.Examples = append(trigger.Examples, example)
			}
			if !flatSeen[example] {
				flatSeen[example] = true
				report.Examples = append(report.Examples, example)
			}
		}
	}

	if maxTriggers > 0 && len(report.Examples) > maxTriggers {
		report.Examples = report.Examples[:maxTriggers]
	}
	if report.Examples == nil {
		report.Examples = []string{}
	}

	report.RatePct = pct(report.NoAnswerCount, report.AssistantMessages)

	for _, t := range triggers {
		report.TopTriggers = append(report.TopTriggers, *t)
	}
	sort.Slice(report.TopTriggers, func(i, j int) bool {
		if report.TopTriggers[i].Count != report.TopTriggers[j].Count {
			return report.TopTriggers[i].Count > report.TopTriggers[j].Count
		}
		return report.TopTriggers[i].Phrase < report.TopTriggers[j].Phrase
	})
	if maxTriggers > 0 && len(report.TopTriggers) > maxTriggers {
		report.TopTriggers = report.TopTriggers[:maxTriggers]
	}
	if report.TopTriggers == nil {
		report.TopTriggers = []NoAnswerTrigger{}
	}

	return report
}

func matchNoAnswerPhrase(lowered string) string {
	for _, phrase := range noAnswerPhrases {
		if strings.Contains(lowered, phrase) {
			return phrase
		}
	}
	return ""
}

// precedingUserText walks backwards within the same session for the user turn
// that triggered the flagged answer.
func precedingUserText(messages []models.ChatMessage, idx int) string {
	sessionID := messages[idx].SessionID
	for i := idx - 1; i >= 0; i-- {
		if messages[i].SessionID != sessionID {
			continue
		}
		if messages[i].Role == "user" {
			return messages[i].DecodeContent().Text
		}
	}
	return ""
}

type CollectionCitations struct {
	CollectionID string `json:"collection_id"`
	Citations    int    `json:"citations"`
}

type CitationReport struct {
	CoveragePct       float64               `json:"coverage_pct"`
	AvgCitations      *float64              `json:"avg_citations"`
	CitedMessages     int                   `json:"cited_messages"`
	AssistantMessages int                   `json:"assistant_messages"`
	ByCollection      []CollectionCitations `json:"by_collection,omitempty"`
}

// AnalyzeCitations measures how many assistant turns carry a non-empty sources
// list. The average counts only cited messages. The per-collection breakdown
// is emitted only when sources actually carry collection hints; it is never
// fabricated from zeros.
func AnalyzeCitations(messages []models.ChatMessage) CitationReport {
	report := CitationReport{}
	citationTotal := 0
	byCollection := make(map[string]int)

	for _, m := range messages {
		if m.Role != "assistant" {
			continue
		}
		report.AssistantMessages++

		sources := m.DecodeContent().Sources
		if len(sources) == 0 {
			continue
		}
		report.CitedMessages++
		citationTotal += len(sources)

		for _, s := range sources {
			if s.CollectionID != "" {
				byCollection[s.CollectionID]++
			}
		}
	}

	report.CoveragePct = pct(report.CitedMessages, report.AssistantMessages)
	if report.CitedMessages > 0 {
		avg := round1(float64(citationTotal) / float64(report.CitedMessages))
		report.AvgCitations = &avg
	}

	if len(byCollection) > 0 {
		for id, n := range byCollection {
			report.ByCollection = append(report.ByCollection, CollectionCitations{CollectionID: id, Citations: n})
		}
		sort.Slice(report.ByCollection, func(i, j int) bool {
			return report.ByCollection[i].CollectionID < report.ByCollection[j].CollectionID
		})
	}

	return report
}

type LengthBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type AnswerLengthReport struct {
	AvgWords          *float64       `json:"avg_words"`
	MedianWords       *float64       `json:"median_words"`
	AssistantMessages int            `json:"assistant_messages"`
	Distribution      []LengthBucket `json:"distribution"`
}

// AnalyzeAnswerLength buckets assistant answers by whitespace-tokenized word
// count. The fixed buckets are always emitted, zero-filled.
func AnalyzeAnswerLength(messages []models.ChatMessage) AnswerLengthReport {
	buckets := []LengthBucket{
		{Label: "<20"},
		{Label: "20-49"},
		{Label: "50-99"},
		{Label: "100+"},
	}

	var counts []float64
	for _, m := range messages {
		if m.Role != "assistant" {
			continue
		}

		words := len(strings.Fields(m.DecodeContent().Text))
		counts = append(counts, float64(words))

		switch {
		case words < 20:
			buckets[0].Count++
		case words < 50:
			buckets[1].Count++
		case words < 100:
			buckets[2].Count++
		default:
			buckets[3].Count++
		}
	}

	return AnswerLengthReport{
		AvgWords:          round1p(mean(counts)),
		MedianWords:       round1p(median(counts)),
		AssistantMessages: len(counts),
		Distribution:      buckets,
	}
}
