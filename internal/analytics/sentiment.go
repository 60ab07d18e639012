package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/convoinsight/backend/internal/storage/models"
)

const (
	positiveThreshold   = 0.05
	negativeThreshold   = -0.05
	escalationThreshold = -0.5

	compositeSentimentWeight = 0.7
	compositeRatingWeight    = 0.3
)

// ScoreSentiment runs the lexicon analyzer over one text and returns a
// compound value in [-1, 1]. Deterministic for identical input.
func ScoreSentiment(text string) float64 {
	tokens := tokenize(text)

	var sum float64
	for i, tok := range tokens {
		if negations[tok] || boosters[tok] != 0 {
			continue
		}

		valence, ok := sentimentLexicon[tok]
		if !ok {
			continue
		}

		// Look back a short window for modifiers.
		for j := i - 1; j >= 0 && j >= i-3; j-- {
			prev := tokens[j]
			if boost, ok := boosters[prev]; ok {
				if valence > 0 {
					valence += boost
				} else {
					valence -= boost
				}
				continue
			}
			if negations[prev] {
				valence *= -0.74
				break
			}
		}

		sum += valence
	}

	// Exclamation marks amplify whichever direction the text already leans.
	exclaims := strings.Count(text, "!")
	if exclaims > 4 {
		exclaims = 4
	}
	if sum > 0 {
		sum += float64(exclaims) * 0.292
	} else if sum < 0 {
		sum -= float64(exclaims) * 0.292
	}

	compound := sum / math.Sqrt(sum*sum+15)
	if compound > 1 {
		compound = 1
	}
	if compound < -1 {
		compound = -1
	}
	return compound
}

// tokenize lowercases and splits via the prose tokenizer; tagging and entity
// extraction are disabled since only the word stream matters here. Falls back
// to whitespace splitting when prose rejects the input.
func tokenize(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return strings.Fields(strings.ToLower(text))
	}

	raw := doc.Tokens()
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		tokens = append(tokens, strings.ToLower(t.Text))
	}
	return tokens
}

// ClassifySentiment applies the fixed compound thresholds.
func ClassifySentiment(compound float64) string {
	switch {
	case compound >= positiveThreshold:
		return "positive"
	case compound <= negativeThreshold:
		return "negative"
	default:
		return "neutral"
	}
}

// SatisfactionFromCompound remaps compound [-1, 1] linearly onto a 1-5 scale.
func SatisfactionFromCompound(compound float64) float64 {
	return 3 + compound*2
}

type SentimentReport struct {
	AnalyzedMessages      int      `json:"analyzed_messages"`
	PositiveCount         int      `json:"positive_count"`
	NegativeCount         int      `json:"negative_count"`
	NeutralCount          int      `json:"neutral_count"`
	AvgCompound           *float64 `json:"avg_compound"`
	SentimentSatisfaction *float64 `json:"sentiment_satisfaction"`
	EscalationCount       int      `json:"escalation_count"`
	EscalationRatePct     float64  `json:"escalation_rate_pct"`
	ExplicitRatingScore   *float64 `json:"explicit_rating_score"`
	TotalExplicitRatings  int      `json:"total_explicit_ratings"`
	CompositeScore        *float64 `json:"composite_score"`
	SentimentOnly         bool     `json:"sentiment_only"`
	Correlation           *float64 `json:"correlation"`
	PairedSampleCount     int      `json:"paired_sample_count"`
}

// AnalyzeSatisfaction fuses lexicon sentiment over user messages with explicit
// ratings into the composite score, and cross-validates the inferred signal
// via Pearson correlation over per-conversation means.
func AnalyzeSatisfaction(messages []models.ChatMessage, ratings []models.MessageRating) SentimentReport {
	report := SentimentReport{}

	var compoundSum, satisfactionSum float64
	sessionSatisfaction := make(map[string][]float64)

	for _, m := range messages {
		if m.Role != "user" {
			continue
		}

		compound := ScoreSentiment(m.DecodeContent().Text)
		report.AnalyzedMessages++
		compoundSum += compound

		satisfaction := SatisfactionFromCompound(compound)
		satisfactionSum += satisfaction
		sessionSatisfaction[m.SessionID] = append(sessionSatisfaction[m.SessionID], satisfaction)

		switch ClassifySentiment(compound) {
		case "positive":
			report.PositiveCount++
		case "negative":
			report.NegativeCount++
		default:
			report.NeutralCount++
		}

		if compound <= escalationThreshold {
			report.EscalationCount++
		}
	}

	if report.AnalyzedMessages > 0 {
		avgCompound := round2(compoundSum / float64(report.AnalyzedMessages))
		report.AvgCompound = &avgCompound

		satisfaction := round2(satisfactionSum / float64(report.AnalyzedMessages))
		report.SentimentSatisfaction = &satisfaction
	}
	report.EscalationRatePct = pct(report.EscalationCount, report.AnalyzedMessages)

	sessionRatings := make(map[string][]float64)
	var ratingSum float64
	for _, r := range ratings {
		report.TotalExplicitRatings++
		ratingSum += float64(r.Rating)
		sessionRatings[r.SessionID] = append(sessionRatings[r.SessionID], float64(r.Rating))
	}
	if report.TotalExplicitRatings > 0 {
		score := round2(ratingSum / float64(report.TotalExplicitRatings))
		report.ExplicitRatingScore = &score
	}

	// Composite falls back to the sentiment-only value when the window has no
	// explicit ratings; the fallback is marked, never silent.
	if report.SentimentSatisfaction != nil {
		if report.ExplicitRatingScore != nil {
			composite := round2(compositeSentimentWeight**report.SentimentSatisfaction +
				compositeRatingWeight**report.ExplicitRatingScore)
			report.CompositeScore = &composite
		} else {
			composite := *report.SentimentSatisfaction
			report.CompositeScore = &composite
			report.SentimentOnly = true
		}
	}

	report.Correlation, report.PairedSampleCount = correlateSatisfaction(sessionSatisfaction, sessionRatings)

	return report
}

// correlateSatisfaction pairs per-conversation sentiment means against
// per-conversation rating means. Fewer than two pairs yields a null
// coefficient with a paired count of zero.
func correlateSatisfaction(sessionSatisfaction, sessionRatings map[string][]float64) (*float64, int) {
	var inferred, explicit []float64

	keys := make([]string, 0, len(sessionSatisfaction))
	for id := range sessionSatisfaction {
		keys = append(keys, id)
	}
	sort.Strings(keys)

	for _, id := range keys {
		ratings, ok := sessionRatings[id]
		if !ok || len(ratings) == 0 {
			continue
		}
		inferred = append(inferred, avgOf(sessionSatisfaction[id]))
		explicit = append(explicit, avgOf(ratings))
	}

	if len(inferred) < 2 {
		return nil, 0
	}

	coeff := pearson(inferred, explicit)
	if coeff == nil {
		return nil, len(inferred)
	}
	rounded := round2(*coeff)
	return &rounded, len(inferred)
}

func avgOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
