// Package analyze turns collected bundles into comparable signals:
// sentiment, trend terms, peer deltas, and influencer rankings. All
// functions are deterministic and total; the only optional dependency is
// the completion provider, which always has a keyword fallback.
package analyze

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/signalscale/signalscale/internal/llm"
	"github.com/signalscale/signalscale/internal/signal"
)

// Fixed sentiment lexicons. Matching is case-insensitive substring.
var (
	positiveKeywords = []string{
		"love", "amazing", "great", "excellent", "awesome", "perfect",
		"quality", "fire", "fresh", "clean", "recommend", "worth it",
		"must have", "iconic", "comfortable",
	}
	negativeKeywords = []string{
		"trash", "terrible", "awful", "disappointed", "overpriced",
		"cheap", "waste", "regret", "fake", "knockoff", "poor quality",
		"overrated", "refund", "broken",
	}
)

const (
	maxSentimentTexts = 50
	maxSentimentChars = 500
)

const sentimentPrompt = `You are scoring consumer sentiment about a brand from public posts.

Posts:
%s

Respond with ONLY this JSON:
{
    "score": -1.0 to 1.0,
    "summary": "One sentence on the dominant sentiment themes"
}`

// AnalyzeSentimentBatch scores free text with the keyword lexicons.
// Always returns a result, never an error.
func AnalyzeSentimentBatch(texts []string) signal.SentimentResult {
	var pos, neg int
	for _, text := range texts {
		t := strings.ToLower(text)
		for _, kw := range positiveKeywords {
			pos += strings.Count(t, kw)
		}
		for _, kw := range negativeKeywords {
			neg += strings.Count(t, kw)
		}
	}

	score := float64(pos-neg) / math.Max(1, float64(pos+neg))
	return signal.SentimentResult{
		Method:  "keyword",
		Count:   len(texts),
		Score:   math.Round(score*1000) / 1000,
		PosHits: pos,
		NegHits: neg,
	}
}

// AnalyzeSentimentBatchWith prefers the completion provider for a richer
// summary, falling back to the keyword method on any failure. A nil
// provider selects the keyword method directly.
func AnalyzeSentimentBatchWith(ctx context.Context, provider llm.Provider, texts []string) signal.SentimentResult {
	keyword := AnalyzeSentimentBatch(texts)
	if provider == nil || !provider.IsConfigured() || len(texts) == 0 {
		return keyword
	}

	sample := texts
	if len(sample) > maxSentimentTexts {
		sample = sample[:maxSentimentTexts]
	}
	var b strings.Builder
	for _, t := range sample {
		if len(t) > maxSentimentChars {
			t = t[:maxSentimentChars]
		}
		b.WriteString("- ")
		b.WriteString(strings.TrimSpace(t))
		b.WriteString("\n")
	}

	response, err := provider.Generate(ctx, fmt.Sprintf(sentimentPrompt, b.String()), 256)
	if err != nil {
		log.Printf("Sentiment enrichment failed, using keyword method: %v", err)
		return keyword
	}

	enriched := keyword
	enriched.Method = "llm"

	parsed := llm.ParseJSONResponse(response)
	if parsed == nil {
		// Unparseable structured output degrades to a raw-text wrapper.
		enriched.Summary = strings.TrimSpace(response)
		return enriched
	}
	if score, ok := parsed["score"].(float64); ok {
		enriched.Score = signal.ClampRating(math.Round(score*1000)/1000, -1, 1)
	}
	if summary, ok := parsed["summary"].(string); ok {
		enriched.Summary = summary
	}
	return enriched
}
