package analyze

import (
	"sort"

	"github.com/signalscale/signalscale/internal/signal"
)

const (
	maxInfluencePosts  = 50
	topCreators        = 5
	influenceBaseScore = 60
	noteTitleLen       = 120
)

// ScoreInfluence ranks the merged brand and competitor social posts by
// engagement and surfaces the strongest creators as watchlist signals.
// Each signal carries a distinct label so downstream dedupe keeps all of
// them.
func ScoreInfluence(brandName string, brandPosts, compPosts []signal.Post) []signal.Signal {
	merged := make([]signal.Post, 0, len(brandPosts)+len(compPosts))
	merged = append(merged, brandPosts...)
	merged = append(merged, compPosts...)
	if len(merged) > maxInfluencePosts {
		merged = merged[:maxInfluencePosts]
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Engagement != merged[j].Engagement {
			return merged[i].Engagement > merged[j].Engagement
		}
		return merged[i].Comments > merged[j].Comments
	})

	var signals []signal.Signal
	for _, post := range merged {
		if len(signals) >= topCreators {
			break
		}
		title := post.Title
		if runes := []rune(title); len(runes) > noteTitleLen {
			title = string(runes[:noteTitleLen])
		}
		signals = append(signals, signal.Signal{
			Brand:      brandName,
			Label:      "Creator to watch: " + title,
			Note:       title + " " + post.URL,
			Score:      influenceBaseScore,
			Confidence: 0.6,
			Source:     post.Platform,
		})
	}
	return signals
}

// DedupeSignals drops later signals that repeat an earlier
// (competitor, label) pair, keeping input order.
func DedupeSignals(signals []signal.Signal) []signal.Signal {
	type key struct {
		competitor string
		label      string
	}
	seen := make(map[key]struct{}, len(signals))
	out := make([]signal.Signal, 0, len(signals))
	for _, s := range signals {
		k := key{s.Competitor, s.Label}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}
