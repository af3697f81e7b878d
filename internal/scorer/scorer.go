// Package scorer computes intent scores from a lead's text surface using the
// static signal catalog. Scoring is deterministic: same text, same catalog,
// same result.
package scorer

import (
	"sort"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/signal"
)

// MaxScore is the upper clamp applied to totals. There is no lower clamp:
// a text dominated by negative signals can go arbitrarily negative.
const MaxScore = 200

// Tier thresholds, inclusive lower bounds.
const (
	hotThreshold      = 150
	warmThreshold     = 75
	lukewarmThreshold = 25
)

// Match is one catalog phrase found in the haystack.
type Match struct {
	Phrase   string          `json:"phrase"`
	Category signal.Category `json:"category"`
	Weight   int             `json:"weight"`
}

// Result holds the outcome of scoring one text surface.
type Result struct {
	Total          int                     `json:"total"`
	Tier           model.Tier              `json:"tier"`
	Matches        []Match                 `json:"matches,omitempty"`
	CategoryScores map[signal.Category]int `json:"category_scores,omitempty"`
}

// IsNegative reports whether the total landed below zero.
func (r Result) IsNegative() bool { return r.Total < 0 }

// PrimaryCategory returns the category with the highest positive subtotal,
// or "" when no category scored above zero. Ties break alphabetically so the
// answer is stable.
func (r Result) PrimaryCategory() signal.Category {
	var best signal.Category
	bestScore := 0
	cats := make([]signal.Category, 0, len(r.CategoryScores))
	for c := range r.CategoryScores {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, c := range cats {
		if v := r.CategoryScores[c]; v > bestScore {
			best, bestScore = c, v
		}
	}
	return best
}

// Breakdown converts the result into the persistable form stored on a lead.
func (r Result) Breakdown() *model.ScoreBreakdown {
	b := &model.ScoreBreakdown{
		Matches:        make([]model.MatchedSignal, 0, len(r.Matches)),
		CategoryScores: make(map[string]int, len(r.CategoryScores)),
	}
	for _, m := range r.Matches {
		b.Matches = append(b.Matches, model.MatchedSignal{
			Phrase:   m.Phrase,
			Category: string(m.Category),
			Weight:   m.Weight,
		})
	}
	for c, v := range r.CategoryScores {
		b.CategoryScores[string(c)] = v
	}
	return b
}

// LeadScorer matches lead text against a compiled signal catalog.
type LeadScorer struct {
	catalog *signal.Catalog
}

// New creates a LeadScorer over the given catalog.
func New(catalog *signal.Catalog) *LeadScorer {
	return &LeadScorer{catalog: catalog}
}

// Score scores a lead's full text surface (notes + bio + messages + comments).
// The lead is not mutated; writing the result back is the caller's job.
func (s *LeadScorer) Score(lead model.Lead) Result {
	return s.ScoreText(lead.TextSurface())
}

// ScoreText scores a single piece of text. Each catalog phrase contributes at
// most once regardless of how many times it occurs. The total is clamped at
// MaxScore; negative totals are left unclamped.
func (s *LeadScorer) ScoreText(text string) Result {
	matched := s.catalog.Match(text)
	if len(matched) == 0 {
		return Result{Total: 0, Tier: model.TierCold}
	}

	result := Result{
		Matches:        make([]Match, 0, len(matched)),
		CategoryScores: make(map[signal.Category]int, len(matched)),
	}

	var total int
	for _, sig := range matched {
		result.Matches = append(result.Matches, Match{
			Phrase:   sig.Phrase,
			Category: sig.Category,
			Weight:   sig.Weight,
		})
		result.CategoryScores[sig.Category] += sig.Weight
		total += sig.Weight
	}

	if total > MaxScore {
		total = MaxScore
	}
	result.Total = total
	result.Tier = TierFor(total)
	return result
}

// TierFor maps a total score to its tier.
func TierFor(total int) model.Tier {
	switch {
	case total < 0:
		return model.TierNegative
	case total >= hotThreshold:
		return model.TierHot
	case total >= warmThreshold:
		return model.TierWarm
	case total >= lukewarmThreshold:
		return model.TierLukewarm
	default:
		return model.TierCold
	}
}
