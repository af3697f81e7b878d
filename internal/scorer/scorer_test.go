package scorer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/signal"
)

func newScorer(t *testing.T) *LeadScorer {
	t.Helper()
	catalog, err := signal.Default()
	require.NoError(t, err)
	return New(catalog)
}

func TestScoreEmptyText(t *testing.T) {
	t.Parallel()
	s := newScorer(t)

	result := s.ScoreText("")
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, model.TierCold, result.Tier)
	assert.Empty(t, result.Matches)
}

func TestScoreHotBuyer(t *testing.T) {
	t.Parallel()
	s := newScorer(t)

	result := s.ScoreText("First time homebuyer, preapproved, looking in Powell")

	phrases := matchedPhrases(result)
	assert.Contains(t, phrases, "first time homebuyer")
	assert.Contains(t, phrases, "preapproved")
	assert.Contains(t, phrases, "powell")

	assert.Equal(t, MaxScore, result.Total)
	assert.Equal(t, model.TierHot, result.Tier)
	assert.Positive(t, result.CategoryScores[signal.CategoryBuyerActive])
	assert.Positive(t, result.CategoryScores[signal.CategoryLocation])
}

func TestScoreNegativeRealtor(t *testing.T) {
	t.Parallel()
	s := newScorer(t)

	result := s.ScoreText("I work as a realtor at Keller Williams")
	assert.Negative(t, result.Total)
	assert.Equal(t, model.TierNegative, result.Tier)
	assert.True(t, result.IsNegative())
	assert.Negative(t, result.CategoryScores[signal.CategoryNegative])
}

func TestScoreIsDeterministic(t *testing.T) {
	t.Parallel()
	s := newScorer(t)

	lead := model.Lead{
		Bio:      "Getting married and relocating to Dublin",
		Notes:    "lease is up next month",
		Messages: []string{"need a realtor asap"},
	}

	first := s.Score(lead)
	second := s.Score(lead)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.Tier, second.Tier)
	assert.Equal(t, first.Matches, second.Matches)
	assert.Equal(t, first.CategoryScores, second.CategoryScores)
}

func TestScoreClampsAtCeiling(t *testing.T) {
	t.Parallel()

	catalog, err := signal.Default()
	require.NoError(t, err)
	s := New(catalog)

	// A haystack containing every positive phrase must clamp at exactly 200.
	var b strings.Builder
	for _, sig := range catalog.Signals() {
		if sig.Weight > 0 {
			b.WriteString(sig.Phrase)
			b.WriteString(". ")
		}
	}
	result := s.ScoreText(b.String())
	assert.Equal(t, MaxScore, result.Total)
	assert.Equal(t, model.TierHot, result.Tier)
}

func TestScorePhraseCountsOnce(t *testing.T) {
	t.Parallel()
	s := newScorer(t)

	once := s.ScoreText("ready to buy")
	thrice := s.ScoreText("ready to buy, ready to buy, READY TO BUY")
	assert.Equal(t, once.Total, thrice.Total)
	assert.Len(t, thrice.Matches, len(once.Matches))
}

func TestScoreCaseInsensitive(t *testing.T) {
	t.Parallel()
	s := newScorer(t)

	lower := s.ScoreText("first time homebuyer")
	upper := s.ScoreText("FIRST TIME HOMEBUYER")
	mixed := s.ScoreText("First Time Homebuyer")
	assert.Equal(t, lower.Total, upper.Total)
	assert.Equal(t, lower.Total, mixed.Total)
}

func TestTierBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total int
		want  model.Tier
	}{
		{200, model.TierHot},
		{150, model.TierHot},
		{149, model.TierWarm},
		{75, model.TierWarm},
		{74, model.TierLukewarm},
		{25, model.TierLukewarm},
		{24, model.TierCold},
		{0, model.TierCold},
		{-1, model.TierNegative},
		{-500, model.TierNegative},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.total), "total=%d", tt.total)
	}
}

func TestScoreCombinesAllTextSources(t *testing.T) {
	t.Parallel()
	s := newScorer(t)

	lead := model.Lead{
		Notes:    "looking for a house",
		Bio:      "first time homebuyer",
		Messages: []string{"I'm preapproved"},
		Comments: []string{"we love Westerville"},
	}
	result := s.Score(lead)

	phrases := matchedPhrases(result)
	assert.Contains(t, phrases, "looking for a house")
	assert.Contains(t, phrases, "first time homebuyer")
	assert.Contains(t, phrases, "preapproved")
	assert.Contains(t, phrases, "westerville")
}

func TestPrimaryCategory(t *testing.T) {
	t.Parallel()
	s := newScorer(t)

	result := s.ScoreText("ready to buy, preapproved, in ohio")
	assert.Equal(t, signal.CategoryBuyerActive, result.PrimaryCategory())

	assert.Equal(t, signal.Category(""), s.ScoreText("nothing relevant here at all").PrimaryCategory())
	assert.Equal(t, signal.Category(""), s.ScoreText("unsubscribe").PrimaryCategory())
}

func TestBreakdownRoundTrip(t *testing.T) {
	t.Parallel()
	s := newScorer(t)

	result := s.ScoreText("thinking about selling my condo in Bexley")
	b := result.Breakdown()
	require.NotNil(t, b)
	assert.Len(t, b.Matches, len(result.Matches))
	for c, v := range result.CategoryScores {
		assert.Equal(t, v, b.CategoryScores[string(c)])
	}
}

func matchedPhrases(r Result) []string {
	out := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		out = append(out, m.Phrase)
	}
	return out
}
