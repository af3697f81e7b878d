package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogLoads(t *testing.T) {
	t.Parallel()

	c, err := Default()
	require.NoError(t, err)
	assert.Greater(t, c.Len(), 100)

	// Every category must be populated.
	for cat := range knownCategories {
		assert.NotEmpty(t, c.ByCategory(cat), "category %s has no entries", cat)
	}
}

func TestLoadRejectsBadCatalogs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"empty", `signals: []`},
		{"empty phrase", `signals: [{phrase: "", weight: 10, category: timeline}]`},
		{"unknown category", `signals: [{phrase: "asap", weight: 10, category: urgency}]`},
		{"duplicate phrase", "signals:\n  - {phrase: asap, weight: 10, category: timeline}\n  - {phrase: ASAP, weight: 20, category: timeline}"},
		{"not yaml", `{{{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestMatchWordBoundaries(t *testing.T) {
	t.Parallel()

	c, err := Load([]byte(`
signals:
  - {phrase: "might sell", weight: 40, category: seller_passive}
  - {phrase: "flip", weight: 50, category: investor}
`))
	require.NoError(t, err)

	// "seller's" must not trigger "sell" inside a longer word.
	assert.Empty(t, c.Match("the seller's market is wild"))

	// Whole-word occurrence matches regardless of case.
	got := c.Match("We MIGHT SELL next year")
	require.Len(t, got, 1)
	assert.Equal(t, "might sell", got[0].Phrase)

	// "flipping" does not contain a whole-word "flip".
	assert.Empty(t, c.Match("flipping through listings"))
	assert.Len(t, c.Match("want to flip a duplex"), 1)
}

func TestMatchDedupesRepeatedPhrases(t *testing.T) {
	t.Parallel()

	c, err := Default()
	require.NoError(t, err)

	got := c.Match("asap asap ASAP, I mean asap")
	var asap int
	for _, s := range got {
		if s.Phrase == "asap" {
			asap++
		}
	}
	assert.Equal(t, 1, asap)
}

func TestMatchEmptyText(t *testing.T) {
	t.Parallel()

	c, err := Default()
	require.NoError(t, err)
	assert.Nil(t, c.Match(""))
}

func TestPositiveWeightSumExceedsCeiling(t *testing.T) {
	t.Parallel()

	c, err := Default()
	require.NoError(t, err)
	// The catalog must be rich enough that the scorer's +200 clamp is reachable.
	assert.Greater(t, c.PositiveWeightSum(), 200)
}
