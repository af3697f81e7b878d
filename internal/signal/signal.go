// Package signal holds the static catalog of weighted intent phrases and
// compiles it into word-boundary matchers for the scorer.
package signal

import (
	_ "embed"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Category classifies an intent signal.
type Category string

const (
	CategoryBuyerActive   Category = "buyer_active"
	CategoryBuyerPassive  Category = "buyer_passive"
	CategorySellerActive  Category = "seller_active"
	CategorySellerPassive Category = "seller_passive"
	CategoryInvestor      Category = "investor"
	CategoryTimeline      Category = "timeline"
	CategoryLocation      Category = "location"
	CategoryLifeEvent     Category = "life_event"
	CategoryFinancial     Category = "financial"
	CategoryNegative      Category = "negative"
)

// knownCategories guards catalog loading against typos in the YAML.
var knownCategories = map[Category]bool{
	CategoryBuyerActive:   true,
	CategoryBuyerPassive:  true,
	CategorySellerActive:  true,
	CategorySellerPassive: true,
	CategoryInvestor:      true,
	CategoryTimeline:      true,
	CategoryLocation:      true,
	CategoryLifeEvent:     true,
	CategoryFinancial:     true,
	CategoryNegative:      true,
}

// Signal is a single catalog entry: a phrase matched case-insensitively with
// word-boundary semantics, and its signed weight.
type Signal struct {
	Phrase   string   `yaml:"phrase" json:"phrase"`
	Weight   int      `yaml:"weight" json:"weight"`
	Category Category `yaml:"category" json:"category"`
}

//go:embed signals.yaml
var embeddedCatalog []byte

// Catalog is the compiled, immutable phrase set. Loaded once at startup;
// safe for concurrent read-only use across scoring calls.
type Catalog struct {
	signals  []Signal
	patterns []*regexp.Regexp // parallel to signals
}

type catalogFile struct {
	Signals []Signal `yaml:"signals"`
}

// Load parses and compiles a catalog from YAML bytes. Any parse or compile
// failure is fatal for the caller: scoring cannot proceed without a catalog.
func Load(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "signal: parse catalog")
	}
	return compile(f.Signals)
}

// LoadFile reads a catalog from a YAML file path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "signal: read catalog %s", path)
	}
	return Load(data)
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Load(embeddedCatalog)
}

// compile validates entries and pre-compiles one case-insensitive
// word-boundary pattern per phrase.
func compile(signals []Signal) (*Catalog, error) {
	if len(signals) == 0 {
		return nil, eris.New("signal: catalog is empty")
	}

	c := &Catalog{
		signals:  make([]Signal, 0, len(signals)),
		patterns: make([]*regexp.Regexp, 0, len(signals)),
	}

	seen := make(map[string]bool, len(signals))
	for _, s := range signals {
		s.Phrase = strings.ToLower(strings.TrimSpace(s.Phrase))
		if s.Phrase == "" {
			return nil, eris.New("signal: catalog entry with empty phrase")
		}
		if !knownCategories[s.Category] {
			return nil, eris.Errorf("signal: unknown category %q for phrase %q", s.Category, s.Phrase)
		}
		if seen[s.Phrase] {
			return nil, eris.Errorf("signal: duplicate phrase %q", s.Phrase)
		}
		seen[s.Phrase] = true

		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(s.Phrase) + `\b`)
		if err != nil {
			return nil, eris.Wrapf(err, "signal: compile phrase %q", s.Phrase)
		}

		c.signals = append(c.signals, s)
		c.patterns = append(c.patterns, re)
	}

	return c, nil
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.signals) }

// Signals returns the catalog entries in load order.
func (c *Catalog) Signals() []Signal { return c.signals }

// Match returns every catalog signal whose phrase occurs in text as a
// whole-word match. Each phrase is reported at most once no matter how many
// times it occurs. Results follow catalog order.
func (c *Catalog) Match(text string) []Signal {
	if text == "" {
		return nil
	}
	var matched []Signal
	for i, re := range c.patterns {
		if re.MatchString(text) {
			matched = append(matched, c.signals[i])
		}
	}
	return matched
}

// ByCategory returns all entries in the given category, in load order.
func (c *Catalog) ByCategory(cat Category) []Signal {
	var out []Signal
	for _, s := range c.signals {
		if s.Category == cat {
			out = append(out, s)
		}
	}
	return out
}

// PositiveWeightSum returns the sum of all positive weights. Useful for
// sanity checks: any text matching every positive phrase still clamps at the
// score ceiling.
func (c *Catalog) PositiveWeightSum() int {
	var sum int
	for _, s := range c.signals {
		if s.Weight > 0 {
			sum += s.Weight
		}
	}
	return sum
}
