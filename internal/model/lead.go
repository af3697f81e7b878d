package model

import (
	"strings"
	"time"
)

// LeadStatus represents where a lead sits in the pipeline. Status is
// independent of tier: a hot lead can still be lost, a cold one converted.
type LeadStatus string

const (
	StatusNew       LeadStatus = "new"
	StatusContacted LeadStatus = "contacted"
	StatusResponded LeadStatus = "responded"
	StatusQualified LeadStatus = "qualified"
	StatusNurturing LeadStatus = "nurturing"
	StatusConverted LeadStatus = "converted"
	StatusLost      LeadStatus = "lost"
	StatusArchived  LeadStatus = "archived"
)

// ValidStatus reports whether s is a known pipeline status.
func ValidStatus(s LeadStatus) bool {
	switch s {
	case StatusNew, StatusContacted, StatusResponded, StatusQualified,
		StatusNurturing, StatusConverted, StatusLost, StatusArchived:
		return true
	}
	return false
}

// Tier is the discrete intent bucket derived from a lead's score.
type Tier string

const (
	TierHot      Tier = "hot"
	TierWarm     Tier = "warm"
	TierLukewarm Tier = "lukewarm"
	TierCold     Tier = "cold"
	TierNegative Tier = "negative"
)

// RawContact is a source-agnostic contact record produced by an import
// connector. Immutable once produced; the resolver decides what becomes of it.
type RawContact struct {
	Source     string         `json:"source"`
	SourceID   string         `json:"source_id,omitempty"`
	Name       string         `json:"name,omitempty"`
	Email      string         `json:"email,omitempty"`
	Phone      string         `json:"phone,omitempty"`
	Username   string         `json:"username,omitempty"`
	ProfileURL string         `json:"profile_url,omitempty"`
	Bio        string         `json:"bio,omitempty"`
	Notes      string         `json:"notes,omitempty"`
	Messages   []string       `json:"messages,omitempty"`
	Comments   []string       `json:"comments,omitempty"`
	ImportedAt time.Time      `json:"imported_at,omitempty"`
	RawData    map[string]any `json:"raw_data,omitempty"`
}

// DisplayName returns the best available label for the contact.
func (r RawContact) DisplayName() string {
	switch {
	case r.Name != "":
		return r.Name
	case r.Username != "":
		return r.Username
	case r.Email != "":
		return r.Email
	}
	return "Unknown"
}

// HasIdentity reports whether the contact carries at least one field the
// resolver could match on.
func (r RawContact) HasIdentity() bool {
	return r.SourceID != "" || r.Email != "" || r.Phone != "" || r.Username != ""
}

// Lead is the durable, deduplicated identity record.
//
// Source/SourceID always reflect the original importing source; merges never
// overwrite them. Notes is an append-only log. Messages and Comments are
// ordered sequences with exact-duplicate entries removed on merge.
type Lead struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	SourceID string `json:"source_id,omitempty"`

	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Username   string `json:"username,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`

	Bio      string   `json:"bio,omitempty"`
	Notes    string   `json:"notes,omitempty"`
	Messages []string `json:"messages,omitempty"`
	Comments []string `json:"comments,omitempty"`

	Score          int             `json:"score"`
	Tier           Tier            `json:"tier"`
	ScoreBreakdown *ScoreBreakdown `json:"score_breakdown,omitempty"`

	Status LeadStatus `json:"status"`
	Tags   []string   `json:"tags,omitempty"`

	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	LastScoredAt    *time.Time `json:"last_scored_at,omitempty"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`

	// RawData accumulates the raw payload of every import that touched this
	// lead, for audit and debugging. Never trimmed by the core.
	RawData []map[string]any `json:"raw_data,omitempty"`
}

// DisplayName returns the best available label for the lead.
func (l Lead) DisplayName() string {
	switch {
	case l.Name != "":
		return l.Name
	case l.Username != "":
		return l.Username
	case l.Email != "":
		return l.Email
	}
	return "Lead " + l.ID
}

// TextSurface concatenates every free-text field into the haystack the scorer
// searches. Fields are joined with spaces so phrase boundaries survive.
func (l Lead) TextSurface() string {
	parts := make([]string, 0, 2+len(l.Messages)+len(l.Comments))
	for _, p := range []string{l.Notes, l.Bio} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	for _, m := range l.Messages {
		if m != "" {
			parts = append(parts, m)
		}
	}
	for _, c := range l.Comments {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

// HasTag reports whether the lead carries the given tag.
func (l Lead) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// AddTags appends tags not already present, preserving order.
func (l *Lead) AddTags(tags ...string) {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || l.HasTag(t) {
			continue
		}
		l.Tags = append(l.Tags, t)
	}
}

// ScoreBreakdown records how a lead's score was produced.
type ScoreBreakdown struct {
	Matches        []MatchedSignal `json:"matches"`
	CategoryScores map[string]int  `json:"category_scores"`
}

// MatchedSignal is one catalog phrase found in the lead's text surface.
type MatchedSignal struct {
	Phrase   string `json:"phrase"`
	Category string `json:"category"`
	Weight   int    `json:"weight"`
}

// InteractionType classifies entries in a lead's activity log.
type InteractionType string

const (
	InteractionImport       InteractionType = "import"
	InteractionScored       InteractionType = "scored"
	InteractionContacted    InteractionType = "contacted"
	InteractionResponse     InteractionType = "response"
	InteractionNote         InteractionType = "note"
	InteractionStatusChange InteractionType = "status_change"
)

// Interaction is an immutable, timestamped record of something that happened
// to a lead. Appended by every mutating operation; never updated or deleted.
type Interaction struct {
	ID        string          `json:"id"`
	LeadID    string          `json:"lead_id"`
	Type      InteractionType `json:"type"`
	Content   string          `json:"content,omitempty"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
