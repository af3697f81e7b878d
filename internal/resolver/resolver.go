// Package resolver decides whether an imported contact is a new lead or a
// duplicate of an existing one, and merges duplicates without losing data.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/normalize"
)

// MatchTier names the identity key that matched an existing lead.
type MatchTier string

const (
	MatchSourceID MatchTier = "source_id"
	MatchEmail    MatchTier = "email"
	MatchPhone    MatchTier = "phone"
	MatchUsername MatchTier = "username"
)

// Lookup supplies candidate leads by identity key. Implemented by the store.
// Every method returns (nil, nil) when no lead matches.
type Lookup interface {
	FindBySourceID(ctx context.Context, source, sourceID string) (*model.Lead, error)
	FindByEmail(ctx context.Context, email string) (*model.Lead, error)
	FindByPhone(ctx context.Context, phoneKey string) (*model.Lead, error)
	FindByUsername(ctx context.Context, source, username string) (*model.Lead, error)
}

// Result is the outcome of resolving one raw contact.
type Result struct {
	// IsNew is true when no existing lead matched and Lead was created fresh.
	IsNew bool
	// Lead is the new or merged lead, not yet persisted.
	Lead *model.Lead
	// MergedFrom is a snapshot of the existing lead before the merge; nil
	// when IsNew.
	MergedFrom *model.Lead
	// MatchTier is the tier that matched; empty when IsNew.
	MatchTier MatchTier
	// Changed lists the lead fields the merge modified, for the audit log.
	Changed []string
}

// Resolver performs tiered identity resolution. It holds no persistent state;
// the caller must serialize concurrent resolution per identity key.
type Resolver struct {
	lookup Lookup
	now    func() time.Time
}

// New creates a Resolver over the given lookup.
func New(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup, now: time.Now}
}

// matcher pairs a tier name with its candidate lookup. The order of the
// matchers slice is the priority contract: first hit wins.
type matcher struct {
	tier MatchTier
	find func(ctx context.Context, raw model.RawContact) (*model.Lead, error)
}

func (r *Resolver) matchers() []matcher {
	return []matcher{
		{MatchSourceID, func(ctx context.Context, raw model.RawContact) (*model.Lead, error) {
			if raw.SourceID == "" {
				return nil, nil
			}
			return r.lookup.FindBySourceID(ctx, raw.Source, raw.SourceID)
		}},
		{MatchEmail, func(ctx context.Context, raw model.RawContact) (*model.Lead, error) {
			email := normalize.Email(raw.Email)
			if email == "" {
				return nil, nil
			}
			return r.lookup.FindByEmail(ctx, email)
		}},
		{MatchPhone, func(ctx context.Context, raw model.RawContact) (*model.Lead, error) {
			key := normalize.PhoneKey(raw.Phone)
			if key == "" {
				return nil, nil
			}
			return r.lookup.FindByPhone(ctx, key)
		}},
		{MatchUsername, func(ctx context.Context, raw model.RawContact) (*model.Lead, error) {
			username := normalize.Username(raw.Username)
			if username == "" {
				return nil, nil
			}
			return r.lookup.FindByUsername(ctx, raw.Source, username)
		}},
	}
}

// Resolve matches raw against existing leads in strict tier order and either
// seeds a new lead or merges into the single highest-priority match.
//
// Missing identity fields are skipped, never errors: a contact with no
// matchable field simply becomes a new lead. Only lookup I/O failures
// propagate.
func (r *Resolver) Resolve(ctx context.Context, raw model.RawContact) (*Result, error) {
	var (
		matched     *model.Lead
		matchedTier MatchTier
	)

	for _, m := range r.matchers() {
		candidate, err := m.find(ctx, raw)
		if err != nil {
			return nil, eris.Wrapf(err, "resolver: %s lookup", m.tier)
		}
		if candidate == nil {
			continue
		}
		if matched == nil {
			matched = candidate
			matchedTier = m.tier
			continue
		}
		// A lower tier hit a different lead. Merge only into the
		// highest-priority match; record the conflict and move on.
		if candidate.ID != matched.ID {
			zap.L().Warn("resolver: cross-tier match conflict",
				zap.String("matched_lead", matched.ID),
				zap.String("matched_tier", string(matchedTier)),
				zap.String("shadowed_lead", candidate.ID),
				zap.String("shadowed_tier", string(m.tier)),
			)
		}
	}

	if matched == nil {
		return &Result{IsNew: true, Lead: r.newLead(raw)}, nil
	}

	snapshot := *matched
	merged := matched
	changed := Merge(merged, raw, r.now())

	return &Result{
		Lead:       merged,
		MergedFrom: &snapshot,
		MatchTier:  matchedTier,
		Changed:    changed,
	}, nil
}

// newLead seeds a fresh lead from a raw contact.
func (r *Resolver) newLead(raw model.RawContact) *model.Lead {
	now := r.now().UTC()
	lead := &model.Lead{
		ID:         uuid.New().String(),
		Source:     raw.Source,
		SourceID:   raw.SourceID,
		Name:       strings.TrimSpace(raw.Name),
		Email:      normalize.Email(raw.Email),
		Phone:      normalize.PhoneE164(raw.Phone),
		Username:   normalize.Username(raw.Username),
		ProfileURL: strings.TrimSpace(raw.ProfileURL),
		Bio:        strings.TrimSpace(raw.Bio),
		Messages:   dedupeOrdered(nil, raw.Messages),
		Comments:   dedupeOrdered(nil, raw.Comments),
		Score:      0,
		Tier:       model.TierCold,
		Status:     model.StatusNew,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if raw.Notes != "" {
		lead.Notes = noteEntry(raw.Notes, now)
	}
	if raw.RawData != nil {
		lead.RawData = []map[string]any{raw.RawData}
	}
	return lead
}

// Merge folds raw into lead in place and returns the names of changed fields.
//
// Scalar fields fill only when the existing value is empty — imports never
// silently overwrite known data. Bio appends unless already present. Notes
// always append with a timestamp marker. Messages and comments union as
// ordered sets. The raw payload is appended for audit, never dropped.
func Merge(lead *model.Lead, raw model.RawContact, now time.Time) []string {
	var changed []string

	fill := func(field string, dst *string, val string) {
		val = strings.TrimSpace(val)
		if *dst == "" && val != "" {
			*dst = val
			changed = append(changed, field)
		}
	}
	fill("name", &lead.Name, raw.Name)
	fill("email", &lead.Email, normalize.Email(raw.Email))
	fill("phone", &lead.Phone, normalize.PhoneE164(raw.Phone))
	fill("username", &lead.Username, normalize.Username(raw.Username))
	fill("profile_url", &lead.ProfileURL, raw.ProfileURL)

	if bio := strings.TrimSpace(raw.Bio); bio != "" && !strings.Contains(lead.Bio, bio) {
		if lead.Bio == "" {
			lead.Bio = bio
		} else {
			lead.Bio = lead.Bio + "\n" + bio
		}
		changed = append(changed, "bio")
	}

	if raw.Notes != "" {
		entry := noteEntry(raw.Notes, now)
		if lead.Notes == "" {
			lead.Notes = entry
		} else {
			lead.Notes = lead.Notes + "\n" + entry
		}
		changed = append(changed, "notes")
	}

	if merged := dedupeOrdered(lead.Messages, raw.Messages); len(merged) > len(lead.Messages) {
		lead.Messages = merged
		changed = append(changed, "messages")
	}
	if merged := dedupeOrdered(lead.Comments, raw.Comments); len(merged) > len(lead.Comments) {
		lead.Comments = merged
		changed = append(changed, "comments")
	}

	if raw.RawData != nil {
		lead.RawData = append(lead.RawData, raw.RawData)
		changed = append(changed, "raw_data")
	}

	lead.UpdatedAt = now.UTC()
	return changed
}

// dedupeOrdered unions incoming into existing, dropping exact duplicates and
// preserving first-seen order. The returned slice is a fresh copy.
func dedupeOrdered(existing, incoming []string) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]bool, len(existing)+len(incoming))
	for _, lists := range [][]string{existing, incoming} {
		for _, item := range lists {
			if item == "" || seen[item] {
				continue
			}
			seen[item] = true
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// noteEntry prefixes a note with its import timestamp so the append-only
// notes log stays readable.
func noteEntry(note string, now time.Time) string {
	return fmt.Sprintf("[%s] %s", now.UTC().Format("2006-01-02 15:04"), strings.TrimSpace(note))
}
