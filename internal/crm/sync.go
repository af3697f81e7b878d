package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/store"
)

// leadCompany is the Company value for individual (non-business) SF Leads,
// which require the field to be non-empty.
const leadCompany = "Individual"

// Syncer upserts scored leads into Salesforce as Lead records, matched by
// email. Leads without an email cannot be deduplicated in SF and are skipped.
type Syncer struct {
	client Client
	store  store.Store
}

// NewSyncer creates a Syncer.
func NewSyncer(client Client, st store.Store) *Syncer {
	return &Syncer{client: client, store: st}
}

// SyncSummary aggregates one sync run.
type SyncSummary struct {
	Total   int      `json:"total"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// SyncQualified pushes every hot and warm lead to Salesforce.
func (s *Syncer) SyncQualified(ctx context.Context) (*SyncSummary, error) {
	summary := &SyncSummary{}

	for _, tier := range []model.Tier{model.TierHot, model.TierWarm} {
		leads, err := s.store.ListLeads(ctx, store.LeadFilter{Tier: tier, Limit: 1000})
		if err != nil {
			return nil, err
		}
		for i := range leads {
			summary.Total++
			created, err := s.SyncLead(ctx, &leads[i])
			switch {
			case err != nil && eris.Is(err, errNoEmail):
				summary.Skipped++
			case err != nil:
				summary.Errors = append(summary.Errors, leads[i].DisplayName()+": "+err.Error())
			case created:
				summary.Created++
			default:
				summary.Updated++
			}
		}
	}
	return summary, nil
}

var errNoEmail = eris.New("crm: lead has no email")

// SyncLead upserts one lead. Returns true when a new SF Lead was created.
func (s *Syncer) SyncLead(ctx context.Context, lead *model.Lead) (bool, error) {
	if lead.Email == "" {
		return false, errNoEmail
	}

	fields := leadFields(lead)

	existingID, err := s.findByEmail(ctx, lead.Email)
	if err != nil {
		return false, err
	}

	if existingID != "" {
		if err := s.client.UpdateOne(ctx, "Lead", existingID, fields); err != nil {
			return false, err
		}
		zap.L().Debug("crm: lead updated",
			zap.String("lead_id", lead.ID), zap.String("sf_id", existingID))
		return false, nil
	}

	sfID, err := s.client.InsertOne(ctx, "Lead", fields)
	if err != nil {
		return false, err
	}
	zap.L().Debug("crm: lead created",
		zap.String("lead_id", lead.ID), zap.String("sf_id", sfID))
	return true, nil
}

type sfLeadRecord struct {
	ID string `json:"Id"`
}

func (s *Syncer) findByEmail(ctx context.Context, email string) (string, error) {
	var records []sfLeadRecord
	soql := "SELECT Id FROM Lead WHERE Email = '" + escapeSOQL(email) + "' LIMIT 1"
	if err := s.client.Query(ctx, soql, &records); err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", nil
	}
	return records[0].ID, nil
}

// leadFields maps a lead onto SF Lead fields. LastName is required by SF, so
// a single-word name lands there whole.
func leadFields(lead *model.Lead) map[string]any {
	first, last := splitName(lead.DisplayName())

	fields := map[string]any{
		"LastName":   last,
		"Company":    leadCompany,
		"Email":      lead.Email,
		"LeadSource": lead.Source,
		"Rating":     rating(lead.Tier),
		"Description": strings.TrimSpace(fmt.Sprintf(
			"Lead score: %d (%s)\n%s", lead.Score, lead.Tier, lead.Notes)),
	}
	if first != "" {
		fields["FirstName"] = first
	}
	if lead.Phone != "" {
		fields["Phone"] = lead.Phone
	}
	return fields
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", "Unknown"
	case 1:
		return "", parts[0]
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

// rating maps intent tiers onto SF's three-valued Rating picklist.
func rating(tier model.Tier) string {
	switch tier {
	case model.TierHot:
		return "Hot"
	case model.TierWarm:
		return "Warm"
	}
	return "Cold"
}

// escapeSOQL escapes quote and backslash for safe SOQL string literals.
func escapeSOQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
