// Package pipeline orchestrates lead imports: connector output flows through
// identity resolution, scoring, persistence, the interaction log, and alerting.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/connector"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/normalize"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/resolver"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/scorer"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/store"
)

// defaultWorkers bounds bulk import concurrency when no limit is configured.
const defaultWorkers = 4

// rescorePageSize is how many leads RescoreAll loads per page.
const rescorePageSize = 500

// Alerter receives tier transitions after a lead is persisted. Implemented by
// notify.Alerter; nil disables alerting.
type Alerter interface {
	Notify(ctx context.Context, lead *model.Lead, previousTier model.Tier) int
}

// Importer runs contacts through resolve, score, persist, log, and alert.
type Importer struct {
	store    store.Store
	resolver *resolver.Resolver
	scorer   *scorer.LeadScorer
	alerter  Alerter
	locks    *KeyLock
	workers  int
	now      func() time.Time
}

// NewImporter wires an Importer over the given store and scorer. alerter may
// be nil. workers <= 0 selects the default bulk concurrency.
func NewImporter(st store.Store, sc *scorer.LeadScorer, alerter Alerter, workers int) *Importer {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Importer{
		store:    st,
		resolver: resolver.New(st),
		scorer:   sc,
		alerter:  alerter,
		locks:    NewKeyLock(),
		workers:  workers,
		now:      time.Now,
	}
}

// Outcome describes what one contact became.
type Outcome struct {
	Lead         *model.Lead
	IsNew        bool
	MatchTier    resolver.MatchTier
	PreviousTier model.Tier
}

// ImportSummary aggregates a bulk import.
type ImportSummary struct {
	Source   string   `json:"source"`
	Total    int      `json:"total"`
	New      int      `json:"new"`
	Merged   int      `json:"merged"`
	Hot      int      `json:"hot"`
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportFrom runs a connector against a path and imports everything it finds.
func (im *Importer) ImportFrom(ctx context.Context, conn connector.Connector, path string) (*ImportSummary, error) {
	result, err := conn.Import(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: import from %s", conn.Source())
	}

	summary, err := im.ImportAll(ctx, result.Contacts)
	if err != nil {
		return nil, err
	}
	summary.Source = conn.Source()
	summary.Warnings = append(result.Warnings, summary.Warnings...)
	return summary, nil
}

// ImportAll imports contacts concurrently. Per-contact failures are recorded
// on the summary rather than aborting the batch.
func (im *Importer) ImportAll(ctx context.Context, contacts []model.RawContact) (*ImportSummary, error) {
	summary := &ImportSummary{Total: len(contacts)}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(im.workers)

	for _, raw := range contacts {
		raw := raw
		g.Go(func() error {
			outcome, err := im.ImportContact(ctx, raw)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", raw.DisplayName(), err))
				return nil
			}
			if outcome.IsNew {
				summary.New++
			} else {
				summary.Merged++
			}
			if outcome.Lead.Tier == model.TierHot {
				summary.Hot++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: bulk import")
	}
	return summary, nil
}

// ImportContact runs one contact through the full pipeline. All identity keys
// the contact carries are locked for the duration, so concurrent imports of
// the same person serialize instead of racing into duplicates.
func (im *Importer) ImportContact(ctx context.Context, raw model.RawContact) (*Outcome, error) {
	unlock := im.locks.Lock(identityKeys(raw))
	defer unlock()

	res, err := im.resolver.Resolve(ctx, raw)
	if err != nil {
		return nil, err
	}

	lead := res.Lead
	previousTier := model.Tier("")
	previousScore := 0
	if !res.IsNew {
		previousTier = res.MergedFrom.Tier
		previousScore = res.MergedFrom.Score
	}

	im.applyScore(lead)

	if res.IsNew {
		if err := im.store.CreateLead(ctx, lead); err != nil {
			return nil, err
		}
	} else {
		if err := im.store.UpdateLead(ctx, lead); err != nil {
			return nil, err
		}
	}

	im.logImport(ctx, lead, res)
	if res.IsNew || lead.Score != previousScore {
		im.logScored(ctx, lead, previousScore)
	}

	if im.alerter != nil {
		im.alerter.Notify(ctx, lead, previousTier)
	}

	zap.L().Debug("pipeline: contact imported",
		zap.String("lead_id", lead.ID),
		zap.Bool("new", res.IsNew),
		zap.String("tier", string(lead.Tier)),
		zap.Int("score", lead.Score),
	)

	return &Outcome{
		Lead:         lead,
		IsNew:        res.IsNew,
		MatchTier:    res.MatchTier,
		PreviousTier: previousTier,
	}, nil
}

// RescoreSummary aggregates a full rescore pass.
type RescoreSummary struct {
	Total   int `json:"total"`
	Changed int `json:"changed"`
	Hot     int `json:"hot"`
}

// RescoreLead recomputes one lead's score against the current catalog.
func (im *Importer) RescoreLead(ctx context.Context, id string) (*model.Lead, error) {
	lead, err := im.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := im.rescore(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// RescoreAll recomputes every lead's score. Catalog edits only take effect on
// existing leads through this pass.
//
// Every lead ID is snapshotted before any score is rewritten: the listing is
// ordered by score, so paging it while the same pass moves scores around
// would skip leads that cross a page boundary.
func (im *Importer) RescoreAll(ctx context.Context) (*RescoreSummary, error) {
	ids, err := im.leadIDs(ctx)
	if err != nil {
		return nil, err
	}

	summary := &RescoreSummary{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.workers)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			lead, err := im.store.GetLead(gctx, id)
			if err != nil {
				return err
			}
			changed, err := im.rescore(gctx, lead)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			summary.Total++
			if changed {
				summary.Changed++
			}
			if lead.Tier == model.TierHot {
				summary.Hot++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: rescore all")
	}
	return summary, nil
}

// leadIDs pages through the store and collects every lead ID.
func (im *Importer) leadIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for offset := 0; ; offset += rescorePageSize {
		leads, err := im.store.ListLeads(ctx, store.LeadFilter{Limit: rescorePageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for i := range leads {
			ids = append(ids, leads[i].ID)
		}
		if len(leads) < rescorePageSize {
			break
		}
	}
	return ids, nil
}

// rescore scores a lead in place, persists it, and reports whether the score
// changed.
func (im *Importer) rescore(ctx context.Context, lead *model.Lead) (bool, error) {
	previousScore := lead.Score
	previousTier := lead.Tier

	im.applyScore(lead)
	lead.UpdatedAt = im.now().UTC()

	if err := im.store.UpdateLead(ctx, lead); err != nil {
		return false, err
	}

	changed := lead.Score != previousScore || lead.Tier != previousTier
	if changed {
		im.logScored(ctx, lead, previousScore)
	}
	if im.alerter != nil {
		im.alerter.Notify(ctx, lead, previousTier)
	}
	return changed, nil
}

func (im *Importer) applyScore(lead *model.Lead) {
	result := im.scorer.Score(*lead)
	now := im.now().UTC()
	lead.Score = result.Total
	lead.Tier = result.Tier
	lead.ScoreBreakdown = result.Breakdown()
	lead.LastScoredAt = &now
}

// logImport and logScored append audit entries. A failed append is logged and
// swallowed: the lead is already persisted, and the audit trail is not worth
// failing the import over.
func (im *Importer) logImport(ctx context.Context, lead *model.Lead, res *resolver.Result) {
	content := fmt.Sprintf("imported from %s", lead.Source)
	metadata := map[string]any{"new": res.IsNew}
	if !res.IsNew {
		content = fmt.Sprintf("merged via %s match", res.MatchTier)
		metadata["match_tier"] = string(res.MatchTier)
		if len(res.Changed) > 0 {
			metadata["changed_fields"] = res.Changed
		}
	}
	im.appendInteraction(ctx, lead.ID, model.InteractionImport, content, metadata)
}

func (im *Importer) logScored(ctx context.Context, lead *model.Lead, previousScore int) {
	im.appendInteraction(ctx, lead.ID, model.InteractionScored,
		fmt.Sprintf("score %d -> %d (%s)", previousScore, lead.Score, lead.Tier),
		map[string]any{"previous_score": previousScore, "score": lead.Score, "tier": string(lead.Tier)},
	)
}

func (im *Importer) appendInteraction(ctx context.Context, leadID string, typ model.InteractionType, content string, metadata map[string]any) {
	err := im.store.AddInteraction(ctx, &model.Interaction{
		ID:        uuid.New().String(),
		LeadID:    leadID,
		Type:      typ,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: im.now().UTC(),
	})
	if err != nil {
		zap.L().Warn("pipeline: interaction log append failed",
			zap.String("lead_id", leadID),
			zap.String("type", string(typ)),
			zap.Error(err),
		)
	}
}

// identityKeys lists the normalized lock keys a contact could match on, each
// namespaced by tier so an email never collides with a username.
func identityKeys(raw model.RawContact) []string {
	var keys []string
	if raw.SourceID != "" {
		keys = append(keys, "source_id:"+raw.Source+":"+raw.SourceID)
	}
	if email := normalize.Email(raw.Email); email != "" {
		keys = append(keys, "email:"+email)
	}
	if phoneKey := normalize.PhoneKey(raw.Phone); phoneKey != "" {
		keys = append(keys, "phone:"+phoneKey)
	}
	if username := normalize.Username(raw.Username); username != "" {
		keys = append(keys, "username:"+raw.Source+":"+username)
	}
	return keys
}
