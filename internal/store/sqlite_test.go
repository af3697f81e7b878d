package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testLead(mutate ...func(*model.Lead)) *model.Lead {
	now := time.Now().UTC().Truncate(time.Second)
	lead := &model.Lead{
		ID:        uuid.New().String(),
		Source:    "instagram",
		SourceID:  "ig-" + uuid.New().String()[:8],
		Name:      "Jo Smith",
		Email:     "jo@example.com",
		Phone:     "+16145550101",
		Username:  "buckeyejo",
		Bio:       "House hunting in Powell",
		Notes:     "[2025-06-01 12:00] imported",
		Messages:  []string{"hi there"},
		Score:     80,
		Tier:      model.TierWarm,
		Status:    model.StatusNew,
		Tags:      []string{"relocation"},
		CreatedAt: now,
		UpdatedAt: now,
		RawData:   []map[string]any{{"row": float64(1)}},
	}
	for _, m := range mutate {
		m(lead)
	}
	return lead
}

// --- Leads ---

func TestSQLite_CreateAndGetLead_RoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := testLead()
	scored := time.Now().UTC().Truncate(time.Second)
	lead.LastScoredAt = &scored
	lead.ScoreBreakdown = &model.ScoreBreakdown{
		Matches:        []model.MatchedSignal{{Phrase: "house hunting", Category: "buyer_active", Weight: 60}},
		CategoryScores: map[string]int{"buyer_active": 60},
	}

	require.NoError(t, st.CreateLead(ctx, lead))

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.Name, got.Name)
	assert.Equal(t, lead.Email, got.Email)
	assert.Equal(t, lead.Messages, got.Messages)
	assert.Equal(t, lead.Tags, got.Tags)
	assert.Equal(t, lead.RawData, got.RawData)
	require.NotNil(t, got.ScoreBreakdown)
	assert.Equal(t, 60, got.ScoreBreakdown.CategoryScores["buyer_active"])
	require.NotNil(t, got.LastScoredAt)
	assert.Nil(t, got.LastContactedAt)
}

func TestSQLite_GetLead_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetLead(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lead not found")
}

func TestSQLite_UpdateLead(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := testLead()
	require.NoError(t, st.CreateLead(ctx, lead))

	lead.Score = 160
	lead.Tier = model.TierHot
	lead.Status = model.StatusContacted
	lead.Messages = append(lead.Messages, "we got preapproved")
	require.NoError(t, st.UpdateLead(ctx, lead))

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, 160, got.Score)
	assert.Equal(t, model.TierHot, got.Tier)
	assert.Equal(t, model.StatusContacted, got.Status)
	assert.Len(t, got.Messages, 2)
}

func TestSQLite_UpdateLead_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateLead(context.Background(), testLead(func(l *model.Lead) { l.ID = "ghost" }))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_DuplicateSourceIDRejected(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first := testLead(func(l *model.Lead) { l.SourceID = "ig-dup" })
	require.NoError(t, st.CreateLead(ctx, first))

	second := testLead(func(l *model.Lead) {
		l.SourceID = "ig-dup"
		l.Email = "other@example.com"
		l.Phone = ""
		l.Username = "someoneelse"
	})
	err := st.CreateLead(ctx, second)
	require.Error(t, err, "unique index must reject a second lead with the same source identity")
}

func TestSQLite_EmptySourceIDsDoNotCollide(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		lead := testLead(func(l *model.Lead) {
			l.SourceID = ""
			l.Email = uuid.New().String() + "@example.com"
			l.Phone = ""
			l.Username = uuid.New().String()[:8]
		})
		require.NoError(t, st.CreateLead(ctx, lead))
	}
}

// --- Identity lookups ---

func TestSQLite_FindBySourceID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := testLead(func(l *model.Lead) { l.SourceID = "ig-77" })
	require.NoError(t, st.CreateLead(ctx, lead))

	got, err := st.FindBySourceID(ctx, "instagram", "ig-77")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, lead.ID, got.ID)

	miss, err := st.FindBySourceID(ctx, "facebook", "ig-77")
	require.NoError(t, err)
	assert.Nil(t, miss, "source id is scoped to its source")
}

func TestSQLite_FindByEmail(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := testLead()
	require.NoError(t, st.CreateLead(ctx, lead))

	got, err := st.FindByEmail(ctx, "jo@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, lead.ID, got.ID)

	miss, err := st.FindByEmail(ctx, "unknown@example.com")
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestSQLite_FindByEmail_EmptyKeyNeverMatches(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := testLead(func(l *model.Lead) { l.Email = "" })
	require.NoError(t, st.CreateLead(ctx, lead))

	got, err := st.FindByEmail(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got, "empty email must not match leads with no email")
}

func TestSQLite_FindByPhone_MatchesAcrossFormatting(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	// Stored E.164 with country code; looked up by last-10 key.
	lead := testLead(func(l *model.Lead) { l.Phone = "+16145550101" })
	require.NoError(t, st.CreateLead(ctx, lead))

	got, err := st.FindByPhone(ctx, "6145550101")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, lead.ID, got.ID)
}

func TestSQLite_FindByUsername_SourceScoped(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := testLead()
	require.NoError(t, st.CreateLead(ctx, lead))

	got, err := st.FindByUsername(ctx, "instagram", "buckeyejo")
	require.NoError(t, err)
	require.NotNil(t, got)

	miss, err := st.FindByUsername(ctx, "facebook", "buckeyejo")
	require.NoError(t, err)
	assert.Nil(t, miss)
}

// --- Listing, search, stats ---

func TestSQLite_ListLeads_FiltersAndOrder(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	hot := testLead(func(l *model.Lead) {
		l.SourceID = "hot"
		l.Email = "hot@example.com"
		l.Phone = ""
		l.Username = "hotlead"
		l.Score = 180
		l.Tier = model.TierHot
	})
	warm := testLead(func(l *model.Lead) {
		l.SourceID = "warm"
		l.Email = "warm@example.com"
		l.Phone = ""
		l.Username = "warmlead"
		l.Score = 90
		l.Tier = model.TierWarm
	})
	require.NoError(t, st.CreateLead(ctx, hot))
	require.NoError(t, st.CreateLead(ctx, warm))

	all, err := st.ListLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, hot.ID, all[0].ID, "highest score first")

	hotOnly, err := st.ListLeads(ctx, LeadFilter{Tier: model.TierHot})
	require.NoError(t, err)
	require.Len(t, hotOnly, 1)
	assert.Equal(t, hot.ID, hotOnly[0].ID)

	min := 100
	scored, err := st.ListLeads(ctx, LeadFilter{MinScore: &min})
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, hot.ID, scored[0].ID)
}

func TestSQLite_SearchLeads(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := testLead(func(l *model.Lead) { l.Name = "Pat Williams" })
	require.NoError(t, st.CreateLead(ctx, lead))

	found, err := st.SearchLeads(ctx, "williams", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, lead.ID, found[0].ID)

	none, err := st.SearchLeads(ctx, "nomatch", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLite_Stats(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateLead(ctx, testLead(func(l *model.Lead) {
		l.SourceID = "a"
		l.Email = "a@example.com"
		l.Phone = ""
		l.Username = "a"
		l.Tier = model.TierHot
	})))
	require.NoError(t, st.CreateLead(ctx, testLead(func(l *model.Lead) {
		l.Source = "csv"
		l.SourceID = "b"
		l.Email = "b@example.com"
		l.Phone = ""
		l.Username = "b"
		l.Tier = model.TierCold
	})))

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByTier[model.TierHot])
	assert.Equal(t, 1, stats.ByTier[model.TierCold])
	assert.Equal(t, 2, stats.ByStatus[model.StatusNew])
	assert.Equal(t, 1, stats.BySource["instagram"])
	assert.Equal(t, 1, stats.BySource["csv"])
}

// --- Interactions ---

func TestSQLite_Interactions_AppendAndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := testLead()
	require.NoError(t, st.CreateLead(ctx, lead))

	base := time.Now().UTC().Truncate(time.Second)
	for i, typ := range []model.InteractionType{model.InteractionImport, model.InteractionScored} {
		require.NoError(t, st.AddInteraction(ctx, &model.Interaction{
			ID:        uuid.New().String(),
			LeadID:    lead.ID,
			Type:      typ,
			Content:   "event",
			Metadata:  map[string]any{"seq": float64(i)},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := st.ListInteractions(ctx, lead.ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.InteractionScored, got[0].Type, "newest first")
	assert.Equal(t, float64(1), got[0].Metadata["seq"])

	none, err := st.ListInteractions(ctx, "other-lead", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
