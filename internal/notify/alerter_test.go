package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
)

func hotLead() *model.Lead {
	return &model.Lead{
		ID:     "lead-1",
		Source: "instagram",
		Name:   "Jo Smith",
		Score:  180,
		Tier:   model.TierHot,
	}
}

func TestEvaluate_HotPromotionAlerts(t *testing.T) {
	t.Parallel()

	a := NewAlerter(Config{})
	alerts := a.Evaluate(hotLead(), model.TierWarm)

	require.Len(t, alerts, 1)
	assert.Equal(t, AlertLeadHot, alerts[0].Type)
	assert.Equal(t, "high", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "Jo Smith")
	assert.Equal(t, "lead-1", alerts[0].Details["lead_id"])
}

func TestEvaluate_AlreadyHotStaysQuiet(t *testing.T) {
	t.Parallel()

	a := NewAlerter(Config{})
	assert.Empty(t, a.Evaluate(hotLead(), model.TierHot))
}

func TestEvaluate_DemotionNeverAlerts(t *testing.T) {
	t.Parallel()

	a := NewAlerter(Config{AlertOnWarm: true})
	lead := hotLead()
	lead.Tier = model.TierWarm
	lead.Score = 90

	assert.Empty(t, a.Evaluate(lead, model.TierHot), "hot -> warm is a demotion")
}

func TestEvaluate_WarmRequiresOptIn(t *testing.T) {
	t.Parallel()

	lead := hotLead()
	lead.Tier = model.TierWarm
	lead.Score = 90

	off := NewAlerter(Config{})
	assert.Empty(t, off.Evaluate(lead, model.TierCold))

	on := NewAlerter(Config{AlertOnWarm: true})
	alerts := on.Evaluate(lead, model.TierCold)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertLeadWarm, alerts[0].Type)
}

func TestEvaluate_UnscoredPreviousTier(t *testing.T) {
	t.Parallel()

	a := NewAlerter(Config{})
	alerts := a.Evaluate(hotLead(), "")
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Message, "was unscored")
}

func TestSendAlerts_PostsJSON(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var received []Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var alert Alert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&alert))
		mu.Lock()
		received = append(received, alert)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	a := NewAlerter(Config{WebhookURL: srv.URL})
	sent := a.Notify(context.Background(), hotLead(), model.TierCold)

	assert.Equal(t, 1, sent)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, AlertLeadHot, received[0].Type)
}

func TestSendAlerts_NoWebhookConfigured(t *testing.T) {
	t.Parallel()

	a := NewAlerter(Config{})
	assert.Zero(t, a.Notify(context.Background(), hotLead(), model.TierCold))
}

func TestSendAlerts_ServerErrorCountsAsUnsent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	a := NewAlerter(Config{WebhookURL: srv.URL})
	assert.Zero(t, a.Notify(context.Background(), hotLead(), model.TierCold))
}
