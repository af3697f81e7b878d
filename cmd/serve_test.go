package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/pipeline"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/scorer"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/signal"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/store"
)

func newTestHandlers(t *testing.T) (*pipeline.Importer, store.Store) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	catalog, err := signal.Default()
	require.NoError(t, err)

	return pipeline.NewImporter(st, scorer.New(catalog), nil, 1), st
}

func TestHandleWebhookLead(t *testing.T) {
	im, st := newTestHandlers(t)
	handler := handleWebhookLead(im)

	body := `{"source":"webhook","name":"Jo Smith","email":"jo@example.com","bio":"looking to buy a house, preapproved"}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/lead", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"new":true`)

	stats, err := st.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}

func TestHandleWebhookLead_BadRequests(t *testing.T) {
	im, _ := newTestHandlers(t)
	handler := handleWebhookLead(im)

	req := httptest.NewRequest(http.MethodPost, "/webhook/lead", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhook/lead", strings.NewReader(`{"name":"No Source"}`))
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListLeads(t *testing.T) {
	im, st := newTestHandlers(t)

	_, err := im.ImportContact(context.Background(), leadFixture("hot@example.com",
		"First time homebuyer, preapproved, looking in Powell"))
	require.NoError(t, err)
	_, err = im.ImportContact(context.Background(), leadFixture("quiet@example.com", "hello"))
	require.NoError(t, err)

	handler := handleListLeads(st)

	req := httptest.NewRequest(http.MethodGet, "/leads?tier=hot", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
	assert.Contains(t, rec.Body.String(), "hot@example.com")
}

func TestHandleGetLead(t *testing.T) {
	im, st := newTestHandlers(t)

	outcome, err := im.ImportContact(context.Background(), leadFixture("jo@example.com", ""))
	require.NoError(t, err)

	handler := handleGetLead(st)

	r := httptest.NewRequest(http.MethodGet, "/leads/"+outcome.Lead.ID, nil)
	rec := httptest.NewRecorder()
	routed := newLeadRouter(handler)
	routed.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jo@example.com")

	r = httptest.NewRequest(http.MethodGet, "/leads/missing", nil)
	rec = httptest.NewRecorder()
	routed.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func leadFixture(email, bio string) model.RawContact {
	return model.RawContact{Source: "webhook", Email: email, Bio: bio}
}

// newLeadRouter mounts a handler the way serve does, so chi URL params resolve.
func newLeadRouter(h http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Get("/leads/{id}", h)
	return r
}
