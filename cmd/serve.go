package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/pipeline"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lead intake server",
	Long: `Serve an HTTP API for lead intake and queries.

POST /webhook/lead accepts a single contact (the same shape connectors
produce) and runs it through the import pipeline. GET /leads lists leads with
the same filters as the CLI.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		im, st, cleanup, err := initImporter(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/webhook/lead", handleWebhookLead(im))
		r.Get("/leads", handleListLeads(st))
		r.Get("/leads/{id}", handleGetLead(st))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func handleWebhookLead(im *pipeline.Importer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw model.RawContact
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if raw.Source == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "source is required"})
			return
		}

		outcome, err := im.ImportContact(r.Context(), raw)
		if err != nil {
			zap.L().Error("webhook import failed",
				zap.String("contact", raw.DisplayName()), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "import failed"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"lead_id": outcome.Lead.ID,
			"new":     outcome.IsNew,
			"score":   outcome.Lead.Score,
			"tier":    outcome.Lead.Tier,
		})
	}
}

func handleListLeads(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := store.LeadFilter{
			Status: model.LeadStatus(q.Get("status")),
			Tier:   model.Tier(q.Get("tier")),
			Source: q.Get("source"),
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}
		if v := q.Get("min_score"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.MinScore = &n
			}
		}

		leads, err := st.ListLeads(r.Context(), filter)
		if err != nil {
			zap.L().Error("list leads failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"leads": leads, "count": len(leads)})
	}
}

func handleGetLead(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lead, err := st.GetLead(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "lead not found"})
			return
		}
		writeJSON(w, http.StatusOK, lead)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
