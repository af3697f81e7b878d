// Package store persists leads and their interaction history. Two backends
// are provided: SQLite for single-operator local use and Postgres for shared
// deployments.
package store

import (
	"context"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
)

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Status   model.LeadStatus `json:"status,omitempty"`
	Tier     model.Tier       `json:"tier,omitempty"`
	Source   string           `json:"source,omitempty"`
	MinScore *int             `json:"min_score,omitempty"`
	Limit    int              `json:"limit,omitempty"`
	Offset   int              `json:"offset,omitempty"`
}

// Stats summarizes the lead database.
type Stats struct {
	Total    int                      `json:"total"`
	ByTier   map[model.Tier]int       `json:"by_tier"`
	ByStatus map[model.LeadStatus]int `json:"by_status"`
	BySource map[string]int           `json:"by_source"`
}

// Store defines the persistence interface for the lead engine.
//
// The four Find methods are the identity lookups the resolver matches on.
// Each takes an already-normalized key (lowercased email, lowercased handle,
// last-10-digit phone key) and returns (nil, nil) when no lead matches.
type Store interface {
	// Identity lookups
	FindBySourceID(ctx context.Context, source, sourceID string) (*model.Lead, error)
	FindByEmail(ctx context.Context, email string) (*model.Lead, error)
	FindByPhone(ctx context.Context, phoneKey string) (*model.Lead, error)
	FindByUsername(ctx context.Context, source, username string) (*model.Lead, error)

	// Leads
	CreateLead(ctx context.Context, lead *model.Lead) error
	UpdateLead(ctx context.Context, lead *model.Lead) error
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	SearchLeads(ctx context.Context, query string, limit int) ([]model.Lead, error)
	Stats(ctx context.Context) (*Stats, error)

	// Interactions are append-only; there is no update or delete.
	AddInteraction(ctx context.Context, in *model.Interaction) error
	ListInteractions(ctx context.Context, leadID string, limit int) ([]model.Interaction, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
