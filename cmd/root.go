package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/config"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/notify"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/pipeline"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/scorer"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/signal"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/store"

	"github.com/rotisserie/eris"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lead-engine",
	Short: "Lead deduplication and scoring engine",
	Long:  "Imports contacts from social exports and CRM files, deduplicates them into leads, scores buying intent from their text, and pushes qualified leads to Salesforce.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	var st store.Store
	var err error

	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leads.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func initCatalog() (*signal.Catalog, error) {
	if cfg.Scorer.CatalogPath != "" {
		return signal.LoadFile(cfg.Scorer.CatalogPath)
	}
	return signal.Default()
}

// initImporter wires the full import pipeline. The returned cleanup closes
// the store.
func initImporter(ctx context.Context) (*pipeline.Importer, store.Store, func(), error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	catalog, err := initCatalog()
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, nil, err
	}

	var alerter pipeline.Alerter
	if cfg.Notify.WebhookURL != "" {
		alerter = notify.NewAlerter(cfg.Notify)
	}

	im := pipeline.NewImporter(st, scorer.New(catalog), alerter, cfg.Import.Concurrency)
	cleanup := func() { st.Close() } //nolint:errcheck
	return im, st, cleanup, nil
}
