package main

import (
	"fmt"
	"os"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/crm"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push hot and warm leads to Salesforce",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		client, err := initSalesforce()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		summary, err := crm.NewSyncer(client, st).SyncQualified(ctx)
		if err != nil {
			return err
		}

		for _, e := range summary.Errors {
			zap.L().Error("sync error", zap.String("error", e))
		}
		fmt.Printf("Synced %d leads: %d created, %d updated, %d skipped (no email)\n",
			summary.Total, summary.Created, summary.Updated, summary.Skipped)
		return nil
	},
}

func initSalesforce() (crm.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (TDLEAD_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return crm.NewClient(sf, crm.WithRateLimit(cfg.Salesforce.RateLimitRPS)), nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
