package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Move a lead through the pipeline",
	Long: `Set a lead's pipeline status.

Statuses: new, contacted, responded, qualified, nurturing, converted, lost,
archived. Setting "contacted" also stamps the last-contacted time.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		newStatus := model.LeadStatus(args[1])
		ctx := cmd.Context()

		if !model.ValidStatus(newStatus) {
			return eris.Errorf("unknown status %q", args[1])
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		lead, err := st.GetLead(ctx, id)
		if err != nil {
			return err
		}

		previous := lead.Status
		now := time.Now().UTC()
		lead.Status = newStatus
		lead.UpdatedAt = now
		if newStatus == model.StatusContacted {
			lead.LastContactedAt = &now
		}

		if err := st.UpdateLead(ctx, lead); err != nil {
			return err
		}
		if err := st.AddInteraction(ctx, &model.Interaction{
			ID:        uuid.New().String(),
			LeadID:    lead.ID,
			Type:      model.InteractionStatusChange,
			Content:   fmt.Sprintf("%s -> %s", previous, newStatus),
			Metadata:  map[string]any{"from": string(previous), "to": string(newStatus)},
			CreatedAt: now,
		}); err != nil {
			return err
		}

		fmt.Printf("%s: %s -> %s\n", lead.DisplayName(), previous, newStatus)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
