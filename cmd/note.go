package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
)

var noteCmd = &cobra.Command{
	Use:   "note <id> <text>",
	Short: "Append a timestamped note to a lead",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, text := args[0], strings.TrimSpace(strings.Join(args[1:], " "))
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		lead, err := st.GetLead(ctx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		entry := fmt.Sprintf("[%s] %s", now.Format("2006-01-02 15:04"), text)
		if lead.Notes == "" {
			lead.Notes = entry
		} else {
			lead.Notes += "\n" + entry
		}
		lead.UpdatedAt = now

		if err := st.UpdateLead(ctx, lead); err != nil {
			return err
		}
		if err := st.AddInteraction(ctx, &model.Interaction{
			ID:        uuid.New().String(),
			LeadID:    lead.ID,
			Type:      model.InteractionNote,
			Content:   text,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		fmt.Printf("Note added to %s\n", lead.DisplayName())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(noteCmd)
}
