package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag <id> <tag>...",
	Short: "Add tags to a lead",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, tags := args[0], args[1:]
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

		lead.AddTags(tags...)
		lead.UpdatedAt = time.Now().UTC()
		if err := st.UpdateLead(ctx, lead); err != nil {
			return err
		}

		fmt.Printf("%s tags: %s\n", lead.DisplayName(), strings.Join(lead.Tags, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tagCmd)
}
