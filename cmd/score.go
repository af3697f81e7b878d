package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/scorer"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Recompute lead intent scores",
}

var scoreAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Rescore every lead against the current signal catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		im, _, cleanup, err := initImporter(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		summary, err := im.RescoreAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Rescored %d leads: %d changed, %d hot\n",
			summary.Total, summary.Changed, summary.Hot)
		return nil
	},
}

var scoreLeadCmd = &cobra.Command{
	Use:   "lead <id>",
	Short: "Rescore a single lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		im, _, cleanup, err := initImporter(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		lead, err := im.RescoreLead(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: score %d (%s)\n", lead.DisplayName(), lead.Score, lead.Tier)
		printBreakdown(lead.ScoreBreakdown)
		return nil
	},
}

var scoreTestCmd = &cobra.Command{
	Use:   "test <text>",
	Short: "Score arbitrary text without touching the database",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := initCatalog()
		if err != nil {
			return err
		}

		result := scorer.New(catalog).ScoreText(strings.Join(args, " "))
		fmt.Printf("Score: %d (%s)\n", result.Total, result.Tier)
		for _, m := range result.Matches {
			fmt.Printf("  %+d  %-16s %q\n", m.Weight, m.Category, m.Phrase)
		}
		if len(result.Matches) == 0 {
			fmt.Println("  no signals matched")
		}
		return nil
	},
}

func init() {
	scoreCmd.AddCommand(scoreAllCmd, scoreLeadCmd, scoreTestCmd)
	rootCmd.AddCommand(scoreCmd)
}
