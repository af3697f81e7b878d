package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the lead database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stats, err := st.Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Leads: %d\n", stats.Total)

		fmt.Println("By tier:")
		for _, tier := range []model.Tier{model.TierHot, model.TierWarm, model.TierLukewarm, model.TierCold, model.TierNegative} {
			if n := stats.ByTier[tier]; n > 0 {
				fmt.Printf("  %-10s %d\n", tier, n)
			}
		}

		fmt.Println("By status:")
		statuses := make([]string, 0, len(stats.ByStatus))
		for s := range stats.ByStatus {
			statuses = append(statuses, string(s))
		}
		sort.Strings(statuses)
		for _, s := range statuses {
			fmt.Printf("  %-10s %d\n", s, stats.ByStatus[model.LeadStatus(s)])
		}

		fmt.Println("By source:")
		sources := make([]string, 0, len(stats.BySource))
		for s := range stats.BySource {
			sources = append(sources, s)
		}
		sort.Strings(sources)
		for _, s := range sources {
			fmt.Printf("  %-10s %d\n", s, stats.BySource[s])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
