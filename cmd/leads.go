package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/store"
)

var (
	leadsStatus   string
	leadsTier     string
	leadsSource   string
	leadsMinScore int
	leadsLimit    int
	leadsOffset   int
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List and inspect leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads, hottest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter := store.LeadFilter{
			Status: model.LeadStatus(leadsStatus),
			Tier:   model.Tier(leadsTier),
			Source: leadsSource,
			Limit:  leadsLimit,
			Offset: leadsOffset,
		}
		if cmd.Flags().Changed("min-score") {
			filter.MinScore = &leadsMinScore
		}

		leads, err := st.ListLeads(cmd.Context(), filter)
		if err != nil {
			return err
		}
		printLeadTable(leads)
		return nil
	},
}

var leadsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one lead with its interaction history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		lead, err := st.GetLead(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s  [%s / %s]\n", lead.DisplayName(), lead.Tier, lead.Status)
		fmt.Printf("  id:       %s\n", lead.ID)
		fmt.Printf("  source:   %s\n", lead.Source)
		if lead.Email != "" {
			fmt.Printf("  email:    %s\n", lead.Email)
		}
		if lead.Phone != "" {
			fmt.Printf("  phone:    %s\n", lead.Phone)
		}
		if lead.Username != "" {
			fmt.Printf("  username: %s\n", lead.Username)
		}
		fmt.Printf("  score:    %d\n", lead.Score)
		if len(lead.Tags) > 0 {
			fmt.Printf("  tags:     %s\n", strings.Join(lead.Tags, ", "))
		}
		if lead.Bio != "" {
			fmt.Printf("  bio:      %s\n", lead.Bio)
		}
		if lead.Notes != "" {
			fmt.Printf("  notes:\n%s\n", indent(lead.Notes, "    "))
		}
		printBreakdown(lead.ScoreBreakdown)

		interactions, err := st.ListInteractions(cmd.Context(), lead.ID, 20)
		if err != nil {
			return err
		}
		if len(interactions) > 0 {
			fmt.Println("  history:")
			for _, in := range interactions {
				fmt.Printf("    %s  %-13s %s\n",
					in.CreatedAt.Local().Format("2006-01-02 15:04"), in.Type, in.Content)
			}
		}
		return nil
	},
}

var leadsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search leads by name, email, username, bio, or notes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		leads, err := st.SearchLeads(cmd.Context(), strings.Join(args, " "), leadsLimit)
		if err != nil {
			return err
		}
		printLeadTable(leads)
		return nil
	},
}

func printLeadTable(leads []model.Lead) {
	if len(leads) == 0 {
		fmt.Println("no leads")
		return
	}
	fmt.Printf("%-36s %-24s %-10s %-10s %6s  %s\n",
		"ID", "NAME", "TIER", "STATUS", "SCORE", "SOURCE")
	for _, l := range leads {
		name := l.DisplayName()
		if len(name) > 24 {
			name = name[:21] + "..."
		}
		fmt.Printf("%-36s %-24s %-10s %-10s %6d  %s\n",
			l.ID, name, l.Tier, l.Status, l.Score, l.Source)
	}
}

func printBreakdown(b *model.ScoreBreakdown) {
	if b == nil || len(b.Matches) == 0 {
		return
	}
	fmt.Println("  signals:")
	for _, m := range b.Matches {
		fmt.Printf("    %+d  %-16s %q\n", m.Weight, m.Category, m.Phrase)
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func init() {
	leadsListCmd.Flags().StringVar(&leadsStatus, "status", "", "filter by status")
	leadsListCmd.Flags().StringVar(&leadsTier, "tier", "", "filter by tier")
	leadsListCmd.Flags().StringVar(&leadsSource, "source", "", "filter by source")
	leadsListCmd.Flags().IntVar(&leadsMinScore, "min-score", 0, "minimum score")
	leadsListCmd.Flags().IntVar(&leadsLimit, "limit", 50, "maximum results")
	leadsListCmd.Flags().IntVar(&leadsOffset, "offset", 0, "results to skip")
	leadsSearchCmd.Flags().IntVar(&leadsLimit, "limit", 50, "maximum results")

	leadsCmd.AddCommand(leadsListCmd, leadsShowCmd, leadsSearchCmd)
	rootCmd.AddCommand(leadsCmd)
}
