package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/store"
)

var (
	exportOutput string
	exportTier   string
	exportStatus string
	exportLimit  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export leads to CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		leads, err := st.ListLeads(cmd.Context(), store.LeadFilter{
			Tier:   model.Tier(exportTier),
			Status: model.LeadStatus(exportStatus),
			Limit:  exportLimit,
		})
		if err != nil {
			return err
		}

		out := os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		w := csv.NewWriter(out)
		header := []string{"id", "name", "email", "phone", "username", "source",
			"score", "tier", "status", "tags", "notes", "created_at"}
		if err := w.Write(header); err != nil {
			return eris.Wrap(err, "write csv header")
		}
		for _, l := range leads {
			row := []string{
				l.ID, l.Name, l.Email, l.Phone, l.Username, l.Source,
				strconv.Itoa(l.Score), string(l.Tier), string(l.Status),
				strings.Join(l.Tags, ";"), l.Notes,
				l.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			}
			if err := w.Write(row); err != nil {
				return eris.Wrap(err, "write csv row")
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return eris.Wrap(err, "flush csv")
		}

		if exportOutput != "" {
			fmt.Printf("Exported %d leads to %s\n", len(leads), exportOutput)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&exportTier, "tier", "", "filter by tier")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "filter by status")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "maximum rows (0 = store default)")
	rootCmd.AddCommand(exportCmd)
}
