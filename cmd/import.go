package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/connector"
)

var importSheetName string

var importCmd = &cobra.Command{
	Use:   "import <source> <path>",
	Short: "Import contacts from a file or platform export",
	Long: `Import contacts from a source file and resolve them into leads.

Sources:
  csv        CSV file with a header row (column names are matched loosely)
  xlsx       Excel workbook (first sheet unless --sheet is given)
  instagram  Instagram data export (zip or extracted folder)
  facebook   Facebook data export (zip or extracted folder)

Each imported contact is matched against existing leads by source ID, email,
phone, and username. Matches merge; everything else becomes a new lead. Every
lead is scored on import.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, path := args[0], args[1]

		conn, err := connector.ForSource(source)
		if err != nil {
			return eris.Wrapf(err, "known sources: %s", strings.Join(connector.Sources(), ", "))
		}
		if x, ok := conn.(*connector.XLSXConnector); ok {
			x.SheetName = importSheetName
		}

		im, _, cleanup, err := initImporter(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		summary, err := im.ImportFrom(cmd.Context(), conn, path)
		if err != nil {
			return err
		}

		for _, w := range summary.Warnings {
			zap.L().Warn("import warning", zap.String("warning", w))
		}
		for _, e := range summary.Errors {
			zap.L().Error("import error", zap.String("error", e))
		}

		fmt.Printf("Imported %d contacts from %s: %d new, %d merged, %d hot\n",
			summary.Total, summary.Source, summary.New, summary.Merged, summary.Hot)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importSheetName, "sheet", "", "XLSX sheet name (default first sheet)")
	rootCmd.AddCommand(importCmd)
}
