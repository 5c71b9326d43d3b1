package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	reportsFormat string
	reportsLimit  int
	reportsTop    int
	pruneKeep     int
)

var reportsCmd = &cobra.Command{
	Use:   "reports [id]",
	Short: "List saved reports, or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReports,
}

var reportsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.DeleteReport(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "deleted %s\n", args[0])
		return nil
	},
}

var reportsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest saved reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		n, err := db.PruneReports(pruneKeep)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "pruned %d reports\n", n)
		return nil
	},
}

func init() {
	reportsCmd.PersistentFlags().StringVarP(&reportsFormat, "format", "f", FormatTable, "output format: table, markdown, json or yaml")
	reportsCmd.Flags().IntVar(&reportsLimit, "limit", 20, "reports to list (0 for all)")
	reportsCmd.Flags().IntVar(&reportsTop, "top", 15, "rows per ranked table when showing a report")
	reportsPruneCmd.Flags().IntVar(&pruneKeep, "keep", 10, "reports to keep")

	reportsCmd.AddCommand(reportsDeleteCmd)
	reportsCmd.AddCommand(reportsPruneCmd)
}

func runReports(cmd *cobra.Command, args []string) error {
	if err := validFormat(reportsFormat); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 0 {
		reports, err := db.ListReports(reportsLimit)
		if err != nil {
			return err
		}
		return renderReportList(cmd.OutOrStdout(), reports, reportsFormat)
	}

	report, err := db.GetReport(args[0])
	if err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("report %s not found", args[0])
	}
	return renderReport(cmd.OutOrStdout(), report, reportsFormat, reportsTop)
}
