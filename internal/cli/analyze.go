package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/rapport/internal/engine"
	"github.com/lazypower/rapport/internal/export"
)

var (
	analyzeTargets []string
	analyzeCompany string
	analyzeFormat  string
	analyzeSave    bool
	analyzeTop     int
	analyzeTimeout time.Duration
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <export-dir>",
	Short: "Analyze an unzipped LinkedIn data export",
	Long: "Reads the standard LinkedIn export files (Connections.csv, messages.csv, endorsements, " +
		"recommendations, Positions.csv, Invitations.csv, Reactions.csv) from a directory and prints a report.",
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringArrayVarP(&analyzeTargets, "target", "t", nil, "person to find warm paths to (name or profile URL, repeatable)")
	f.StringVar(&analyzeCompany, "company", "", "employer of the targets, used when a target is not in your network")
	f.StringVarP(&analyzeFormat, "format", "f", FormatTable, "output format: table, markdown, json or yaml")
	f.BoolVar(&analyzeSave, "save", false, "archive the report in the local database")
	f.IntVar(&analyzeTop, "top", 15, "rows per ranked table (0 for all)")
	f.DurationVar(&analyzeTimeout, "timeout", 0, "abort the analysis after this long (0 uses the server timeout)")
}

// buildTargets pairs every --target with --company. A company alone becomes
// a target of its own.
func buildTargets(queries []string, company string) []engine.Target {
	var out []engine.Target
	for _, q := range queries {
		out = append(out, engine.Target{Query: q, Company: company})
	}
	if len(out) == 0 && company != "" {
		out = append(out, engine.Target{Company: company})
	}
	return out
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := validFormat(analyzeFormat); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files, err := export.ReadDir(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "reading %d export files from %s\n", len(files), args[0])

	timeout := analyzeTimeout
	if timeout == 0 && cfg.Server.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, err := engine.New(cfg).Analyze(ctx, engine.Request{
		Files:   files,
		Targets: buildTargets(analyzeTargets, analyzeCompany),
	})
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	if analyzeSave {
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveReport(report); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved report %s\n", report.ID)
	}

	return renderReport(cmd.OutOrStdout(), report, analyzeFormat, analyzeTop)
}
