/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/compliance-be/config"
	"github.com/tieubaoca/compliance-be/types"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <document-id>",
	Short: "Run a compliance check on an ingested document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		frameworks, _ := cmd.Flags().GetStringSlice("frameworks")
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		ctx := context.Background()
		app, err := buildApp(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize services: %v", err)
		}
		defer app.close(ctx)

		report, err := app.engine.Check(ctx, types.CheckRequest{
			DocumentID: args[0],
			Frameworks: frameworks,
		})
		if err != nil {
			log.Fatalf("Check failed: %v", err)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				log.Fatalf("Failed to encode report: %v", err)
			}
			return
		}

		fmt.Printf("Report %s for %s\n", report.ReportID, report.DocumentName)
		fmt.Printf("Overall score: %.1f%% across %d rules (%.1fs)\n",
			report.OverallScore, report.TotalRulesChecked, report.ProcessingTimeSeconds)
		for _, fb := range report.Frameworks {
			if fb.RulesChecked == 0 {
				fmt.Printf("  %-22s no rules checked\n", fb.Framework)
				continue
			}
			fmt.Printf("  %-22s %5.1f%%  (%d compliant, %d partial, %d non-compliant of %d)\n",
				fb.Framework, fb.Score, fb.Compliant, fb.Partial, fb.NonCompliant, fb.RulesChecked)
		}
		fmt.Println()
		fmt.Println(report.Summary)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringSlice("frameworks", nil, "frameworks to validate against (default all)")
	checkCmd.Flags().Bool("json", false, "print the full report as JSON")
}
