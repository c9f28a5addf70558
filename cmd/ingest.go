/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/compliance-be/config"
	"github.com/tieubaoca/compliance-be/types"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Ingest financial documents for validation",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		company, _ := cmd.Flags().GetString("company")
		fiscalYear, _ := cmd.Flags().GetString("fiscal-year")

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

		for _, path := range args {
			doc, err := app.ingest.IngestDocument(ctx, path, types.UploadRequest{
				Company:    company,
				FiscalYear: fiscalYear,
			})
			if err != nil {
				log.Fatalf("Failed to ingest %s: %v", path, err)
			}
			fmt.Printf("Ingested %s: document %s, %d pages, %d chunks\n",
				path, doc.ID, doc.PageCount, doc.ChunkCount)
		}
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().String("company", "", "company the documents belong to")
	ingestCmd.Flags().String("fiscal-year", "", "fiscal year covered by the documents")
}
