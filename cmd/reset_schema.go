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
	"github.com/tieubaoca/compliance-be/database"
)

// resetSchemaCmd represents the reset-schema command
var resetSchemaCmd = &cobra.Command{
	Use:   "reset-schema",
	Short: "Drop and recreate the vector store collections",
	Long:  `Drops every chunk collection and recreates the schema. All indexed rules and documents must be re-ingested afterwards.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		store, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig)
		if err != nil {
			log.Fatalf("Failed to connect to Weaviate: %v", err)
		}
		if err := store.ReInit(context.Background()); err != nil {
			log.Fatalf("Failed to reset schema: %v", err)
		}
		fmt.Println("Vector store schema recreated")
	},
}

func init() {
	rootCmd.AddCommand(resetSchemaCmd)
}
