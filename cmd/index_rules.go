/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/compliance-be/config"
	"github.com/tieubaoca/compliance-be/service"
)

// indexRulesCmd represents the index-rules command
var indexRulesCmd = &cobra.Command{
	Use:   "index-rules <framework> <file-or-dir>...",
	Short: "Index regulatory rule sources into a framework's collection",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		framework := args[0]
		if !service.IsKnownFramework(framework) {
			log.Fatalf("Unknown framework %q, supported: %s", framework, strings.Join(service.AllFrameworks(), ", "))
		}

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

		var paths []string
		for _, arg := range args[1:] {
			info, err := os.Stat(arg)
			if err != nil {
				log.Fatalf("Cannot read %s: %v", arg, err)
			}
			if !info.IsDir() {
				paths = append(paths, arg)
				continue
			}
			entries, err := os.ReadDir(arg)
			if err != nil {
				log.Fatalf("Cannot read directory %s: %v", arg, err)
			}
			for _, entry := range entries {
				if !entry.IsDir() {
					paths = append(paths, filepath.Join(arg, entry.Name()))
				}
			}
		}

		total := 0
		for _, path := range paths {
			count, err := app.ingest.IndexRules(ctx, framework, path)
			if err != nil {
				log.Fatalf("Failed to index %s: %v", path, err)
			}
			fmt.Printf("Indexed %s: %d chunks\n", path, count)
			total += count
		}
		fmt.Printf("Done, %d chunks indexed into %s\n", total, framework)
	},
}

func init() {
	rootCmd.AddCommand(indexRulesCmd)
}
