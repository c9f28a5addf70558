/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "compliance-be",
	Short: "Compliance validation backend for financial documents",
	Long: `compliance-be validates Indian financial and regulatory documents
against frameworks such as Ind AS, Schedule III, SEBI LODR, RBI norms,
BRSR and the Standards on Auditing.

It indexes regulatory rule sources and uploaded documents into a vector
store, plans framework-specific checks, assesses each rule against the
document evidence and produces a scored compliance report.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config/config.yaml", "config file")
}
