package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/boardex/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build metadata",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}
