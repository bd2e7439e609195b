// layoutkit CLI - serve a site, or render and inspect its templates
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "layoutkit",
	Short: "Pages composed from a base layout and child templates",
	Long: `layoutkit serves pages composed from a base layout and child templates.

Examples:
  layoutkit serve --config site.yaml
  layoutkit render page.html --var page.Title=About --debug
  layoutkit blocks wide.html`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the layoutkit version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "layoutkit %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
