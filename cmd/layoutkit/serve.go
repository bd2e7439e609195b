package main

import (
	"github.com/spf13/cobra"

	"github.com/eringen/layoutkit"
)

var (
	serveConfig string
	serveAddr   string
	serveDebug  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the site server",
	Long: `Start the site server.

Configuration is read from --config when given, otherwise from the
LAYOUTKIT_* environment variables.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := layoutkit.ConfigFromEnv()
		if serveConfig != "" {
			var err error
			if cfg, err = layoutkit.LoadConfig(serveConfig); err != nil {
				return err
			}
		}
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}
		if cmd.Flags().Changed("debug") {
			cfg.Debug = serveDebug
		}
		return layoutkit.New(cfg).Start()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "", "YAML config file")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides the config")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "show the debug panel to internal clients")
	rootCmd.AddCommand(serveCmd)
}
