package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dropd/internal/config"
	"dropd/internal/log"
)

var (
	cfgFile  string
	debug    bool
	jsonLogs bool
	cfg      *config.Config
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dropd",
		Short: "A drop target for your filesystem",
		Long: `Dropd takes whatever you throw at it - files, URLs, raw bytes, text -
and lands exactly one artifact per drop in your target directory, with a
collision-free name. The browser shows the directory live as drops arrive.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			if cfgFile != "" {
				cfg, err = config.LoadConfigFile(cfgFile)
			} else {
				cfg, err = config.LoadConfig()
			}
			if err != nil {
				fmt.Printf("Warning: %v\n", err)
				fmt.Println("Using default settings.")
				cfg = config.New()
			}

			if debug {
				cfg.Log.Debug = true
			}
			if jsonLogs {
				cfg.Log.JSON = true
			}

			log.SetDebug(cfg.Log.Debug)
			var opts []log.Option
			if cfg.Log.JSON {
				opts = append(opts, log.WithJSON())
			}
			if cfg.Log.File != "" {
				opts = append(opts, log.WithFile(cfg.Log.File))
			}
			if len(opts) > 0 {
				log.Configure(opts...)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/dropd/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "log as JSON")

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(browseCmd())
	rootCmd.AddCommand(classifyCmd())

	return rootCmd
}
