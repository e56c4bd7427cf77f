package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dropd/internal/classify"
)

// classifyCmd represents the classify command
func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <identifier> [identifier ...]",
		Short: "Show how type identifiers map to categories and extensions",
		Example: `  dropd classify image/png public.heic application/pdf
  dropd classify x-vendor-mystery`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := classify.NewWithConfig(cfg)
			for _, identifier := range args {
				info, err := engine.Classify(identifier)
				ext := info.Extension
				if ext == "" {
					ext = "(none)"
				}
				if err != nil {
					fmt.Printf("  %-28s → %s %s  [unrecognized, handled as opaque data]\n", identifier, info.Category, ext)
					continue
				}
				fmt.Printf("  %-28s → %s %s\n", identifier, info.Category, ext)
			}
			return nil
		},
	}
	return cmd
}
