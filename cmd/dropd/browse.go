package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"dropd/internal/icons"
	"dropd/internal/index"
	"dropd/internal/ingest"
	"dropd/internal/tui"
	"dropd/internal/watch"
)

// browseCmd represents the browse command
func browseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse [directory]",
		Short: "Browse the target directory with a live listing",
		Long: `Browse opens a terminal view of the target directory. The listing
follows filesystem changes as they happen, so drops made from another
shell show up the moment they land.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ingest.New(cfg)
			if err != nil {
				return err
			}

			dir := engine.Destination()
			if len(args) > 0 {
				dir = args[0]
				if info, serr := os.Stat(dir); serr != nil || !info.IsDir() {
					return fmt.Errorf("not a browsable directory: %s", dir)
				}
			}

			session := watch.NewWithConfig(cfg)
			model := tui.New(engine, session, index.New(), icons.NewProvider(cfg), dir)

			program := tea.NewProgram(model, tea.WithAltScreen())
			_, runErr := program.Run()

			session.Stop()
			go func() {
				for range engine.Results() {
				}
			}()
			engine.Close()

			return runErr
		},
	}
	return cmd
}
