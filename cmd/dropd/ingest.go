package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dropd/internal/ingest"
	"dropd/internal/payload"
	"dropd/pkg/types"
)

// ingestCmd represents the ingest command
func ingestCmd() *cobra.Command {
	var (
		into     string
		text     string
		name     string
		typeID   string
		useStdin bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [file|url ...]",
		Short: "Drop files, URLs, bytes, or text into the target directory",
		Long: `Ingest runs the drop pipeline for each argument: local paths are
copied, http/https URLs are downloaded, and --text or --stdin payloads
are written out under a classified name. Every drop lands as exactly
one new file; existing files are never overwritten.`,
		Example: `  dropd ingest ~/Downloads/photo.png
  dropd ingest https://example.com/cat.gif
  dropd ingest --text "remember the milk" --name todo
  curl -s https://example.com/a.png | dropd ingest --stdin --type image/png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var providers []types.PayloadProvider
			for _, arg := range args {
				if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
					providers = append(providers, payload.NewURLProvider(arg))
				} else {
					providers = append(providers, payload.NewStagedFileProvider(arg, cfg.StagingDir()))
				}
			}
			if text != "" {
				providers = append(providers, payload.NewTextProvider(text, name))
			}
			if useStdin {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				providers = append(providers, payload.NewBytesProvider(data, typeID, name))
			}
			if len(providers) == 0 {
				return fmt.Errorf("nothing to ingest: pass files, URLs, --text, or --stdin")
			}

			engine, err := ingest.New(cfg)
			if err != nil {
				return err
			}

			done := make(chan struct{})
			var landed, failed int
			go func() {
				defer close(done)
				for result := range engine.Results() {
					if result.Err != nil {
						failed++
						fmt.Printf("  ✗ %v\n", result.Err)
						continue
					}
					landed++
					fmt.Printf("  ✓ %s\n", result.Path)
				}
			}()

			var accepted bool
			if into != "" {
				accepted = engine.AcceptInto(into, providers)
			} else {
				accepted = engine.Accept(providers)
			}

			engine.Close()
			<-done

			if !accepted {
				return fmt.Errorf("no payload offered a usable representation")
			}
			fmt.Printf("%d dropped, %d failed\n", landed, failed)
			if landed == 0 {
				return fmt.Errorf("every drop failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&into, "into", "", "destination directory (default from config)")
	cmd.Flags().StringVar(&text, "text", "", "ingest this text instead of a file")
	cmd.Flags().StringVar(&name, "name", "", "suggested name for --text or --stdin payloads")
	cmd.Flags().StringVar(&typeID, "type", "", "type identifier for --stdin payloads (e.g. image/png)")
	cmd.Flags().BoolVar(&useStdin, "stdin", false, "read the payload from standard input")

	return cmd
}
