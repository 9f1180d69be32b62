package cli

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"typeindex/internal/domain"
)

var indexRebuild bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed catalog types into the index",
	Long: `Reconcile the vector index with the type catalog.

Without flags this runs the same pass as a server start: an empty index is
filled, a drifted index is rebuilt and an already populated index is left alone.
With --rebuild the index is cleared and every type is embedded again; the first
failure aborts the rebuild.

Examples:
  typeindex index
  typeindex index --rebuild`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "clear the index and embed every type")
}

func runIndex(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.Creds.Available() {
		return fmt.Errorf("%w: set %s or add it to .env", domain.ErrEmbeddingUnavailable, app.Config.Embedding.APIKeyEnv)
	}
	if err := app.Gateway.Initialize(); err != nil {
		return err
	}

	var (
		bar       *progressbar.ProgressBar
		barMu     sync.Mutex
		startTime = time.Now()
	)
	app.Lifecycle.OnProgress(func(indexed, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(indexed)

		if indexed > 0 {
			rate := float64(indexed) / time.Since(startTime).Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-indexed)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Indexing[reset] ETA: %s", formatDuration(eta)))
			}
		}
	})

	if indexRebuild {
		if err := app.Lifecycle.RebuildIndex(); err != nil {
			if errors.Is(err, domain.ErrPassInProgress) {
				return fmt.Errorf("%w (is a server indexing the same store?)", err)
			}
			return err
		}
	} else {
		app.Lifecycle.OnConnected()
		app.Lifecycle.Wait()
	}

	p := app.Lifecycle.Progress()
	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  State:          %s\n", p.State)
	fmt.Printf("  Types indexed:  %d/%d\n", p.Indexed, p.Total)
	if count, err := app.Search.StoredVectorCount(); err == nil {
		fmt.Printf("  Stored vectors: %d\n", count)
	}
	if app.Config.Storage.Backend != "memory" {
		fmt.Printf("\nIndex stored at: %s\n", app.Config.IndexDBPath(app.Dir))
	}
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
