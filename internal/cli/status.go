package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config
	fmt.Printf("Provider:   %s (%s)\n", cfg.Embedding.Provider, cfg.Embedding.Model)
	fmt.Printf("API key:    %s\n", availability(app.Creds.Available()))
	fmt.Printf("Backend:    %s\n", cfg.Storage.Backend)
	if cfg.Storage.Backend != "memory" {
		fmt.Printf("Store path: %s\n", cfg.IndexDBPath(app.Dir))
	}
	fmt.Printf("Catalog:    %s\n", cfg.CatalogDir(app.Dir))

	count, err := app.Search.StoredVectorCount()
	if err != nil {
		return err
	}
	fmt.Printf("Vectors:    %d (initialized at %d)\n", count, cfg.Index.MinExpectedIndexed)

	drift, err := app.Vectors.CheckDrift(app.Gateway.ModelID())
	if err != nil {
		return err
	}
	if drift.NeedsRebuild {
		fmt.Printf("Drift:      rebuild needed (%s)\n", drift.Reason)
	} else {
		fmt.Printf("Drift:      none\n")
	}

	manifest, err := app.Vectors.Manifest()
	if err != nil {
		return err
	}
	if manifest != nil {
		fmt.Printf("Manifest:   schema v%d, model %s, updated %s\n",
			manifest.SchemaVersion, manifest.ModelID, manifest.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func availability(ok bool) string {
	if ok {
		return "set"
	}
	return "missing"
}
