// -- cmd/catalog.go --
package cmd

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/canvaspress/canvaspress/internal/observability"
	"github.com/canvaspress/canvaspress/internal/pipeline"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog <design.json>",
	Short: "Print the variable catalog for a design without rendering it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		design, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read design %q: %w", args[0], err)
		}

		p := pipeline.New(appConfig, nil, nil, observability.GetLogger())
		cat, err := p.BuildCatalog(design)
		if err != nil {
			return err
		}

		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cat)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
