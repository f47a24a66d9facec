// -- cmd/markup.go --
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/canvaspress/canvaspress/internal/observability"
	"github.com/canvaspress/canvaspress/internal/pipeline"
)

var markupOut string

var markupCmd = &cobra.Command{
	Use:   "markup <design.json>",
	Short: "Generate the positioned HTML document with its variable tokens intact.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		design, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read design %q: %w", args[0], err)
		}

		p := pipeline.New(appConfig, nil, nil, observability.GetLogger())
		doc, err := p.GenerateMarkup(design)
		if err != nil {
			return err
		}

		if markupOut != "" {
			return os.WriteFile(markupOut, []byte(doc), 0o644)
		}
		_, err = fmt.Fprintln(os.Stdout, doc)
		return err
	},
}

func init() {
	markupCmd.Flags().StringVarP(&markupOut, "out", "o", "", "write the document to a file instead of stdout")
	rootCmd.AddCommand(markupCmd)
}
