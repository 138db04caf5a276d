package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/modelmeta/internal/annotations"
	"github.com/conduit-lang/modelmeta/internal/cli/ui"
	"github.com/conduit-lang/modelmeta/internal/orm/metadata"
)

type columnsOptions struct {
	model  string
	format string
}

// modelColumns is the JSON output of the columns command
type modelColumns struct {
	Model string `json:"model"`
	metadata.ColumnMap
	Sizes map[string]int `json:"sizes"`
}

// newColumnsCommand creates the columns command
func newColumnsCommand(g *globalOptions) *cobra.Command {
	opts := &columnsOptions{}

	cmd := &cobra.Command{
		Use:   "columns <path>",
		Short: "Show column maps and declared sizes",
		Long: `Show how the properties of each model map to column names, and the
sizes declared explicitly by @Column annotations. Dialect default sizes are
not applied, so no data source is needed.`,
		Example: `  modelmeta columns ./models --model Robots`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.format); err != nil {
				return err
			}
			reader, err := readModels(args[0])
			if err != nil {
				return err
			}
			models, err := g.selectModels(reader, opts.model)
			if err != nil {
				return err
			}

			results := make([]modelColumns, 0, len(models))
			for _, model := range models {
				props, err := reader.PropertiesAnnotations(model)
				if err != nil {
					return err
				}
				results = append(results, columnsOf(model, props))
			}

			out := cmd.OutOrStdout()
			if opts.format == formatJSON {
				return writeJSON(out, results)
			}
			for _, mc := range results {
				ui.Header(out, mc.Model, g.noColor)
				table := ui.NewTable(out, g.noColor, "PROPERTY", "COLUMN", "SIZE")
				for _, property := range sortedKeys(mc.PropertyToColumn) {
					size := ""
					if s, ok := mc.Sizes[property]; ok {
						size = strconv.Itoa(s)
					}
					table.AddRow(property, mc.PropertyToColumn[property], size)
				}
				table.Render()
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Show a single model")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "Output format: text or json")

	return cmd
}

func columnsOf(model string, props *annotations.PropertyAnnotations) modelColumns {
	return modelColumns{
		Model:     model,
		ColumnMap: metadata.BuildColumnMap(props),
		Sizes:     metadata.ExtractSizes(props),
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
