package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/modelmeta/internal/cli/ui"
	"github.com/conduit-lang/modelmeta/internal/orm/relations"
)

type relationsOptions struct {
	model  string
	format string
}

// modelRelations is the JSON output of the relations command
type modelRelations struct {
	Model      string                         `json:"model"`
	Connection string                         `json:"connection,omitempty"`
	Source     string                         `json:"source,omitempty"`
	Relations  []relations.RelationDefinition `json:"relations"`
}

// newRelationsCommand creates the relations command
func newRelationsCommand(g *globalOptions) *cobra.Command {
	opts := &relationsOptions{}

	cmd := &cobra.Command{
		Use:   "relations <path>",
		Short: "Wire and list model relations",
		Long: `Wire the @Source and relation annotations of each model into a fresh
registry and list the result.`,
		Example: `  modelmeta relations ./models
  modelmeta relations ./models --model Robots --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.format); err != nil {
				return err
			}
			_, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			reader, err := readModels(args[0])
			if err != nil {
				return err
			}
			models, err := g.selectModels(reader, opts.model)
			if err != nil {
				return err
			}

			registry := relations.NewModelRegistry()
			wirer := relations.NewWirer(reader, registry, logger)

			results := make([]modelRelations, 0, len(models))
			for _, model := range models {
				if _, err := wirer.Initialize(model); err != nil {
					return err
				}
				mr := modelRelations{Model: model, Relations: registry.Relations(model)}
				mr.Connection, _ = registry.ConnectionService(model)
				mr.Source, _ = registry.Source(model)
				results = append(results, mr)
			}

			out := cmd.OutOrStdout()
			if opts.format == formatJSON {
				return writeJSON(out, results)
			}
			for _, mr := range results {
				renderRelations(cmd, mr, g.noColor)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Show a single model")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "Output format: text or json")

	return cmd
}

func renderRelations(cmd *cobra.Command, mr modelRelations, noColor bool) {
	out := cmd.OutOrStdout()
	ui.Header(out, mr.Model, noColor)

	if mr.Connection != "" {
		kv := ui.NewKeyValue(out, noColor)
		kv.Add("Connection", mr.Connection)
		if mr.Source != "" {
			kv.Add("Source", mr.Source)
		}
		kv.Render()
		fmt.Fprintln(out)
	}

	if len(mr.Relations) == 0 {
		fmt.Fprintln(out, "no relations")
		fmt.Fprintln(out)
		return
	}

	table := ui.NewTable(out, noColor, "NAME", "KIND", "FIELDS", "THROUGH", "REFERENCES")
	for _, rel := range mr.Relations {
		through := ""
		if rel.Kind == relations.HasManyToMany {
			through = fmt.Sprintf("%s(%s | %s)", rel.IntermediateModel,
				strings.Join(rel.IntermediateFields, ", "),
				strings.Join(rel.IntermediateReferencedFields, ", "))
		}
		table.AddRow(rel.Name(), rel.Kind.String(), strings.Join(rel.Fields, ", "), through,
			fmt.Sprintf("%s(%s)", rel.ReferencedModel, strings.Join(rel.ReferencedFields, ", ")))
	}
	table.Render()
	fmt.Fprintln(out)
}
