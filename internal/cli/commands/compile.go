package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/modelmeta/internal/cli/ui"
	"github.com/conduit-lang/modelmeta/internal/orm/metadata"
)

type compileOptions struct {
	model   string
	format  string
	dialect string
}

// newCompileCommand creates the compile command
func newCompileCommand(g *globalOptions) *cobra.Command {
	opts := &compileOptions{}

	cmd := &cobra.Command{
		Use:   "compile <path>",
		Short: "Compile model annotations into metadata records",
		Long: `Compile the annotations of the models declared in a Go file or directory.

Each model's @Source annotation names a data source. Its dialect is taken
from the sources configured in modelmeta.yml, or forced with --dialect.`,
		Example: `  # Compile every model of a package
  modelmeta compile ./models

  # Compile one model as JSON for a MySQL source
  modelmeta compile ./models/robots.go --model Robots --dialect mysql --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, g, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Compile a single model")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "Output format: text or json")
	cmd.Flags().StringVar(&opts.dialect, "dialect", "", "Dialect of every source: mysql, postgresql or sqlite")

	return cmd
}

func runCompile(cmd *cobra.Command, g *globalOptions, opts *compileOptions, path string) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	reader, err := readModels(path)
	if err != nil {
		return err
	}
	models, err := g.selectModels(reader, opts.model)
	if err != nil {
		return err
	}

	provider, closeProvider, err := dialectProvider(cfg, opts.dialect, logger)
	if err != nil {
		return err
	}
	defer closeProvider()

	compiler, err := metadata.NewCompiler(reader, provider, metadata.WithLogger(logger))
	if err != nil {
		return err
	}

	records := make([]*metadata.ModelMetadata, 0, len(models))
	for _, model := range models {
		meta, err := compiler.Compile(model)
		if err != nil {
			return err
		}
		records = append(records, meta)
	}

	out := cmd.OutOrStdout()
	if opts.format == formatJSON {
		if opts.model != "" {
			return writeJSON(out, records[0])
		}
		return writeJSON(out, records)
	}
	for _, meta := range records {
		renderMetadata(out, meta, g.noColor)
	}
	return nil
}

func renderMetadata(w io.Writer, meta *metadata.ModelMetadata, noColor bool) {
	ui.Header(w, fmt.Sprintf("%s (%s)", meta.Model, meta.Dialect), noColor)

	primary := set(meta.PrimaryKeys)
	notNull := set(meta.NotNull)

	table := ui.NewTable(w, noColor, "COLUMN", "PROPERTY", "TYPE", "BIND", "SIZE", "FLAGS")
	for _, column := range meta.Attributes {
		size := ""
		if s, ok := meta.Sizes[column]; ok {
			size = strconv.Itoa(s)
		}

		var flags []string
		if primary[column] {
			flags = append(flags, "primary")
		}
		if meta.IdentityColumn.Valid && meta.IdentityColumn.Column == column {
			flags = append(flags, "identity")
		}
		if notNull[column] {
			flags = append(flags, "not null")
		}
		if meta.NumericTypes[column] {
			flags = append(flags, "numeric")
		}

		table.AddRow(column, meta.ColumnMap[column], meta.DataTypes[column].String(),
			meta.BindTypes[column].String(), size, strings.Join(flags, ", "))
	}
	table.Render()

	if len(meta.Indexes) > 0 {
		fmt.Fprintln(w)
		indexes := ui.NewTable(w, noColor, "INDEX", "KIND", "COLUMNS")
		for _, idx := range meta.Indexes {
			indexes.AddRow(idx.Name, idx.Kind.String(), strings.Join(idx.Columns, ", "))
		}
		indexes.Render()
	}
	fmt.Fprintln(w)
}

func set(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
