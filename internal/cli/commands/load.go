package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelmeta/internal/annotations"
	"github.com/conduit-lang/modelmeta/internal/annotations/docblock"
	"github.com/conduit-lang/modelmeta/internal/cli/config"
	"github.com/conduit-lang/modelmeta/internal/cli/logging"
	"github.com/conduit-lang/modelmeta/internal/cli/ui"
	"github.com/conduit-lang/modelmeta/internal/orm/adapter"
	"github.com/conduit-lang/modelmeta/internal/orm/metadata"
)

// Output formats
const (
	formatText = "text"
	formatJSON = "json"
)

// setup loads the configuration and builds the logger
func (o *globalOptions) setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// readModels parses a Go source file, or every Go file of a directory
func readModels(path string) (*annotations.StaticReader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read models: %w", err)
	}
	if info.IsDir() {
		return docblock.ReadDir(path)
	}
	return docblock.ReadFile(path)
}

// selectModels returns the single requested model, or every model when
// name is empty
func (o *globalOptions) selectModels(reader *annotations.StaticReader, name string) ([]string, error) {
	known := reader.Models()
	if name == "" {
		if len(known) == 0 {
			return nil, errors.New("no annotated models found")
		}
		return known, nil
	}
	if _, ok := reader.Model(name); !ok {
		return nil, errors.New(ui.ModelNotFound(name, known, o.noColor))
	}
	return []string{name}, nil
}

// fixedDialect reports the same dialect for every source
type fixedDialect string

func (d fixedDialect) Dialect(string) (string, error) { return string(d), nil }

func (d fixedDialect) Dialects() []string { return []string{string(d)} }

// dialectProvider returns a fixed provider when dialect is set, otherwise
// the catalog of configured data sources. The returned close function must
// be called once the provider is no longer needed.
func dialectProvider(cfg *config.Config, dialect string, logger *zap.Logger) (metadata.DialectProvider, func() error, error) {
	if dialect != "" {
		return fixedDialect(dialect), func() error { return nil }, nil
	}

	sources := cfg.AdapterSources()
	if len(sources) == 0 {
		return nil, nil, errors.New("no data sources configured: pass --dialect or add sources to modelmeta.yml")
	}
	catalog, err := adapter.NewCatalog(sources, adapter.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return catalog, catalog.Close, nil
}

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: %s, %s)", format, formatText, formatJSON)
	}
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
