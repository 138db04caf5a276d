package docblock

import (
	"fmt"
	"go/ast"
	goparser "go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conduit-lang/modelmeta/internal/annotations"
)

// ReadFile parses a Go source file and returns a reader over every struct
// type that carries annotations in its doc comments
func ReadFile(path string) (*annotations.StaticReader, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ReadSource(path, src)
}

// ReadDir parses every non-test Go file of a directory
func ReadDir(dir string) (*annotations.StaticReader, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)

	reader := annotations.NewStaticReader()
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		models, err := parseModels(path, src)
		if err != nil {
			return nil, err
		}
		for _, m := range models {
			reader.Register(m)
		}
	}
	return reader, nil
}

// ReadSource parses Go source held in memory
func ReadSource(filename string, src []byte) (*annotations.StaticReader, error) {
	models, err := parseModels(filename, src)
	if err != nil {
		return nil, err
	}
	return annotations.NewStaticReader(models...), nil
}

func parseModels(filename string, src []byte) ([]*annotations.Model, error) {
	fset := token.NewFileSet()
	file, err := goparser.ParseFile(fset, filename, src, goparser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	var models []*annotations.Model
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				continue
			}

			doc := ts.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			m, err := parseModel(fset, filename, ts.Name.Name, doc, st)
			if err != nil {
				return nil, err
			}
			if m != nil {
				models = append(models, m)
			}
		}
	}
	return models, nil
}

// parseModel returns nil for structs without any annotation
func parseModel(fset *token.FileSet, filename, name string, doc *ast.CommentGroup, st *ast.StructType) (*annotations.Model, error) {
	class, err := parseGroups(fset, filename, doc)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}

	b := annotations.NewModel(name).Class(class...)
	annotated := len(class) > 0
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			continue
		}
		items, err := parseGroups(fset, filename, field.Doc, field.Comment)
		if err != nil {
			return nil, fmt.Errorf("model %s field %s: %w", name, field.Names[0].Name, err)
		}
		if len(items) == 0 {
			continue
		}
		annotated = true
		for _, ident := range field.Names {
			b.Property(ident.Name, items...)
		}
	}

	if !annotated {
		return nil, nil
	}
	return b.Build(), nil
}

func parseGroups(fset *token.FileSet, filename string, groups ...*ast.CommentGroup) ([]*annotations.Annotation, error) {
	var out []*annotations.Annotation
	for _, g := range groups {
		if g == nil {
			continue
		}
		items, err := parseAt(g.Text(), filename, fset.Position(g.Pos()).Line)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}
