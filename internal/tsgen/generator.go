package tsgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goatx/apigen/internal/openapi"
	"github.com/goatx/apigen/internal/strcase"
)

// Formatter post-processes a directory of generated files.
type Formatter interface {
	Format(ctx context.Context, dir string) error
}

// GenerateOptions contains configuration options for client generation.
type GenerateOptions struct {
	// InputDir is scanned (non-recursively) for OpenAPI documents. Required.
	InputDir string

	// OutputDir receives one subdirectory per document.
	// Defaults to "./generated" if not specified.
	OutputDir string

	// Extensions selects the documents to read.
	// Defaults to ".json" if not specified.
	Extensions []string

	// NamingFallback names operations without a summary.
	// Defaults to FallbackMethodPath.
	NamingFallback NamingFallback

	// HTTPModule is the module the generated clients import request from.
	// Defaults to "../http".
	HTTPModule string

	// Template is a path to a pongo2 client template replacing the built-in one.
	Template string

	// AliasComponents declares components that produce no interface (arrays, primitives,
	// bare references, empty objects) as type aliases. Off by default: such components
	// are not declared.
	AliasComponents bool

	// Formatter runs after each document is written. Nil disables formatting.
	Formatter Formatter

	Logger *slog.Logger
}

// BuildOptions configures Build.
type BuildOptions struct {
	NamingFallback  NamingFallback
	AliasComponents bool
	Logger          *slog.Logger
}

// Build synthesizes declarations and per-tag operation groups for one document.
func Build(baseName string, doc *openapi.Document, opts BuildOptions) (*Result, error) {
	if opts.NamingFallback == "" {
		opts.NamingFallback = FallbackMethodPath
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	synth := newSynthesizer()
	for _, named := range doc.Schemas {
		if err := synth.component(named.Name, named.Schema, opts.AliasComponents); err != nil {
			return nil, fmt.Errorf("failed to synthesize component %s: %w", named.Name, err)
		}
	}

	ext := newExtractor(synth, opts.NamingFallback, opts.Logger)
	if err := ext.extract(doc); err != nil {
		return nil, err
	}
	resolveImports(ext.groups, ext.candidates)

	return &Result{
		BaseName:     baseName,
		Declarations: synth.registry.emitOrder(),
		Groups:       ext.groups,
	}, nil
}

// BaseName derives the output base name from a document path: "petstore-v2.json"
// becomes "PetstoreV2".
func BaseName(path string) string {
	name := filepath.Base(path)
	return strcase.ToPascalIdentifier(strings.TrimSuffix(name, filepath.Ext(name)))
}

// Generate generates TypeScript types and clients for every document in opts.InputDir.
// Documents are processed one at a time in name order; the first failure stops the run.
func Generate(ctx context.Context, opts *GenerateOptions) error {
	if opts.InputDir == "" {
		return errors.New("input directory is required in GenerateOptions")
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "./generated"
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".json"}
	}
	if opts.NamingFallback == "" {
		opts.NamingFallback = FallbackMethodPath
	}
	if opts.HTTPModule == "" {
		opts.HTTPModule = "../http"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	g, err := newGenerator(*opts)
	if err != nil {
		return err
	}

	files, err := g.documents()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		g.opts.Logger.Warn("no documents found", "dir", opts.InputDir, "extensions", opts.Extensions)
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.generateFile(ctx, file); err != nil {
			return fmt.Errorf("failed to generate %s: %w", file, err)
		}
	}
	return nil
}

type generator struct {
	writer *fileWriter
	opts   GenerateOptions
}

func newGenerator(opts GenerateOptions) (*generator, error) {
	tpl, err := loadTemplate(opts.Template)
	if err != nil {
		return nil, err
	}
	return &generator{
		writer: newFileWriter(opts.OutputDir, opts.HTTPModule, tpl),
		opts:   opts,
	}, nil
}

func (g *generator) documents() ([]string, error) {
	entries, err := os.ReadDir(g.opts.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if slices.Contains(g.opts.Extensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			files = append(files, filepath.Join(g.opts.InputDir, entry.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

func (g *generator) generateFile(ctx context.Context, path string) error {
	logger := g.opts.Logger.With("file", path)

	doc, err := openapi.Load(path, openapi.WithLogger(logger))
	if err != nil {
		return err
	}

	result, err := Build(BaseName(path), doc, BuildOptions{
		NamingFallback:  g.opts.NamingFallback,
		AliasComponents: g.opts.AliasComponents,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	written, err := g.writer.writeResult(result)
	if err != nil {
		return err
	}

	if g.opts.Formatter != nil {
		dir := filepath.Join(g.opts.OutputDir, result.BaseName)
		if err := g.opts.Formatter.Format(ctx, dir); err != nil {
			logger.Warn("formatting failed", "dir", dir, "error", err)
		}
	}

	logger.Info("generated",
		"base", result.BaseName,
		"declarations", len(result.Declarations),
		"clients", len(result.Groups),
		"files", len(written),
	)
	return nil
}
