package tsgen

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goatx/apigen/internal/strcase"
)

//go:embed templates/client.tpl
var defaultClientTemplate string

const (
	typesHeader  = "/* Auto-generated types */\n"
	typesSuffix  = ".types"
	clientSuffix = ".api"
)

// loadTemplate parses the client template at path, or the built-in one when path is empty.
func loadTemplate(path string) (*pongo2.Template, error) {
	source := defaultClientTemplate
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read client template: %w", err)
		}
		source = string(b)
	}

	tpl, err := pongo2.FromString(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client template: %w", err)
	}
	return tpl, nil
}

type fileWriter struct {
	outputDir  string
	httpModule string
	tpl        *pongo2.Template
}

func newFileWriter(outputDir, httpModule string, tpl *pongo2.Template) *fileWriter {
	return &fileWriter{
		outputDir:  outputDir,
		httpModule: httpModule,
		tpl:        tpl,
	}
}

// writeResult writes the types file and one client file per tag group into
// <outputDir>/<BaseName>/ and returns the written paths.
func (w *fileWriter) writeResult(result *Result) ([]string, error) {
	dir := filepath.Join(w.outputDir, result.BaseName)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	written := make([]string, 0, len(result.Groups)+1)

	typesPath := filepath.Join(dir, result.BaseName+typesSuffix+".ts")
	if err := os.WriteFile(typesPath, []byte(typesFileContent(result.Declarations)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write types file: %w", err)
	}
	written = append(written, typesPath)

	for _, group := range result.Groups {
		content, err := w.clientFileContent(result.BaseName, group)
		if err != nil {
			return nil, err
		}

		clientPath := filepath.Join(dir, clientModuleName(result.BaseName, group.Tag)+".ts")
		if err := os.WriteFile(clientPath, []byte(content), 0o600); err != nil {
			return nil, fmt.Errorf("failed to write client file for tag %s: %w", group.Tag, err)
		}
		written = append(written, clientPath)
	}

	return written, nil
}

func clientModuleName(baseName, tag string) string {
	return baseName + strcase.ToPascalIdentifier(tag) + clientSuffix
}

func clientClassName(baseName, tag string) string {
	return baseName + strcase.ToPascalIdentifier(tag) + "Api"
}

func typesFileContent(decls []*Declaration) string {
	var builder strings.Builder

	builder.WriteString(typesHeader)
	for _, decl := range decls {
		builder.WriteString("\n")
		writeDeclaration(&builder, decl)
	}

	return builder.String()
}

func writeDeclaration(builder *strings.Builder, decl *Declaration) {
	if decl.IsAlias() {
		builder.WriteString("export type ")
		builder.WriteString(decl.Name)
		builder.WriteString(" = ")
		builder.WriteString(decl.AliasOf)
		builder.WriteString(";\n")
		return
	}

	builder.WriteString("export interface ")
	builder.WriteString(decl.Name)
	builder.WriteString(" {\n")
	for _, field := range decl.Fields {
		builder.WriteString("  ")
		builder.WriteString(propertyKey(field.Key))
		if field.Optional {
			builder.WriteString("?")
		}
		builder.WriteString(": ")
		builder.WriteString(field.Type)
		builder.WriteString(";\n")
	}
	builder.WriteString("}\n")
}

func propertyKey(key string) string {
	if strcase.IsIdentifier(key) {
		return key
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(key) + "'"
}

func (w *fileWriter) clientFileContent(baseName string, group *TagGroup) (string, error) {
	methods := make([]map[string]any, 0, len(group.Operations))
	for _, op := range group.Operations {
		methods = append(methods, methodContext(op))
	}

	out, err := w.tpl.Execute(pongo2.Context{
		"className":   clientClassName(baseName, group.Tag),
		"baseName":    baseName,
		"typesModule": baseName + typesSuffix,
		"httpModule":  w.httpModule,
		"imports":     group.Imports,
		"methods":     methods,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render client for tag %s: %w", group.Tag, err)
	}

	return strings.TrimRight(out, "\n") + "\n", nil
}

func methodContext(op *OperationDescriptor) map[string]any {
	resultType := op.Response
	if op.ResponseItem != "" {
		resultType = op.ResponseItem + "[]"
	}

	m := map[string]any{
		"operationName": op.OperationName,
		"httpMethod":    op.HTTPMethod,
		"path":          op.Path,
		"url":           urlTemplate(op),
		"summary":       docComment(op.Summary),
		"signature":     signature(op),
		"pathParams":    paramContexts(op.PathParams()),
		"queryParams":   paramContexts(op.QueryParams()),
		"headerParams":  paramContexts(op.HeaderParams()),
		"response":      op.Response,
		"resultType":    resultType,
		"hasParams":     len(op.Parameters) > 0,
	}
	if body := op.RequestBody(); body != nil {
		m["requestBody"] = paramContext(*body)
	}
	return m
}

// docComment fits text onto one line of a JSDoc block: whitespace runs collapse to a
// single space and "*/" cannot close the comment.
func docComment(text string) string {
	return strings.ReplaceAll(strings.Join(strings.Fields(text), " "), "*/", `*\/`)
}

func paramContexts(params []ParameterDescriptor) []map[string]any {
	out := make([]map[string]any, 0, len(params))
	for _, p := range params {
		out = append(out, paramContext(p))
	}
	return out
}

func paramContext(p ParameterDescriptor) map[string]any {
	return map[string]any{
		"name":     p.Name,
		"ident":    p.Ident,
		"type":     p.Type,
		"required": p.Required,
	}
}

// urlTemplate turns "/users/{id}" into the template literal body "/users/${id}".
func urlTemplate(op *OperationDescriptor) string {
	url := op.Path
	for _, p := range op.PathParams() {
		url = strings.ReplaceAll(url, "{"+p.Name+"}", "${"+p.Ident+"}")
	}
	return url
}

// signature lists path, body, query and header parameters, required ones first.
func signature(op *OperationDescriptor) string {
	ordered := make([]ParameterDescriptor, 0, len(op.Parameters))
	ordered = append(ordered, op.PathParams()...)
	if body := op.RequestBody(); body != nil {
		ordered = append(ordered, *body)
	}
	ordered = append(ordered, op.QueryParams()...)
	ordered = append(ordered, op.HeaderParams()...)

	slices.SortStableFunc(ordered, func(a, b ParameterDescriptor) int {
		switch {
		case isRequiredParam(a) == isRequiredParam(b):
			return 0
		case isRequiredParam(a):
			return -1
		default:
			return 1
		}
	})

	parts := make([]string, 0, len(ordered))
	for _, p := range ordered {
		if isRequiredParam(p) {
			parts = append(parts, p.Ident+": "+p.Type)
		} else {
			parts = append(parts, p.Ident+"?: "+p.Type)
		}
	}
	return strings.Join(parts, ", ")
}

// isRequiredParam treats path parameters as required; they are part of the URL.
func isRequiredParam(p ParameterDescriptor) bool {
	return p.Required || p.In == LocationPath
}
