package openapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnresolvedRef is returned when a reference into another file cannot be followed.
	ErrUnresolvedRef = errors.New("unresolved reference")

	// ErrInvalidDocument is returned when the input is not a mapping at the top level.
	ErrInvalidDocument = errors.New("invalid openapi document")
)

const maxRefChain = 32

var componentSchemaPointer = regexp.MustCompile(`^/components/schemas/([^/]+)$`)

// Option configures Load and Parse.
type Option func(*loader)

// WithLogger sets the logger used for bundling warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *loader) {
		l.logger = logger
	}
}

// Load reads the document at path and bundles every reference into other files into one
// in-memory document. JSON and YAML inputs are both accepted.
func Load(path string, opts ...Option) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document path %s: %w", path, err)
	}
	// #nosec G304 - the path is supplied by the operator running the generator
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", abs, err)
	}
	return parse(data, abs, filepath.Dir(abs), opts...)
}

// Parse decodes a document held in memory. References into other files are resolved
// relative to baseDir.
func Parse(data []byte, baseDir string, opts ...Option) (*Document, error) {
	return parse(data, "", baseDir, opts...)
}

type source struct {
	path string
	dir  string
	root *yaml.Node
}

type loader struct {
	logger  *slog.Logger
	root    *source
	sources map[string]*source

	// schemas built per yaml node, so aliases and repeated inlining share identity
	byNode map[*yaml.Node]*Schema

	componentNames map[string]string
	hoisted        []*NamedSchema
}

func parse(data []byte, path, dir string, opts ...Option) (*Document, error) {
	root, err := decodeRoot(data)
	if err != nil {
		if path != "" {
			return nil, fmt.Errorf("failed to parse document %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	src := &source{path: path, dir: dir, root: root}
	l := &loader{
		logger:         slog.Default(),
		root:           src,
		sources:        map[string]*source{path: src},
		byNode:         make(map[*yaml.Node]*Schema),
		componentNames: make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}

	doc, err := l.document()
	if err != nil {
		return nil, err
	}
	doc.Index()
	return doc, nil
}

func decodeRoot(data []byte) (*yaml.Node, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if node.Kind != yaml.DocumentNode || len(node.Content) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidDocument)
	}
	root := deref(node.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalidDocument)
	}
	return root, nil
}

func (l *loader) document() (*Document, error) {
	doc := &Document{}
	root := l.root.root

	doc.OpenAPI = scalar(mappingValue(root, "openapi"))
	doc.Title = scalar(mappingValue(mappingValue(root, "info"), "title"))

	schemas := mappingValue(mappingValue(root, "components"), "schemas")
	forEachPair(schemas, func(name string, _ *yaml.Node) {
		l.componentNames[name] = l.root.path + "#/components/schemas/" + name
	})

	var convErr error
	forEachPair(schemas, func(name string, node *yaml.Node) {
		if convErr != nil {
			return
		}
		s, err := l.schema(l.root, node)
		if err != nil {
			convErr = fmt.Errorf("failed to load schema %s: %w", name, err)
			return
		}
		doc.Schemas = append(doc.Schemas, &NamedSchema{Name: name, Schema: s})
	})
	if convErr != nil {
		return nil, convErr
	}

	forEachPair(mappingValue(root, "paths"), func(path string, node *yaml.Node) {
		if convErr != nil {
			return
		}
		item, err := l.pathItem(path, node)
		if err != nil {
			convErr = fmt.Errorf("failed to load path %s: %w", path, err)
			return
		}
		doc.Paths = append(doc.Paths, item)
	})
	if convErr != nil {
		return nil, convErr
	}

	doc.Schemas = append(doc.Schemas, l.hoisted...)
	return doc, nil
}

func (l *loader) pathItem(path string, node *yaml.Node) (*PathItem, error) {
	item := &PathItem{Path: path}
	var err error

	forEachPair(node, func(key string, value *yaml.Node) {
		if err != nil {
			return
		}
		switch key {
		case "parameters":
			item.Parameters, err = l.parameters(l.root, value)
		case MethodGet:
			item.Get, err = l.operation(value)
		case MethodPost:
			item.Post, err = l.operation(value)
		case MethodPut:
			item.Put, err = l.operation(value)
		case MethodDelete:
			item.Delete, err = l.operation(value)
		case "patch", "head", "options", "trace":
			item.Unsupported = append(item.Unsupported, key)
		}
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (l *loader) operation(node *yaml.Node) (*Operation, error) {
	node = deref(node)
	op := &Operation{
		OperationID: scalar(mappingValue(node, "operationId")),
		Summary:     scalar(mappingValue(node, "summary")),
	}

	if tags := deref(mappingValue(node, "tags")); tags != nil && tags.Kind == yaml.SequenceNode {
		for _, t := range tags.Content {
			op.Tags = append(op.Tags, scalar(t))
		}
	}

	params, err := l.parameters(l.root, mappingValue(node, "parameters"))
	if err != nil {
		return nil, err
	}
	op.Parameters = params

	if body := mappingValue(node, "requestBody"); body != nil {
		src, target, err := l.follow(l.root, body)
		if err != nil {
			return nil, fmt.Errorf("failed to load request body: %w", err)
		}
		if target != nil {
			content, err := l.content(src, mappingValue(target, "content"))
			if err != nil {
				return nil, err
			}
			op.RequestBody = &RequestBody{
				Required: boolean(mappingValue(target, "required")),
				Content:  content,
			}
		}
	}

	var respErr error
	forEachPair(mappingValue(node, "responses"), func(status string, value *yaml.Node) {
		if respErr != nil {
			return
		}
		src, target, err := l.follow(l.root, value)
		if err != nil {
			respErr = fmt.Errorf("failed to load response %s: %w", status, err)
			return
		}
		resp := &Response{Status: status}
		if target != nil {
			resp.Content, err = l.content(src, mappingValue(target, "content"))
			if err != nil {
				respErr = err
				return
			}
		}
		op.Responses = append(op.Responses, resp)
	})
	if respErr != nil {
		return nil, respErr
	}

	return op, nil
}

func (l *loader) parameters(src *source, node *yaml.Node) ([]*Parameter, error) {
	node = deref(node)
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil, nil
	}

	params := make([]*Parameter, 0, len(node.Content))
	for _, raw := range node.Content {
		raw = deref(raw)
		if ref := scalar(mappingValue(raw, "$ref")); ref != "" {
			params = append(params, &Parameter{Ref: ref})
			continue
		}
		p := &Parameter{
			Name:     scalar(mappingValue(raw, "name")),
			In:       ParameterLocation(scalar(mappingValue(raw, "in"))),
			Required: boolean(mappingValue(raw, "required")),
		}
		if schemaNode := mappingValue(raw, "schema"); schemaNode != nil {
			s, err := l.schema(src, schemaNode)
			if err != nil {
				return nil, fmt.Errorf("failed to load parameter %s: %w", p.Name, err)
			}
			p.Schema = s
		}
		params = append(params, p)
	}
	return params, nil
}

func (l *loader) content(src *source, node *yaml.Node) ([]*MediaType, error) {
	var media []*MediaType
	var err error
	forEachPair(node, func(contentType string, value *yaml.Node) {
		if err != nil {
			return
		}
		m := &MediaType{ContentType: contentType}
		if schemaNode := mappingValue(value, "schema"); schemaNode != nil {
			m.Schema, err = l.schema(src, schemaNode)
		}
		media = append(media, m)
	})
	if err != nil {
		return nil, err
	}
	return media, nil
}

// follow resolves a chain of non-schema references such as
// #/components/requestBodies/CreateUser. An internal pointer that leads nowhere yields a
// nil node; a pointer into another file that leads nowhere is an error.
func (l *loader) follow(src *source, node *yaml.Node) (*source, *yaml.Node, error) {
	node = deref(node)
	for range maxRefChain {
		ref := scalar(mappingValue(node, "$ref"))
		if ref == "" {
			return src, node, nil
		}
		target, pointer, err := l.locate(src, ref)
		if err != nil {
			return nil, nil, err
		}
		next, err := lookupPointer(target.root, pointer)
		if err != nil {
			if target == l.root {
				l.logger.Debug("dropping unresolved reference", "ref", ref)
				return src, nil, nil
			}
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrUnresolvedRef, ref, err)
		}
		src, node = target, next
	}
	return nil, nil, fmt.Errorf("%w: reference chain longer than %d", ErrUnresolvedRef, maxRefChain)
}

func (l *loader) schema(src *source, node *yaml.Node) (*Schema, error) {
	node = deref(node)
	if node == nil {
		return nil, nil
	}
	if s, ok := l.byNode[node]; ok {
		return s, nil
	}

	s := &Schema{}
	// registered before descending so a node that reaches itself keeps a single identity
	l.byNode[node] = s

	if ref := scalar(mappingValue(node, "$ref")); ref != "" {
		resolved, err := l.schemaRef(src, ref)
		if err != nil {
			return nil, err
		}
		if resolved.IsRef() {
			s.Ref = resolved.Ref
			return s, nil
		}
		l.byNode[node] = resolved
		return resolved, nil
	}

	s.Type = schemaType(mappingValue(node, "type"))
	s.Description = scalar(mappingValue(node, "description"))

	if req := deref(mappingValue(node, "required")); req != nil && req.Kind == yaml.SequenceNode {
		for _, r := range req.Content {
			s.Required = append(s.Required, scalar(r))
		}
	}

	var err error
	forEachPair(mappingValue(node, "properties"), func(name string, value *yaml.Node) {
		if err != nil {
			return
		}
		var prop *Schema
		prop, err = l.schema(src, value)
		if err != nil {
			err = fmt.Errorf("property %s: %w", name, err)
			return
		}
		if prop == nil {
			prop = &Schema{}
		}
		s.Properties = append(s.Properties, &Property{Name: name, Schema: prop})
	})
	if err != nil {
		return nil, err
	}

	if items := mappingValue(node, "items"); items != nil {
		s.Items, err = l.schema(src, items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
	}

	return s, nil
}

// schemaRef keeps references to root components as references, hoists component schemas
// of other files into the root components and inlines everything else.
func (l *loader) schemaRef(src *source, ref string) (*Schema, error) {
	if src == l.root && strings.HasPrefix(ref, "#") {
		return &Schema{Ref: ref}, nil
	}

	target, pointer, err := l.locate(src, ref)
	if err != nil {
		return nil, err
	}

	if m := componentSchemaPointer.FindStringSubmatch(pointer); m != nil {
		name := m[1]
		if target != l.root {
			if err := l.hoist(target, pointer, name); err != nil {
				return nil, err
			}
		}
		return &Schema{Ref: "#/components/schemas/" + name}, nil
	}

	node, err := lookupPointer(target.root, pointer)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnresolvedRef, ref, err)
	}
	return l.schema(target, node)
}

func (l *loader) hoist(src *source, pointer, name string) error {
	key := src.path + "#" + pointer
	if existing, ok := l.componentNames[name]; ok {
		if existing != key {
			l.logger.Warn("component name already defined, keeping first definition",
				"name", name, "kept", existing, "ignored", key)
		}
		return nil
	}
	l.componentNames[name] = key

	node, err := lookupPointer(src.root, pointer)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnresolvedRef, key, err)
	}
	named := &NamedSchema{Name: name}
	l.hoisted = append(l.hoisted, named)

	s, err := l.schema(src, node)
	if err != nil {
		return fmt.Errorf("failed to load schema %s from %s: %w", name, src.path, err)
	}
	named.Schema = s
	return nil
}

// locate splits ref into the source it points into and the JSON pointer inside it.
func (l *loader) locate(src *source, ref string) (*source, string, error) {
	file, fragment, _ := strings.Cut(ref, "#")
	pointer, err := url.PathUnescape(fragment)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrUnresolvedRef, ref, err)
	}
	if file == "" {
		return src, pointer, nil
	}
	if strings.Contains(file, "://") {
		return nil, "", fmt.Errorf("%w: remote reference %s is not supported", ErrUnresolvedRef, ref)
	}

	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(src.dir, filepath.FromSlash(file))
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrUnresolvedRef, ref, err)
	}

	if cached, ok := l.sources[path]; ok {
		return cached, pointer, nil
	}

	// #nosec G304 - references are followed relative to the operator supplied document
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrUnresolvedRef, ref, err)
	}
	root, err := decodeRoot(data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse referenced document %s: %w", path, err)
	}
	loaded := &source{path: path, dir: filepath.Dir(path), root: root}
	l.sources[path] = loaded
	return loaded, pointer, nil
}

func lookupPointer(root *yaml.Node, pointer string) (*yaml.Node, error) {
	node := deref(root)
	if pointer == "" || pointer == "/" {
		return node, nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, fmt.Errorf("pointer %q must start with /", pointer)
	}

	for _, token := range strings.Split(pointer[1:], "/") {
		token = strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
		switch node.Kind {
		case yaml.MappingNode:
			next := mappingValue(node, token)
			if next == nil {
				return nil, fmt.Errorf("key %q not found", token)
			}
			node = deref(next)
		case yaml.SequenceNode:
			i, err := strconv.Atoi(token)
			if err != nil || i < 0 || i >= len(node.Content) {
				return nil, fmt.Errorf("index %q out of range", token)
			}
			node = deref(node.Content[i])
		default:
			return nil, fmt.Errorf("cannot descend into scalar at %q", token)
		}
	}
	return node, nil
}

func deref(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	node = deref(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func forEachPair(node *yaml.Node, fn func(key string, value *yaml.Node)) {
	node = deref(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		fn(node.Content[i].Value, node.Content[i+1])
	}
}

func scalar(node *yaml.Node) string {
	node = deref(node)
	if node == nil || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}

func boolean(node *yaml.Node) bool {
	node = deref(node)
	if node == nil || node.Kind != yaml.ScalarNode {
		return false
	}
	var b bool
	if err := node.Decode(&b); err != nil {
		return false
	}
	return b
}

// schemaType reads "type", taking the first non-null entry of an OpenAPI 3.1 type list.
func schemaType(node *yaml.Node) string {
	node = deref(node)
	if node == nil {
		return ""
	}
	if node.Kind == yaml.SequenceNode {
		for _, t := range node.Content {
			if v := scalar(t); v != "" && v != "null" {
				return v
			}
		}
		return ""
	}
	return scalar(node)
}
