package openapi

import "slices"

// Document is the subset of an OpenAPI 3 document the generator reads.
// Paths and component schemas keep their declaration order.
type Document struct {
	OpenAPI string
	Title   string
	Paths   []*PathItem
	Schemas []*NamedSchema
}

type NamedSchema struct {
	Name   string
	Schema *Schema
}

// Schema returns the component schema registered under name.
func (d *Document) Schema(name string) *Schema {
	for _, s := range d.Schemas {
		if s.Name == name {
			return s.Schema
		}
	}
	return nil
}

type PathItem struct {
	Path       string
	Parameters []*Parameter
	Get        *Operation
	Post       *Operation
	Put        *Operation
	Delete     *Operation

	// Unsupported lists methods declared on the path that the generator never visits.
	Unsupported []string
}

// Operation returns the operation for one of get, post, put or delete.
func (p *PathItem) Operation(method string) *Operation {
	switch method {
	case MethodGet:
		return p.Get
	case MethodPost:
		return p.Post
	case MethodPut:
		return p.Put
	case MethodDelete:
		return p.Delete
	default:
		return nil
	}
}

const (
	MethodGet    = "get"
	MethodPost   = "post"
	MethodPut    = "put"
	MethodDelete = "delete"
)

// SupportedMethods is the visiting order for operations on a path.
var SupportedMethods = []string{MethodGet, MethodPost, MethodPut, MethodDelete}

type Operation struct {
	OperationID string
	Summary     string
	Tags        []string
	Parameters  []*Parameter
	RequestBody *RequestBody
	Responses   []*Response
}

// Response returns the response declared for status, or nil.
func (o *Operation) Response(status string) *Response {
	for _, r := range o.Responses {
		if r.Status == status {
			return r
		}
	}
	return nil
}

type ParameterLocation string

const (
	InPath   ParameterLocation = "path"
	InQuery  ParameterLocation = "query"
	InHeader ParameterLocation = "header"
	InCookie ParameterLocation = "cookie"
)

// Parameter is either a reference (Ref set, nothing else) or an inline parameter.
type Parameter struct {
	Ref      string
	Name     string
	In       ParameterLocation
	Required bool
	Schema   *Schema
}

func (p *Parameter) IsRef() bool {
	return p.Ref != ""
}

type RequestBody struct {
	Required bool
	Content  []*MediaType
}

// JSONSchema returns the application/json schema of the body, or nil.
func (b *RequestBody) JSONSchema() *Schema {
	if b == nil {
		return nil
	}
	return jsonSchema(b.Content)
}

type Response struct {
	Status  string
	Content []*MediaType
}

// JSONSchema returns the application/json schema of the response, or nil.
func (r *Response) JSONSchema() *Schema {
	if r == nil {
		return nil
	}
	return jsonSchema(r.Content)
}

type MediaType struct {
	ContentType string
	Schema      *Schema
}

const ContentTypeJSON = "application/json"

func jsonSchema(content []*MediaType) *Schema {
	for _, m := range content {
		if m.ContentType == ContentTypeJSON {
			return m.Schema
		}
	}
	return nil
}

// Schema is a JSON-Schema-like node. A node with Ref set is a reference and carries no
// other information. ID is assigned by Document.Index and identifies the node itself:
// a node reachable from several places keeps one ID.
type Schema struct {
	ID          int
	Ref         string
	Type        string
	Properties  []*Property
	Required    []string
	Items       *Schema
	Description string
}

type Property struct {
	Name   string
	Schema *Schema
}

func (s *Schema) IsRef() bool {
	return s.Ref != ""
}

func (s *Schema) IsRequired(name string) bool {
	return slices.Contains(s.Required, name)
}

func (s *Schema) HasProperties() bool {
	return len(s.Properties) > 0
}

// Index assigns synthetic identifiers to every schema node reachable from the document,
// visiting component schemas first and then paths in declaration order. Calling it again
// yields the same identifiers.
func (d *Document) Index() {
	ix := &indexer{seen: make(map[*Schema]bool)}
	for _, named := range d.Schemas {
		ix.visit(named.Schema)
	}
	for _, item := range d.Paths {
		for _, p := range item.Parameters {
			ix.visit(p.Schema)
		}
		for _, method := range SupportedMethods {
			op := item.Operation(method)
			if op == nil {
				continue
			}
			for _, p := range op.Parameters {
				ix.visit(p.Schema)
			}
			if op.RequestBody != nil {
				for _, m := range op.RequestBody.Content {
					ix.visit(m.Schema)
				}
			}
			for _, r := range op.Responses {
				for _, m := range r.Content {
					ix.visit(m.Schema)
				}
			}
		}
	}
}

type indexer struct {
	next int
	seen map[*Schema]bool
}

func (ix *indexer) visit(s *Schema) {
	if s == nil || ix.seen[s] {
		return
	}
	ix.seen[s] = true
	ix.next++
	s.ID = ix.next

	for _, p := range s.Properties {
		ix.visit(p.Schema)
	}
	ix.visit(s.Items)
}
