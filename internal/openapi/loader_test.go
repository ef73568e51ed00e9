package openapi

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func schemaNames(doc *Document) []string {
	names := make([]string, 0, len(doc.Schemas))
	for _, s := range doc.Schemas {
		names = append(names, s.Name)
	}
	return names
}

func propertyNames(s *Schema) []string {
	names := make([]string, 0, len(s.Properties))
	for _, p := range s.Properties {
		names = append(names, p.Name)
	}
	return names
}

func TestParseKeepsDocumentOrder(t *testing.T) {
	t.Parallel()

	const src = `{
  "openapi": "3.0.3",
  "info": {"title": "Zoo"},
  "paths": {
    "/zebras": {"get": {"responses": {}}},
    "/antelopes": {"delete": {"responses": {}}, "get": {"responses": {}}, "patch": {"responses": {}}}
  },
  "components": {"schemas": {
    "Zebra": {"type": "object", "properties": {"stripes": {"type": "integer"}, "age": {"type": "integer"}}},
    "Antelope": {"type": "object"}
  }}
}`
	doc, err := Parse([]byte(src), t.TempDir())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if doc.OpenAPI != "3.0.3" || doc.Title != "Zoo" {
		t.Errorf("header = (%q, %q), want (3.0.3, Zoo)", doc.OpenAPI, doc.Title)
	}

	paths := make([]string, 0)
	for _, p := range doc.Paths {
		paths = append(paths, p.Path)
	}
	if diff := cmp.Diff([]string{"/zebras", "/antelopes"}, paths); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Zebra", "Antelope"}, schemaNames(doc)); diff != "" {
		t.Errorf("schemas mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"stripes", "age"}, propertyNames(doc.Schema("Zebra"))); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}

	antelopes := doc.Paths[1]
	if antelopes.Get == nil || antelopes.Delete == nil || antelopes.Post != nil {
		t.Errorf("operations = get:%v delete:%v post:%v", antelopes.Get != nil, antelopes.Delete != nil, antelopes.Post != nil)
	}
	if diff := cmp.Diff([]string{"patch"}, antelopes.Unsupported); diff != "" {
		t.Errorf("unsupported mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSchemaDetails(t *testing.T) {
	t.Parallel()

	const src = `
openapi: 3.1.0
paths: {}
components:
  schemas:
    Pet:
      type: object
      description: A pet
      required: [name]
      properties:
        name:
          type: [string, "null"]
        nickname:
          type: ["null", string]
        owner:
          $ref: "#/components/schemas/Owner"
        tags:
          type: array
          items: {type: string}
    Owner:
      type: object
`
	doc, err := Parse([]byte(src), t.TempDir())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	pet := doc.Schema("Pet")
	if pet == nil {
		t.Fatal("schema Pet not found")
	}
	if pet.Description != "A pet" || !pet.IsRequired("name") || pet.IsRequired("nickname") {
		t.Errorf("Pet = %+v", pet)
	}

	got := make(map[string]string)
	for _, p := range pet.Properties {
		got[p.Name] = p.Schema.Type + "|" + p.Schema.Ref
	}
	want := map[string]string{
		"name":     "string|",
		"nickname": "string|",
		"owner":    "|#/components/schemas/Owner",
		"tags":     "array|",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("property types mismatch (-want +got):\n%s", diff)
	}
	if items := pet.Properties[3].Schema.Items; items == nil || items.Type != "string" {
		t.Errorf("tags items = %+v, want string", items)
	}
}

func TestParseResolvesComponentReferences(t *testing.T) {
	t.Parallel()

	const src = `{
  "paths": {
    "/users": {
      "parameters": [{"name": "tenant", "in": "header", "required": true, "schema": {"type": "string"}}],
      "post": {
        "parameters": [{"$ref": "#/components/parameters/Page"}],
        "requestBody": {"$ref": "#/components/requestBodies/NewUser"},
        "responses": {
          "200": {"$ref": "#/components/responses/UserOk"},
          "404": {"$ref": "#/components/responses/Missing"}
        }
      }
    }
  },
  "components": {
    "requestBodies": {"NewUser": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/User"}}}}},
    "responses": {
      "UserOk": {"$ref": "#/components/responses/UserBody"},
      "UserBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/User"}}}}
    },
    "parameters": {"Page": {"name": "page", "in": "query"}},
    "schemas": {"User": {"type": "object"}}
  }
}`
	doc, err := Parse([]byte(src), t.TempDir())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	item := doc.Paths[0]
	if len(item.Parameters) != 1 || item.Parameters[0].Name != "tenant" || !item.Parameters[0].Required {
		t.Errorf("path parameters = %+v", item.Parameters)
	}

	op := item.Post
	if len(op.Parameters) != 1 || !op.Parameters[0].IsRef() {
		t.Errorf("operation parameters = %+v, want one reference", op.Parameters)
	}
	if !op.RequestBody.Required {
		t.Error("request body is not required")
	}
	if got := op.RequestBody.JSONSchema(); got == nil || got.Ref != "#/components/schemas/User" {
		t.Errorf("request body schema = %+v", got)
	}
	if got := op.Response("200").JSONSchema(); got == nil || got.Ref != "#/components/schemas/User" {
		t.Errorf("200 schema = %+v", got)
	}
	if got := op.Response("404"); got == nil || got.JSONSchema() != nil {
		t.Errorf("404 = %+v, want a response without content", got)
	}
}

func TestLoadBundlesExternalReferences(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"api.yaml": `
openapi: 3.0.0
paths:
  /orders:
    get:
      responses:
        "200":
          content:
            application/json:
              schema:
                $ref: "models/order.yaml#/components/schemas/Order"
    post:
      requestBody:
        content:
          application/json:
            schema:
              $ref: "models/inline.json"
      responses: {}
components:
  schemas:
    Money:
      type: string
`,
		"models/order.yaml": `
components:
  schemas:
    Order:
      type: object
      properties:
        total:
          $ref: "#/components/schemas/Money"
        customer:
          $ref: "../shared.json#/components/schemas/Customer"
        meta:
          $ref: "#/definitions/Meta"
    Money:
      type: number
definitions:
  Meta:
    type: object
    properties:
      created: {type: string}
`,
		"shared.json":        `{"components": {"schemas": {"Customer": {"type": "object", "properties": {"id": {"type": "string"}}}}}}`,
		"models/inline.json": `{"type": "object", "properties": {"note": {"type": "string"}}}`,
	})

	doc, err := Load(filepath.Join(dir, "api.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if diff := cmp.Diff([]string{"Money", "Order", "Customer"}, schemaNames(doc)); diff != "" {
		t.Errorf("schemas mismatch (-want +got):\n%s", diff)
	}
	if got := doc.Schema("Money").Type; got != "string" {
		t.Errorf("Money type = %q, want the root definition to win", got)
	}

	respSchema := doc.Paths[0].Get.Response("200").JSONSchema()
	if respSchema.Ref != "#/components/schemas/Order" {
		t.Errorf("response ref = %q, want rewritten to the root components", respSchema.Ref)
	}

	order := doc.Schema("Order")
	refs := make(map[string]string)
	for _, p := range order.Properties {
		refs[p.Name] = p.Schema.Ref
	}
	wantRefs := map[string]string{
		"total":    "#/components/schemas/Money",
		"customer": "#/components/schemas/Customer",
		"meta":     "",
	}
	if diff := cmp.Diff(wantRefs, refs); diff != "" {
		t.Errorf("Order refs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"created"}, propertyNames(order.Properties[2].Schema)); diff != "" {
		t.Errorf("inlined meta mismatch (-want +got):\n%s", diff)
	}

	body := doc.Paths[0].Post.RequestBody.JSONSchema()
	if diff := cmp.Diff([]string{"note"}, propertyNames(body)); diff != "" {
		t.Errorf("inlined body mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   map[string]string
		wantErr error
	}{
		{
			name:    "missing external file",
			files:   map[string]string{"api.json": `{"components": {"schemas": {"A": {"$ref": "missing.json#/components/schemas/A"}}}}`},
			wantErr: ErrUnresolvedRef,
		},
		{
			name: "missing pointer in external file",
			files: map[string]string{
				"api.json":   `{"components": {"schemas": {"A": {"$ref": "other.json#/definitions/A"}}}}`,
				"other.json": `{"definitions": {}}`,
			},
			wantErr: ErrUnresolvedRef,
		},
		{
			name:    "remote reference",
			files:   map[string]string{"api.json": `{"components": {"schemas": {"A": {"$ref": "https://example.com/a.json"}}}}`},
			wantErr: ErrUnresolvedRef,
		},
		{
			name:    "top level array",
			files:   map[string]string{"api.json": `[]`},
			wantErr: ErrInvalidDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := writeFiles(t, tt.files)
			_, err := Load(filepath.Join(dir, "api.json"))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("Load() error = nil for a missing file")
	}
}

func TestIndex(t *testing.T) {
	t.Parallel()

	const src = `
paths:
  /a:
    parameters:
      - {name: id, in: path, schema: {type: string}}
    get:
      responses:
        "200":
          content:
            application/json:
              schema: &shared
                type: object
                properties:
                  x: {type: string}
  /b:
    get:
      responses:
        "200":
          content:
            application/json:
              schema: *shared
components:
  schemas:
    First:
      type: object
      properties:
        y: {type: integer}
`
	doc, err := Parse([]byte(src), t.TempDir())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	first := doc.Schema("First")
	param := doc.Paths[0].Parameters[0].Schema
	a := doc.Paths[0].Get.Response("200").JSONSchema()
	b := doc.Paths[1].Get.Response("200").JSONSchema()

	got := []int{first.ID, first.Properties[0].Schema.ID, param.ID, a.ID, a.Properties[0].Schema.ID, b.ID}
	want := []int{1, 2, 3, 4, 5, 4}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}

	doc.Index()
	if first.ID != 1 || b.ID != 4 {
		t.Errorf("re-indexing changed IDs: first=%d b=%d", first.ID, b.ID)
	}
}
