package tsgen

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/goatx/apigen/internal/openapi"
	"github.com/goatx/apigen/internal/strcase"
)

// NamingFallback selects how operations without a usable summary are named.
type NamingFallback string

const (
	// FallbackMethodPath names operations after their method and path ("GetUsersById").
	FallbackMethodPath NamingFallback = "method-path"
	// FallbackUnnamed uses "Unnamed" for every such operation; names may collide.
	FallbackUnnamed NamingFallback = "unnamed"
)

// successStatuses are the response codes read, in priority order.
var successStatuses = []string{"200", "201"}

type extractor struct {
	synth    *synthesizer
	fallback NamingFallback
	logger   *slog.Logger

	groups []*TagGroup
	byTag  map[string]*TagGroup

	// import candidates in the order they were first seen
	candidates   []string
	candidateSet map[string]bool
}

func newExtractor(synth *synthesizer, fallback NamingFallback, logger *slog.Logger) *extractor {
	return &extractor{
		synth:        synth,
		fallback:     fallback,
		logger:       logger,
		groups:       []*TagGroup{},
		byTag:        make(map[string]*TagGroup),
		candidates:   []string{},
		candidateSet: make(map[string]bool),
	}
}

func (e *extractor) extract(doc *openapi.Document) error {
	for _, item := range doc.Paths {
		for _, method := range item.Unsupported {
			e.logger.Debug("skipping unsupported method", "path", item.Path, "method", method)
		}

		for _, method := range openapi.SupportedMethods {
			op := item.Operation(method)
			if op == nil {
				continue
			}

			desc, err := e.operation(item, method, op)
			if err != nil {
				return fmt.Errorf("failed to extract %s %s: %w", method, item.Path, err)
			}

			group := e.group(desc.Tag)
			group.Operations = append(group.Operations, desc)
		}
	}
	return nil
}

func (e *extractor) operation(item *openapi.PathItem, method string, op *openapi.Operation) (*OperationDescriptor, error) {
	base := e.baseName(method, item.Path, op.Summary)

	tag := DefaultTag
	if len(op.Tags) > 0 && op.Tags[0] != "" {
		tag = op.Tags[0]
	}

	desc := &OperationDescriptor{
		OperationName: strcase.ToCamelCase(base),
		HTTPMethod:    method,
		Path:          item.Path,
		Summary:       op.Summary,
		Tag:           tag,
		Parameters:    e.parameters(item, op),
		Response:      TypeUnknown,
	}

	if schema := op.RequestBody.JSONSchema(); schema != nil {
		requestType, err := e.synth.synthesize(base+"Request", schema, true)
		if err != nil {
			return nil, err
		}
		e.addCandidate(requestType)
		desc.Parameters = append(desc.Parameters, ParameterDescriptor{
			Name:     "body",
			Ident:    "body",
			Type:     requestType,
			Required: true,
			In:       LocationBody,
		})
	}

	assignIdents(desc.Parameters)

	response, elem, err := e.response(base, op)
	if err != nil {
		return nil, err
	}
	desc.Response = response
	desc.ResponseItem = elem

	return desc, nil
}

func (e *extractor) baseName(method, path, summary string) string {
	if strcase.HasSummaryName(summary) {
		return strcase.OperationTypeName(summary, "")
	}
	if e.fallback == FallbackUnnamed {
		return strcase.OperationTypeName("", "")
	}
	return strcase.MethodPathName(method, path, "")
}

// parameters merges path level and operation level parameters. Operation level
// parameters override path level ones with the same name and location; references
// are dropped.
func (e *extractor) parameters(item *openapi.PathItem, op *openapi.Operation) []ParameterDescriptor {
	overridden := make(map[string]bool)
	for _, p := range op.Parameters {
		if !p.IsRef() {
			overridden[string(p.In)+":"+p.Name] = true
		}
	}

	params := make([]ParameterDescriptor, 0, len(item.Parameters)+len(op.Parameters))
	add := func(p *openapi.Parameter) {
		if p.IsRef() {
			e.logger.Debug("dropping referenced parameter", "path", item.Path, "ref", p.Ref)
			return
		}
		typ := TypeUnknown
		if p.Schema != nil {
			typ = primitiveType(p.Schema.Type)
		}
		params = append(params, ParameterDescriptor{
			Name:     p.Name,
			Ident:    strcase.Identifier(p.Name),
			Type:     typ,
			Required: p.Required,
			In:       Location(p.In),
		})
	}

	for _, p := range item.Parameters {
		if !p.IsRef() && overridden[string(p.In)+":"+p.Name] {
			continue
		}
		add(p)
	}
	for _, p := range op.Parameters {
		add(p)
	}
	return params
}

// assignIdents makes parameter identifiers unique within one operation. The body
// parameter claims its name first, then path parameters, then the rest in order. A
// taken identifier gets the location appended ("idQuery"), then a counter.
func assignIdents(params []ParameterDescriptor) {
	taken := make(map[string]bool, len(params))
	claim := func(p *ParameterDescriptor) {
		ident := p.Ident
		if taken[ident] {
			ident += strcase.CapitalizeFirst(string(p.In))
		}
		for n, base := 2, ident; taken[ident]; n++ {
			ident = base + strconv.Itoa(n)
		}
		taken[ident] = true
		p.Ident = ident
	}

	for _, in := range []Location{LocationBody, LocationPath} {
		for i := range params {
			if params[i].In == in {
				claim(&params[i])
			}
		}
	}
	for i := range params {
		if params[i].In != LocationBody && params[i].In != LocationPath {
			claim(&params[i])
		}
	}
}

// response returns the response type and, for array responses, the element type.
func (e *extractor) response(base string, op *openapi.Operation) (string, string, error) {
	var resp *openapi.Response
	for _, status := range successStatuses {
		if resp = op.Response(status); resp != nil {
			break
		}
	}
	schema := resp.JSONSchema()
	if schema == nil {
		return TypeUnknown, "", nil
	}

	typeName := base + "Response"
	if !schema.IsRef() && schema.Type == "array" && schema.Items != nil {
		elem, err := e.synth.arrayElement(typeName+"Item", schema.Items, true)
		if err != nil {
			return "", "", err
		}
		if !e.synth.alias(typeName, elem+"[]", kindResponseAlias) {
			// the name belongs to an earlier declaration; its element type may differ
			if existing := e.synth.registry.decls[typeName]; existing == nil || existing.AliasOf != elem+"[]" {
				e.logger.Warn("response type name already declared", "name", typeName, "item", elem)
				elem = ""
			}
		}
		if elem != "" {
			e.addCandidate(elem)
		}
		e.addCandidate(typeName)
		return typeName, elem, nil
	}

	responseType, err := e.synth.synthesize(typeName, schema, true)
	if err != nil {
		return "", "", err
	}
	e.addCandidate(responseType)
	return responseType, "", nil
}

func (e *extractor) group(tag string) *TagGroup {
	if g, ok := e.byTag[tag]; ok {
		return g
	}
	g := &TagGroup{Tag: tag, Operations: []*OperationDescriptor{}}
	e.byTag[tag] = g
	e.groups = append(e.groups, g)
	return g
}

// addCandidate records a type name that client files may import. Only declared names
// qualify; primitives and unresolved references are never imported.
func (e *extractor) addCandidate(name string) {
	if e.candidateSet[name] || !e.synth.registry.isDeclared(name) {
		return
	}
	e.candidateSet[name] = true
	e.candidates = append(e.candidates, name)
}
