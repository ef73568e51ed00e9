package tsgen

import (
	"fmt"
	"slices"

	"github.com/goatx/apigen/internal/openapi"
	"github.com/goatx/apigen/internal/strcase"
)

// synthesizer turns schema nodes into named declarations. One synthesizer serves one
// document; its registry is the only state shared between calls.
type synthesizer struct {
	registry *typeRegistry
	stack    []string
}

func newSynthesizer() *synthesizer {
	return &synthesizer{registry: newTypeRegistry()}
}

// synthesize returns the type expression for schema, declaring name (and any nested
// child types) when the schema has properties. forceOptional marks every field optional
// regardless of the schema's required list.
func (s *synthesizer) synthesize(name string, schema *openapi.Schema, forceOptional bool) (string, error) {
	if schema == nil {
		return TypeUnknown, nil
	}
	if schema.IsRef() {
		return strcase.SchemaRefName(schema.Ref), nil
	}
	if schema.ID == 0 {
		return "", fmt.Errorf("%w: %s", ErrUnindexedSchema, name)
	}
	if cached, ok := s.registry.byID[schema.ID]; ok {
		return cached, nil
	}
	if s.registry.inProgress[schema.ID] {
		return "", &CycleError{Path: append(slices.Clone(s.stack), name)}
	}
	if s.registry.emitted[name] {
		return name, nil
	}

	s.registry.emitted[name] = true
	s.registry.inProgress[schema.ID] = true
	s.stack = append(s.stack, name)
	defer func() {
		s.stack = s.stack[:len(s.stack)-1]
		delete(s.registry.inProgress, schema.ID)
	}()

	decl := &Declaration{Name: name, kind: kindInterface}
	for _, prop := range schema.Properties {
		typ, dep, err := s.propertyType(name, prop, forceOptional)
		if err != nil {
			return "", err
		}
		decl.Fields = append(decl.Fields, Field{
			Key:      prop.Name,
			Type:     typ,
			Optional: forceOptional || !schema.IsRequired(prop.Name),
		})
		if dep != "" {
			decl.deps = append(decl.deps, dep)
		}
	}

	result := name
	if len(decl.Fields) == 0 {
		// nothing to declare: release the name and describe the schema inline
		delete(s.registry.emitted, name)
		result = primitiveType(schema.Type)
	} else {
		s.registry.add(decl)
	}
	s.registry.byID[schema.ID] = result
	return result, nil
}

// propertyType returns the field type of prop and the declaration name it depends on.
func (s *synthesizer) propertyType(parent string, prop *openapi.Property, forceOptional bool) (typ, dep string, err error) {
	v := prop.Schema
	switch {
	case v.IsRef():
		ref := strcase.SchemaRefName(v.Ref)
		return ref, ref, nil
	case v.Type == "array" && v.Items != nil:
		elem, err := s.arrayElement(parent+strcase.CapitalizeFirst(prop.Name)+"Item", v.Items, forceOptional)
		if err != nil {
			return "", "", err
		}
		return elem + "[]", elem, nil
	case v.HasProperties() && (v.Type == "object" || v.Type == ""):
		child, err := s.synthesize(parent+strcase.CapitalizeFirst(prop.Name), v, forceOptional)
		if err != nil {
			return "", "", err
		}
		return child, child, nil
	default:
		return primitiveType(v.Type), "", nil
	}
}

// arrayElement returns the element type for array items: the referenced name, a child
// declaration called itemName for inline objects, or a primitive.
func (s *synthesizer) arrayElement(itemName string, items *openapi.Schema, forceOptional bool) (string, error) {
	switch {
	case items.IsRef():
		return strcase.SchemaRefName(items.Ref), nil
	case items.HasProperties():
		return s.synthesize(itemName, items, forceOptional)
	default:
		return primitiveType(items.Type), nil
	}
}

// component synthesizes a components.schemas entry. Entries that produce no interface
// (arrays, primitives, bare references, empty objects) declare nothing unless
// aliasComponents is set, in which case they become aliases of the inline type.
func (s *synthesizer) component(name string, schema *openapi.Schema, aliasComponents bool) error {
	if schema == nil {
		schema = &openapi.Schema{}
	}

	var target string
	if !schema.IsRef() && schema.Type == "array" && schema.Items != nil {
		if !aliasComponents {
			return nil
		}
		elem, err := s.arrayElement(name+"Item", schema.Items, false)
		if err != nil {
			return err
		}
		target = elem + "[]"
	} else {
		typ, err := s.synthesize(name, schema, false)
		if err != nil {
			return err
		}
		if typ == name || !aliasComponents {
			return nil
		}
		target = typ
	}

	if s.alias(name, target, kindComponentAlias) && schema.ID != 0 {
		s.registry.byID[schema.ID] = name
	}
	return nil
}

// alias declares name as target unless the name is taken. It reports whether a
// declaration was added.
func (s *synthesizer) alias(name, target string, kind declKind) bool {
	if s.registry.emitted[name] {
		return false
	}
	decl := &Declaration{Name: name, AliasOf: target, kind: kind}
	if dep := aliasDependency(target); dep != "" {
		decl.deps = append(decl.deps, dep)
	}
	s.registry.add(decl)
	return true
}

func aliasDependency(target string) string {
	for len(target) > 2 && target[len(target)-2:] == "[]" {
		target = target[:len(target)-2]
	}
	if !strcase.IsIdentifier(target) {
		return ""
	}
	return target
}
