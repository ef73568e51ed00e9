package tsgen

// Type expressions produced for schemas that do not become declarations.
const (
	TypeString    = "string"
	TypeNumber    = "number"
	TypeBoolean   = "boolean"
	TypeUnknown   = "unknown"
	TypeUndefined = "undefined"
	TypeArray     = "unknown[]"
	TypeRecord    = "Record<string, unknown>"
)

// DefaultTag groups operations that declare no tag.
const DefaultTag = "Default"

func primitiveType(schemaType string) string {
	switch schemaType {
	case "string":
		return TypeString
	case "number", "integer":
		return TypeNumber
	case "boolean":
		return TypeBoolean
	case "array":
		return TypeArray
	case "object":
		return TypeRecord
	default:
		return TypeUnknown
	}
}

type declKind int

const (
	kindInterface declKind = iota
	kindComponentAlias
	kindResponseAlias
)

// Declaration is one named type in the generated types file: an interface when Fields
// is set, an alias when AliasOf is set.
type Declaration struct {
	Name    string  `json:"name"`
	Fields  []Field `json:"fields,omitempty"`
	AliasOf string  `json:"aliasOf,omitempty"`

	kind declKind
	deps []string
}

type Field struct {
	Key      string `json:"key"`
	Type     string `json:"type"`
	Optional bool   `json:"optional"`
}

func (d *Declaration) IsAlias() bool {
	return d.AliasOf != ""
}

type Location string

const (
	LocationPath   Location = "path"
	LocationQuery  Location = "query"
	LocationHeader Location = "header"
	LocationCookie Location = "cookie"
	LocationBody   Location = "body"
)

type ParameterDescriptor struct {
	Name     string   `json:"name"`
	Ident    string   `json:"ident"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	In       Location `json:"in"`
}

// OperationDescriptor describes one client method. Parameters include the synthetic
// body parameter when the operation has a JSON request body.
type OperationDescriptor struct {
	OperationName string                `json:"operationName"`
	HTTPMethod    string                `json:"httpMethod"`
	Path          string                `json:"path"`
	Summary       string                `json:"summary"`
	Tag           string                `json:"tag"`
	Parameters    []ParameterDescriptor `json:"parameters"`
	Response      string                `json:"response"`

	// ResponseItem is the element type when Response is an array alias.
	ResponseItem string `json:"responseItem,omitempty"`
}

func (o *OperationDescriptor) PathParams() []ParameterDescriptor {
	return o.paramsIn(LocationPath)
}

func (o *OperationDescriptor) QueryParams() []ParameterDescriptor {
	return o.paramsIn(LocationQuery)
}

func (o *OperationDescriptor) HeaderParams() []ParameterDescriptor {
	return o.paramsIn(LocationHeader)
}

// RequestBody returns the body parameter, or nil.
func (o *OperationDescriptor) RequestBody() *ParameterDescriptor {
	for i := range o.Parameters {
		if o.Parameters[i].In == LocationBody {
			return &o.Parameters[i]
		}
	}
	return nil
}

func (o *OperationDescriptor) paramsIn(in Location) []ParameterDescriptor {
	params := make([]ParameterDescriptor, 0)
	for _, p := range o.Parameters {
		if p.In == in {
			params = append(params, p)
		}
	}
	return params
}

type TagGroup struct {
	Tag           string                 `json:"tag"`
	Operations    []*OperationDescriptor `json:"operations"`
	UsedTypeNames []string               `json:"usedTypeNames"`
	Imports       []string               `json:"imports"`
}

// Result is everything generated for one input document.
type Result struct {
	BaseName     string         `json:"baseName"`
	Declarations []*Declaration `json:"declarations"`
	Groups       []*TagGroup    `json:"groups"`
}
