package strcase

import (
	"regexp"
	"strings"
	"unicode"
)

// UnknownRef is returned by SchemaRefName for pointers outside #/components/schemas.
const UnknownRef = "unknown"

var (
	schemaRefPattern = regexp.MustCompile(`#/components/schemas/(\w+)`)
	pascalBoundary   = regexp.MustCompile(`(^|[_\-/])(\w)`)
	nonAlphanumeric  = regexp.MustCompile(`[^a-zA-Z0-9]`)
	nonSummaryChar   = regexp.MustCompile(`[^a-zA-Z0-9 ]`)
	summaryGap       = regexp.MustCompile(` +(.)`)
)

func CapitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func ToCamelCase(name string) string {
	if name == "" {
		return name
	}

	firstChar := name[0]
	if firstChar >= 'A' && firstChar <= 'Z' {
		return string(firstChar+32) + name[1:]
	}

	return name
}

// ToPascalIdentifier turns file and tag names such as "user-admin" or "pet_store/v2"
// into "UserAdmin" and "PetStoreV2".
func ToPascalIdentifier(s string) string {
	// a match is an optional separator followed by one ASCII word character
	upper := pascalBoundary.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ToUpper(m[len(m)-1:])
	})
	return nonAlphanumeric.ReplaceAllString(upper, "")
}

// SchemaRefName extracts Name from a "#/components/schemas/Name" pointer.
func SchemaRefName(ref string) string {
	match := schemaRefPattern.FindStringSubmatch(ref)
	if match == nil {
		return UnknownRef
	}
	return match[1]
}

// OperationTypeName derives a type name from a human readable summary:
// "List all widgets" with suffix "Response" becomes "ListAllWidgetsResponse".
func OperationTypeName(summary, suffix string) string {
	base := summaryBase(summary)
	if base == "" {
		return "Unnamed" + suffix
	}
	return base + suffix
}

// HasSummaryName reports whether summary contains any characters OperationTypeName keeps.
func HasSummaryName(summary string) bool {
	return summaryBase(summary) != ""
}

func summaryBase(summary string) string {
	cleaned := strings.TrimSpace(nonSummaryChar.ReplaceAllString(summary, ""))
	if cleaned == "" {
		return ""
	}
	joined := summaryGap.ReplaceAllStringFunc(cleaned, func(m string) string {
		return strings.ToUpper(strings.TrimLeft(m, " "))
	})
	return CapitalizeFirst(joined)
}

// MethodPathName derives a name from an HTTP method and path template:
// get /users/{id} becomes "GetUsersById".
func MethodPathName(method, path, suffix string) string {
	var b strings.Builder
	b.WriteString(CapitalizeFirst(strings.ToLower(method)))

	wrote := false
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			b.WriteString("By")
			b.WriteString(ToPascalIdentifier(CapitalizeFirst(strings.Trim(segment, "{}"))))
		} else {
			b.WriteString(ToPascalIdentifier(CapitalizeFirst(segment)))
		}
		wrote = true
	}
	if !wrote {
		b.WriteString("Root")
	}

	b.WriteString(suffix)
	return b.String()
}

// Identifier converts a parameter name such as "X-Request-Id" into a value usable as a
// TypeScript identifier ("xRequestId").
func Identifier(name string) string {
	var b strings.Builder
	upperNext := false
	for _, r := range name {
		if !isIdentRune(r) {
			upperNext = b.Len() > 0
			continue
		}
		if upperNext {
			r = unicode.ToUpper(r)
			upperNext = false
		}
		b.WriteRune(r)
	}

	ident := ToCamelCase(b.String())
	if ident == "" {
		return "_"
	}
	if unicode.IsDigit([]rune(ident)[0]) {
		return "_" + ident
	}
	return ident
}

// IsIdentifier reports whether s can be written as an unquoted property key.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !isIdentRune(r) && r != '$' {
			return false
		}
		if i == 0 && unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isIdentRune(r rune) bool {
	return r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
}
