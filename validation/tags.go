// Package validation reads validator struct tags into metadata that can be used
// for both runtime checks and machine-readable schema descriptions.
package validation

import (
	"reflect"
	"strconv"
	"strings"
)

const trueValue = "true"

// TagInfo represents parsed validation tag information from a struct field.
type TagInfo struct {
	Name      string // Go field name
	JSONName  string // JSON field name (from json tag)
	Omitempty bool
	Required  bool
	// Constraints apply to the field itself; ElemConstraints to slice elements
	// (everything after "dive").
	Constraints     map[string]string
	ElemConstraints map[string]string
	Description     string // from doc tag
	Example         string // from example tag
	Type            reflect.Type
}

// ParseValidationTags extracts validation metadata from a struct type.
// Unexported fields and fields tagged json:"-" are skipped.
func ParseValidationTags(t reflect.Type) []TagInfo {
	var tags []TagInfo

	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return tags
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		info := TagInfo{
			Name:            field.Name,
			JSONName:        field.Name,
			Constraints:     make(map[string]string),
			ElemConstraints: make(map[string]string),
			Description:     field.Tag.Get("doc"),
			Example:         field.Tag.Get("example"),
			Type:            field.Type,
		}

		if json := field.Tag.Get("json"); json != "" {
			parts := strings.Split(json, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				info.JSONName = parts[0]
			}
			for _, part := range parts[1:] {
				if strings.TrimSpace(part) == "omitempty" {
					info.Omitempty = true
				}
			}
		}

		if validate := field.Tag.Get("validate"); validate != "" {
			parseValidateTag(validate, info.Constraints, info.ElemConstraints)
		}

		info.Required = isFieldRequired(info.Constraints)
		tags = append(tags, info)
	}

	return tags
}

// parseValidateTag splits a validate tag into field and element constraints.
func parseValidateTag(validate string, constraints, elem map[string]string) {
	target := constraints

	for _, part := range strings.Split(validate, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if part == "dive" {
			target = elem
			continue
		}

		key, value, found := strings.Cut(part, "=")
		if !found {
			target[part] = trueValue
			continue
		}
		target[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"`)
	}
}

// isFieldRequired reports whether the constraints demand a value: either an
// explicit required or a minimum length of at least one.
func isFieldRequired(constraints map[string]string) bool {
	if _, skip := constraints["omitempty"]; skip {
		return false
	}
	if _, required := constraints["required"]; required {
		return true
	}
	if minVal, ok := constraints["min"]; ok {
		if v, err := strconv.Atoi(minVal); err == nil && v > 0 {
			return true
		}
	}
	return false
}

// Min returns the minimum value or length constraint if present.
func (t *TagInfo) Min() (int, bool) {
	return intConstraint(t.Constraints, "min")
}

// Max returns the maximum value or length constraint if present.
func (t *TagInfo) Max() (int, bool) {
	return intConstraint(t.Constraints, "max")
}

// Enum returns the allowed values of the field, if it is an enumeration.
func (t *TagInfo) Enum() ([]string, bool) {
	return enumConstraint(t.Constraints)
}

// ElemEnum returns the allowed values of slice elements, if any.
func (t *TagInfo) ElemEnum() ([]string, bool) {
	return enumConstraint(t.ElemConstraints)
}

func intConstraint(constraints map[string]string, key string) (int, bool) {
	if raw, ok := constraints[key]; ok {
		if val, err := strconv.Atoi(raw); err == nil {
			return val, true
		}
	}
	return 0, false
}

func enumConstraint(constraints map[string]string) ([]string, bool) {
	if enum, ok := constraints["oneof"]; ok {
		values := strings.Fields(enum)
		if len(values) > 0 {
			return values, true
		}
	}
	return nil, false
}
