package proposal

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	engineOnce sync.Once
	engine     *validator.Validate

	// topLevelOrder maps each top-level JSON field to its declaration index.
	topLevelOrder = declarationOrder(reflect.TypeOf(ProposalRequest{}))
)

func validate() *validator.Validate {
	engineOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		if err := v.RegisterValidation("finite", validateFinite); err != nil {
			panic(fmt.Sprintf("proposal: register finite validator: %v", err))
		}
		engine = v
	})
	return engine
}

func validateFinite(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		v := f.Float()
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	default:
		return true
	}
}

// Validate normalizes req and checks it against the schema. It never mutates
// req and never panics. On success Result.Request holds the normalized request;
// otherwise Result.Errors lists every violation in declaration order.
func Validate(req ProposalRequest) Result {
	normalized, warnings := Normalize(req)

	var f Findings
	f.Warnings = warnings
	f.merge(validateScalars(normalized))
	f.merge(ValidateTechnicalStack(normalized.TechnicalStack))
	f.merge(ValidateDatabase(normalized.DatabaseRequirements))
	f.merge(ValidateAPI(normalized.APIRequirements))
	f.merge(ValidateSecurity(normalized.SecurityRequirements))
	f.merge(ValidateArchitecture(normalized.SystemArchitecture))

	sortByDeclaration(f.Errors, func(e FieldError) string { return e.Field })
	sortByDeclaration(f.Warnings, func(w FieldWarning) string { return w.Field })

	result := Result{Errors: f.Errors, Warnings: f.Warnings}
	if len(f.Errors) == 0 {
		result.Request = &normalized
	}
	return result
}

// validateScalars checks the top-level fields; nested groups are skipped.
func validateScalars(req ProposalRequest) Findings {
	return Findings{Errors: structErrors("", &req)}
}

// ValidateTechnicalStack reports duplicate entries within each list.
// Duplicates never block submission.
func ValidateTechnicalStack(ts TechnicalStack) Findings {
	var f Findings
	lists := []struct {
		name   string
		values []string
	}{
		{"frontend", ts.Frontend},
		{"backend", ts.Backend},
		{"database", ts.Database},
		{"devops", ts.DevOps},
		{"other", ts.Other},
	}
	for _, l := range lists {
		seen := make(map[string]int, len(l.values))
		for i, v := range l.values {
			if first, dup := seen[v]; dup {
				f.Warnings = append(f.Warnings, FieldWarning{
					Field:   fmt.Sprintf("technical_stack.%s[%d]", l.name, i),
					Code:    WarnDuplicateEntry,
					Message: fmt.Sprintf("%q already listed at technical_stack.%s[%d]", v, l.name, first),
					Value:   v,
				})
				continue
			}
			seen[v] = i
		}
	}
	return f
}

// ValidateDatabase checks database_requirements.
func ValidateDatabase(db DatabaseRequirements) Findings {
	return Findings{Errors: structErrors("database_requirements", &db)}
}

// ValidateAPI checks api_requirements.
func ValidateAPI(api APIRequirements) Findings {
	return Findings{Errors: structErrors("api_requirements", &api)}
}

// ValidateSecurity checks security_requirements.
func ValidateSecurity(sec SecurityRequirements) Findings {
	return Findings{Errors: structErrors("security_requirements", &sec)}
}

// ValidateArchitecture checks system_architecture.
func ValidateArchitecture(arch SystemArchitecture) Findings {
	return Findings{Errors: structErrors("system_architecture", &arch)}
}

// structErrors runs the tag validator on s and converts the failures to
// FieldErrors whose paths are rooted at prefix.
func structErrors(prefix string, s any) []FieldError {
	err := validate().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: prefix, Code: CodeInvalidValue, Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, toFieldError(prefix, fe))
	}
	return out
}

func toFieldError(prefix string, fe validator.FieldError) FieldError {
	// Namespace is "<StructType>.<json path>"; drop the type name.
	_, path, _ := strings.Cut(fe.Namespace(), ".")
	if prefix != "" {
		path = prefix + "." + path
	}

	out := FieldError{Field: path}
	switch fe.Tag() {
	case "required":
		out.Code = CodeMissingRequired
		out.Message = fmt.Sprintf("%s is required", path)
	case "oneof":
		out.Code = CodeInvalidEnumValue
		out.Value = fmt.Sprint(fe.Value())
		out.Message = fmt.Sprintf("%s must be one of [%s], got %q", path, strings.ReplaceAll(fe.Param(), " ", ", "), out.Value)
	case "finite":
		out.Code = CodeMalformedNumber
		out.Value = formatValue(fe.Value())
		out.Message = fmt.Sprintf("%s must be a finite number", path)
	case "gte":
		out.Code = CodeNegativeNumber
		out.Value = formatValue(fe.Value())
		out.Message = fmt.Sprintf("%s must not be negative", path)
	case "min":
		out.Code = CodeEmptyList
		out.Message = fmt.Sprintf("%s must contain at least %s entry", path, fe.Param())
	default:
		out.Code = CodeInvalidValue
		out.Value = formatValue(fe.Value())
		out.Message = fmt.Sprintf("%s failed %s validation", path, fe.Tag())
	}
	return out
}

func formatValue(v any) string {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	return fmt.Sprint(rv.Interface())
}

func declarationOrder(t reflect.Type) map[string]int {
	order := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		order[name] = i
	}
	return order
}

// sortByDeclaration stably orders items by the declaration index of the
// top-level field their path starts with.
func sortByDeclaration[T any](items []T, path func(T) string) {
	rank := func(p string) int {
		end := strings.IndexAny(p, ".[")
		if end >= 0 {
			p = p[:end]
		}
		if idx, ok := topLevelOrder[p]; ok {
			return idx
		}
		return len(topLevelOrder)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return rank(path(items[i])) < rank(path(items[j]))
	})
}
