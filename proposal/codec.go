package proposal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Marshal encodes req as the submission payload.
func Marshal(req ProposalRequest) ([]byte, error) {
	return json.Marshal(req)
}

// Unmarshal decodes a JSON payload. Shape errors are returned as
// ValidationErrors so callers can report them like any other field error.
func Unmarshal(data []byte) (ProposalRequest, error) {
	var req ProposalRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return ProposalRequest{}, decodeError(err)
	}
	return req, nil
}

// DecodeYAML decodes a human-authored YAML (or JSON) document. Keys follow the
// JSON field names.
func DecodeYAML(data []byte) (ProposalRequest, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return ProposalRequest{}, fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return ProposalRequest{}, nil
	}
	if _, ok := doc.(map[string]any); !ok {
		return ProposalRequest{}, ValidationErrors{{Code: CodeInvalidType, Message: "document must be a mapping"}}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return ProposalRequest{}, fmt.Errorf("convert yaml: %w", err)
	}
	return Unmarshal(raw)
}

// EncodeYAML renders req as YAML using the JSON field names.
func EncodeYAML(req ProposalRequest) ([]byte, error) {
	raw, err := Marshal(req)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	clearStyle(&doc)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// clearStyle drops the flow style inherited from the JSON source so the
// encoder emits block YAML. Scalars keep their quoting.
func clearStyle(n *yaml.Node) {
	if n.Kind != yaml.ScalarNode {
		n.Style = 0
	}
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// UnmarshalJSON accepts budget as a JSON number or numeric string.
func (r *ProposalRequest) UnmarshalJSON(data []byte) error {
	type plain ProposalRequest
	aux := struct {
		*plain
		Budget json.RawMessage `json:"budget,omitempty"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	budget, ferr := decodeBudget(aux.Budget)
	if ferr != nil {
		return ValidationErrors{*ferr}
	}
	r.Budget = budget
	return nil
}

func decodeBudget(raw json.RawMessage) (*float64, *FieldError) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, malformedBudget(string(raw))
		}
		return parseBudgetText(text)
	}

	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return nil, malformedBudget(string(raw))
	}
	return &v, nil
}

func malformedBudget(raw string) *FieldError {
	return &FieldError{
		Field:   "budget",
		Code:    CodeMalformedNumber,
		Message: "budget must be a number",
		Value:   raw,
	}
}

func decodeError(err error) error {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return ValidationErrors{{
			Field:   typeErr.Field,
			Code:    CodeInvalidType,
			Message: fmt.Sprintf("%s must be %s, got %s", typeErr.Field, jsonKind(typeErr.Type.Kind().String()), typeErr.Value),
			Value:   typeErr.Value,
		}}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("malformed json at offset %d: %w", syntaxErr.Offset, err)
	}
	return err
}

func jsonKind(goKind string) string {
	switch goKind {
	case "slice", "array":
		return "a list"
	case "struct", "map":
		return "an object"
	case "bool":
		return "a boolean"
	case "float64", "float32", "int", "int64":
		return "a number"
	default:
		return "a " + goKind
	}
}
