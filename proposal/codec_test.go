package proposal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUsesWireFieldNames(t *testing.T) {
	res := Validate(validRequest())
	require.True(t, res.Valid())

	data, err := Marshal(*res.Request)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	for _, key := range []string{
		"project_name", "client_name", "industry", "timeline", "budget",
		"technical_stack", "database_requirements", "api_requirements",
		"security_requirements", "system_architecture", "include_diagrams", "format",
	} {
		assert.Contains(t, wire, key)
	}

	stack := wire["technical_stack"].(map[string]any)
	assert.Contains(t, stack, "devops")
	assert.NotContains(t, stack, "other")
}

func TestRoundTripOfNormalizedRequest(t *testing.T) {
	req := validRequest()
	req.Description = "Replace the legacy stock system"
	req.TechnicalStack.Other = []string{"Redis"}
	req.APIRequirements.RateLimiting = BoolPtr(true)
	req.SystemArchitecture.DeploymentStrategy = DeploymentHybrid
	req.DiagramTypes = []string{"architecture"}

	res := Validate(req)
	require.True(t, res.Valid())

	data, err := Marshal(*res.Request)
	require.NoError(t, err)
	decoded, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, *res.Request, decoded)

	again := Validate(decoded)
	require.True(t, again.Valid())
	assert.Equal(t, *res.Request, *again.Request)
}

func TestUnmarshalBudgetForms(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    *float64
		code    ErrorCode
	}{
		{name: "number", payload: `{"budget": 2500.5}`, want: Float64Ptr(2500.5)},
		{name: "numeric_string", payload: `{"budget": "10,000"}`, want: Float64Ptr(10000)},
		{name: "blank_string", payload: `{"budget": "  "}`},
		{name: "null", payload: `{"budget": null}`},
		{name: "absent", payload: `{}`},
		{name: "negative_string_left_to_validate", payload: `{"budget": "-5"}`, want: Float64Ptr(-5)},
		{name: "text", payload: `{"budget": "a lot"}`, code: CodeMalformedNumber},
		{name: "boolean", payload: `{"budget": true}`, code: CodeMalformedNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Unmarshal([]byte(tt.payload))
			if tt.code != "" {
				var verrs ValidationErrors
				require.ErrorAs(t, err, &verrs)
				require.Len(t, verrs, 1)
				assert.Equal(t, "budget", verrs[0].Field)
				assert.Equal(t, tt.code, verrs[0].Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Budget)
		})
	}
}

func TestUnmarshalTypeMismatch(t *testing.T) {
	_, err := Unmarshal([]byte(`{"technical_stack": {"frontend": "React"}}`))

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	assert.Equal(t, CodeInvalidType, verrs[0].Code)
	assert.Equal(t, "technical_stack.frontend", verrs[0].Field)
}

func TestUnmarshalSyntaxError(t *testing.T) {
	_, err := Unmarshal([]byte(`{"project_name": `))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed json")
}

func TestDecodeYAML(t *testing.T) {
	doc := `
project_name: Inventory Platform
client_name: Acme Corp
industry: Retail
timeline: 6 months
budget: 120000
technical_stack:
  frontend: [React]
  backend: [Go]
  database: [PostgreSQL]
  devops: [Kubernetes]
database_requirements:
  type: SQL
api_requirements:
  authentication_type: JWT
security_requirements:
  authentication: [SSO]
  authorization: [RBAC]
  data_encryption: [AtRest, InTransit]
system_architecture:
  architecture_type: Microservices
`
	req, err := DecodeYAML([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, validRequest(), req)

	_, err = DecodeYAML([]byte("- just\n- a list\n"))
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, CodeInvalidType, verrs[0].Code)

	_, err = DecodeYAML([]byte("project_name: [unclosed"))
	require.Error(t, err)
}

func TestEncodeYAMLRoundTrip(t *testing.T) {
	res := Validate(validRequest())
	require.True(t, res.Valid())

	out, err := EncodeYAML(*res.Request)
	require.NoError(t, err)
	assert.Contains(t, string(out), "project_name:")
	assert.NotContains(t, string(out), "{")

	decoded, err := DecodeYAML(out)
	require.NoError(t, err)
	assert.Equal(t, *res.Request, decoded)
}
