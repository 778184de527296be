package validation

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleAddress struct {
	City    string   `json:"city" validate:"required" doc:"City name" example:"Lisbon"`
	Tags    []string `json:"tags,omitempty"`
	private string
}

type sampleRequest struct {
	Name     string        `json:"name" validate:"required,min=2,max=100" doc:"Full name"`
	Kind     string        `json:"kind" validate:"required,oneof=alpha beta"`
	Score    *float64      `json:"score,omitempty" validate:"omitempty,gte=0"`
	Count    int           `json:"count"`
	Enabled  *bool         `json:"enabled,omitempty"`
	Roles    []string      `json:"roles" validate:"min=1,dive,oneof=admin user"`
	Address  sampleAddress `json:"address"`
	Ignored  string        `json:"-"`
	NoJSON   string
	internal string
}

func findTag(tags []TagInfo, name string) *TagInfo {
	for i := range tags {
		if tags[i].Name == name {
			return &tags[i]
		}
	}
	return nil
}

func TestParseValidationTags(t *testing.T) {
	tags := ParseValidationTags(reflect.TypeOf(&sampleRequest{}))
	require.Len(t, tags, 8)

	name := findTag(tags, "Name")
	require.NotNil(t, name)
	assert.Equal(t, "name", name.JSONName)
	assert.True(t, name.Required)
	assert.Equal(t, "Full name", name.Description)
	minVal, ok := name.Min()
	assert.True(t, ok)
	assert.Equal(t, 2, minVal)
	maxVal, ok := name.Max()
	assert.True(t, ok)
	assert.Equal(t, 100, maxVal)

	kind := findTag(tags, "Kind")
	require.NotNil(t, kind)
	enum, ok := kind.Enum()
	assert.True(t, ok)
	assert.Equal(t, []string{"alpha", "beta"}, enum)

	score := findTag(tags, "Score")
	require.NotNil(t, score)
	assert.False(t, score.Required)
	assert.True(t, score.Omitempty)

	roles := findTag(tags, "Roles")
	require.NotNil(t, roles)
	assert.True(t, roles.Required, "min=1 on a list makes it required")
	_, ok = roles.Enum()
	assert.False(t, ok)
	elem, ok := roles.ElemEnum()
	assert.True(t, ok)
	assert.Equal(t, []string{"admin", "user"}, elem)

	noJSON := findTag(tags, "NoJSON")
	require.NotNil(t, noJSON)
	assert.Equal(t, "NoJSON", noJSON.JSONName)
	assert.False(t, noJSON.Required)

	assert.Nil(t, findTag(tags, "Ignored"))
	assert.Nil(t, findTag(tags, "internal"))
}

func TestParseValidationTagsNonStruct(t *testing.T) {
	assert.Empty(t, ParseValidationTags(reflect.TypeOf("")))
}

func TestDescribe(t *testing.T) {
	specs := Describe(reflect.TypeOf(sampleRequest{}))

	paths := make([]string, 0, len(specs))
	byPath := make(map[string]FieldSpec, len(specs))
	for _, s := range specs {
		paths = append(paths, s.Path)
		byPath[s.Path] = s
	}

	assert.Equal(t, []string{
		"name", "kind", "score", "count", "enabled", "roles",
		"address", "address.city", "address.tags", "NoJSON",
	}, paths)

	assert.Equal(t, KindString, byPath["name"].Kind)
	assert.Equal(t, KindEnum, byPath["kind"].Kind)
	assert.Equal(t, []string{"alpha", "beta"}, byPath["kind"].Enum)
	assert.Equal(t, KindNumber, byPath["score"].Kind)
	assert.Equal(t, KindInteger, byPath["count"].Kind)
	assert.Equal(t, KindBoolean, byPath["enabled"].Kind)

	roles := byPath["roles"]
	assert.Equal(t, KindList, roles.Kind)
	assert.Equal(t, KindEnum, roles.Items)
	assert.Equal(t, 1, roles.MinItems)
	assert.True(t, roles.Required)

	assert.Equal(t, KindObject, byPath["address"].Kind)
	assert.True(t, byPath["address.city"].Required)
	assert.Equal(t, "Lisbon", byPath["address.city"].Example)
	assert.Equal(t, KindString, byPath["address.tags"].Items)
}

func TestDescribeObjectRequiredFromChildren(t *testing.T) {
	type inner struct {
		Optional string `json:"optional,omitempty"`
	}
	type outer struct {
		Loose inner         `json:"loose" validate:"-"`
		Tight sampleAddress `json:"tight" validate:"-"`
	}

	specs := Describe(reflect.TypeOf(outer{}))
	byPath := make(map[string]FieldSpec, len(specs))
	for _, s := range specs {
		byPath[s.Path] = s
	}

	assert.False(t, byPath["loose"].Required)
	assert.True(t, byPath["tight"].Required)
}
