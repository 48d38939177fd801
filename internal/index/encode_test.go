package index

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeOther_Leaf(t *testing.T) {
	t.Parallel()
	v := EncodeOther(st("type", "string"))
	assert.Equal(t, EncodedValue{Keyword: "type", Value: "string", Children: []EncodedValue{}}, v)
}

func TestEncodeOther_NoArgument(t *testing.T) {
	t.Parallel()
	v := EncodeOther(st("input", ""))
	assert.Equal(t, "", v.Value)
	assert.False(t, v.HasChildren)
	assert.Empty(t, v.Children)
}

func TestEncodeOther_NestedExtension(t *testing.T) {
	t.Parallel()
	ext := st("ext:custom", "v")
	extWithSub := st("ext:custom", "w", st("description", "inner"))
	typ := st("type", "string",
		st("pattern", "[a-z]+", ext, extWithSub),
	)

	v := EncodeOther(typ)
	require.True(t, v.HasChildren)
	require.Len(t, v.Children, 1)
	pattern := v.Children[0]
	assert.Equal(t, "pattern", pattern.Keyword)
	require.Len(t, pattern.Children, 2)

	assert.Equal(t, "ext:custom", pattern.Children[0].Keyword)
	assert.False(t, pattern.Children[0].HasChildren)
	assert.Equal(t, "ext:custom", pattern.Children[1].Keyword)
	assert.True(t, pattern.Children[1].HasChildren)
	assert.Equal(t, "inner", pattern.Children[1].Children[0].Value)
}

func TestEncodeOther_EscapesValues(t *testing.T) {
	t.Parallel()
	v := EncodeOther(st("must", `../name != 'x'`, st("error-message", "line1\n\"two\"")))
	assert.Equal(t, `../name != ''x''`, v.Value)
	assert.Equal(t, `line1\n\"two\"`, v.Children[0].Value)
}

func TestEncodeProperties_DataDefinitionsStayFlat(t *testing.T) {
	t.Parallel()
	m := newTestModule("module", "foo",
		st("prefix", "foo"),
		st("container", "c",
			st("description", "not a property"),
			st("config", "false"),
			st("leaf", "l", st("type", "string")),
			st("container", "d", st("leaf", "e")),
			st("container", "empty"),
		),
	)
	c := m.Children[0]

	got := EncodeProperties(c)
	want := []EncodedValue{
		{Keyword: "config", Value: "false", Children: []EncodedValue{}},
		{Keyword: "leaf", Value: "l", Children: []EncodedValue{}},
		{Keyword: "container", Value: "d", HasChildren: true, Children: []EncodedValue{}},
		{Keyword: "container", Value: "empty", Children: []EncodedValue{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalProperties(t *testing.T) {
	t.Parallel()
	s, err := MarshalProperties(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	s, err = MarshalProperties([]EncodedValue{
		EncodeOther(st("type", "string", st("length", "1..<255&"))),
	})
	require.NoError(t, err)
	assert.Equal(t,
		`[{"type":{"value":"string","has_children":true,"children":[{"length":{"value":"1..<255&","has_children":false,"children":[]}}]}}]`,
		s)
}

func TestUnmarshalProperties_RoundTrip(t *testing.T) {
	t.Parallel()
	props := EncodeProperties(st("leaf", "x",
		st("type", "enumeration", st("enum", "up"), st("enum", "down")),
		st("ext:note", "it's"),
	))
	s, err := MarshalProperties(props)
	require.NoError(t, err)

	got, err := UnmarshalProperties(s)
	require.NoError(t, err)
	if diff := cmp.Diff(props, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalProperties_Invalid(t *testing.T) {
	t.Parallel()
	_, err := UnmarshalProperties(`[{"a":{},"b":{}}]`)
	require.Error(t, err)
	_, err = UnmarshalProperties(`not json`)
	require.Error(t, err)

	got, err := UnmarshalProperties("")
	require.NoError(t, err)
	assert.Nil(t, got)
}
