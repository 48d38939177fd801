package index

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jward/yindex/internal/schema"
)

// EncodedValue is one serialized substatement:
//
//	{"<keyword>": {"value": ..., "has_children": ..., "children": [...]}}
type EncodedValue struct {
	Keyword     string
	Value       string
	HasChildren bool
	Children    []EncodedValue
}

type encodedBody struct {
	Value       string         `json:"value"`
	HasChildren bool           `json:"has_children"`
	Children    []EncodedValue `json:"children"`
}

// MarshalJSON writes the single-key object form. HTML characters are left
// unescaped.
func (v EncodedValue) MarshalJSON() ([]byte, error) {
	children := v.Children
	if children == nil {
		children = []EncodedValue{}
	}
	return encodeJSON(map[string]encodedBody{
		v.Keyword: {Value: v.Value, HasChildren: v.HasChildren, Children: children},
	})
}

func (v *EncodedValue) UnmarshalJSON(data []byte) error {
	var m map[string]encodedBody
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("encoded value: want exactly one keyword, got %d", len(m))
	}
	for k, body := range m {
		*v = EncodedValue{
			Keyword:     k,
			Value:       body.Value,
			HasChildren: body.HasChildren,
			Children:    body.Children,
		}
	}
	return nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalProperties serializes a substatement list. An empty list encodes as
// "[]".
func MarshalProperties(props []EncodedValue) (string, error) {
	if props == nil {
		props = []EncodedValue{}
	}
	b, err := encodeJSON(props)
	if err != nil {
		return "", fmt.Errorf("marshal properties: %w", err)
	}
	return string(b), nil
}

// UnmarshalProperties decodes a properties column.
func UnmarshalProperties(s string) ([]EncodedValue, error) {
	if s == "" {
		return nil, nil
	}
	var props []EncodedValue
	if err := json.Unmarshal([]byte(s), &props); err != nil {
		return nil, fmt.Errorf("unmarshal properties: %w", err)
	}
	return props, nil
}

// FlattenKeyword returns the single-token keyword used in rows and
// properties.
func FlattenKeyword(k schema.Keyword) string {
	return k.Flatten()
}

func escapedArg(s *schema.Statement) string {
	if a := s.Argument(); a != "" {
		return TextEscape(a)
	}
	return ""
}

// EncodeOther serializes s and its entire substatement subtree. It is used
// for substatements that are not data-definition nodes and never looks at
// resolved children.
func EncodeOther(s *schema.Statement) EncodedValue {
	v := EncodedValue{
		Keyword:     FlattenKeyword(s.Keyword),
		Value:       escapedArg(s),
		HasChildren: len(s.Substatements) > 0,
		Children:    make([]EncodedValue, 0, len(s.Substatements)),
	}
	for _, sub := range s.Substatements {
		v.Children = append(v.Children, EncodeOther(sub))
	}
	return v
}

// encodeDataDefinition is the flat entry for a data-definition substatement.
// Its children are indexed as rows of their own and are not nested here.
func encodeDataDefinition(s *schema.Statement) EncodedValue {
	return EncodedValue{
		Keyword:     FlattenKeyword(s.Keyword),
		Value:       escapedArg(s),
		HasChildren: len(s.Children) > 0,
		Children:    []EncodedValue{},
	}
}

// EncodeProperties builds the properties list of s from its direct
// substatements in source order. The description is carried by its own
// column and is left out.
func EncodeProperties(s *schema.Statement) []EncodedValue {
	props := make([]EncodedValue, 0, len(s.Substatements))
	for _, sub := range s.Substatements {
		switch {
		case sub.Keyword.Is("description"):
			continue
		case schema.IsDataDefinition(sub.Keyword):
			props = append(props, encodeDataDefinition(sub))
		default:
			props = append(props, EncodeOther(sub))
		}
	}
	return props
}
