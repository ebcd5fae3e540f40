package models

import (
	"encoding/json"
	"fmt"
)

// ModValueKind discriminates the payload of a ModValue.
type ModValueKind string

const (
	ModValueString ModValueKind = "string"
	ModValueNumber ModValueKind = "number"
	ModValueBool   ModValueKind = "bool"
	ModValueMap    ModValueKind = "map"
)

// ModValue is a tagged variant for the open-ended mod_data section.
// The core never interprets these values; they only need to round-trip.
// Exactly one of the value fields is meaningful, selected by Kind.
type ModValue struct {
	Kind   ModValueKind        `json:"kind"`
	String string              `json:"string,omitempty"`
	Number float64             `json:"number,omitempty"`
	Bool   bool                `json:"bool,omitempty"`
	Map    map[string]ModValue `json:"map,omitempty"`
}

// StringValue builds a string-kind value.
func StringValue(s string) ModValue {
	return ModValue{Kind: ModValueString, String: s}
}

// NumberValue builds a number-kind value.
func NumberValue(n float64) ModValue {
	return ModValue{Kind: ModValueNumber, Number: n}
}

// BoolValue builds a bool-kind value.
func BoolValue(b bool) ModValue {
	return ModValue{Kind: ModValueBool, Bool: b}
}

// MapValue builds a nested-map value.
func MapValue(m map[string]ModValue) ModValue {
	return ModValue{Kind: ModValueMap, Map: m}
}

// UnmarshalJSON rejects unknown kinds so typos in mod data surface at
// load time instead of silently decoding to a zero value.
func (v *ModValue) UnmarshalJSON(data []byte) error {
	type raw ModValue
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	switch r.Kind {
	case ModValueString, ModValueNumber, ModValueBool, ModValueMap:
	default:
		return fmt.Errorf("unknown mod value kind %q", r.Kind)
	}
	*v = ModValue(r)
	return nil
}
