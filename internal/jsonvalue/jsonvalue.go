// Package jsonvalue is the JSON Codec (J) component: a thin façade over
// github.com/bitly/go-simplejson giving the rest of the library a single
// dynamic JSON value type that can represent null, bool, number, string,
// array, and object without per-endpoint structs — the API boundary
// described in spec.md §9 ("Dynamic maps at the API boundary").
package jsonvalue

import (
	"bytes"
	"encoding/json"

	"github.com/bitly/go-simplejson"
)

// Value is a dynamic JSON value.
type Value = simplejson.Json

// null is a Value holding JSON null with no content; Present reports
// false for it.
var null = &simplejson.Json{}

// New returns an empty object Value.
func New() *Value {
	return simplejson.New()
}

// Parse decodes data as JSON into a dynamic Value.
func Parse(data []byte) (*Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return null, nil
	}
	return simplejson.NewJson(data)
}

// FromGo wraps an arbitrary Go value (map[string]interface{}, []interface{},
// string, float64, bool, nil, or anything encoding/json can marshal) as a
// Value, round-tripping it through encoding/json so callers can build
// request bodies from plain Go literals.
func FromGo(v interface{}) (*Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Encode serializes v back to JSON bytes.
func Encode(v *Value) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return v.MarshalJSON()
}

// Present reports whether v holds a non-null value.
func Present(v *Value) bool {
	if v == nil {
		return false
	}
	_, err := v.Map()
	if err == nil {
		return true
	}
	_, err = v.Array()
	if err == nil {
		return true
	}
	return v.Interface() != nil
}
