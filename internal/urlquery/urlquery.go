// Package urlquery builds URL query strings from loosely-typed parameter
// maps, the way the Request Engine assembles API requests: string values
// are used as-is, anything else is JSON-encoded first. Grounded on
// addUrlQueryItems in the original QYouTube request_p.h.
package urlquery

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"
)

// BuildQuery turns values into an encoded query string. Non-string values
// are JSON-encoded before being percent-encoded, matching the original's
// behavior of serializing QVariant values that aren't already strings.
func BuildQuery(values map[string]interface{}) string {
	q := url.Values{}
	Apply(q, values)
	return q.Encode()
}

// Apply adds each entry of values to q, JSON-encoding non-string values.
// Keys are not sorted by Apply itself; url.Values.Encode() sorts on output.
func Apply(q url.Values, values map[string]interface{}) {
	for key, val := range values {
		q.Set(key, stringify(val))
	}
}

func stringify(val interface{}) string {
	if val == nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		// A JSON string literal ("foo") round-trips as the bare value; any
		// other JSON shape (object, array, number, bool) is kept verbatim.
		var s string
		if json.Unmarshal(data, &s) == nil {
			return s
		}
		return string(data)
	}
}

// JoinPart comma-joins a part list, the form the API expects for the
// "part" query parameter shared by every resource list/insert/update call.
func JoinPart(parts []string) string {
	return strings.Join(parts, ",")
}

// SortedKeys returns the keys of values in sorted order, useful for
// deterministic logging/tests of otherwise map-ordered query building.
func SortedKeys(values map[string]interface{}) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
