package dodo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope is the canonicalized view of one webhook delivery. Event is the
// inner payload dug out of the provider's wrapper structure; it is never nil
// (worst case it aliases the whole payload, or is empty).
type Envelope struct {
	Raw         map[string]interface{}
	Event       map[string]interface{}
	EventType   string
	Metadata    map[string]interface{}
	QueryParams map[string]interface{}
}

// eventObjectStrategies are tried in order; the first that yields a dict
// wins. The "datta" entries cover an observed provider typo, kept on
// purpose.
var eventObjectStrategies = []func(map[string]interface{}) map[string]interface{}{
	func(p map[string]interface{}) map[string]interface{} { return objectAt(p, "data") },
	func(p map[string]interface{}) map[string]interface{} { return objectAtArray(p, "data") },
	func(p map[string]interface{}) map[string]interface{} { return asObject(p["data"]) },
	func(p map[string]interface{}) map[string]interface{} { return objectAt(p, "datta") },
	func(p map[string]interface{}) map[string]interface{} { return asObject(p["datta"]) },
	func(p map[string]interface{}) map[string]interface{} { return asObject(p["object"]) },
	func(p map[string]interface{}) map[string]interface{} { return p },
}

// ParseEnvelope parses the raw body and extracts the canonical event object,
// event type, metadata and overlay query params.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}

	env := &Envelope{Raw: payload, Event: map[string]interface{}{}}

	for _, strategy := range eventObjectStrategies {
		if obj := strategy(payload); obj != nil {
			env.Event = obj
			break
		}
	}

	if t, ok := payload["type"].(string); ok && t != "" {
		env.EventType = strings.ToLower(strings.TrimSpace(t))
	} else if t, ok := payload["event"].(string); ok {
		env.EventType = strings.ToLower(strings.TrimSpace(t))
	}

	env.Metadata = firstObject(
		asObject(env.Event["metadata"]),
		asObject(objectIn(payload, "data", "metadata")),
		asObject(objectIn(payload, "datta", "metadata")),
	)
	// Overlay checkout passes identifiers under data.query_params.
	env.QueryParams = firstObject(
		asObject(env.Event["query_params"]),
		asObject(objectIn(payload, "data", "query_params")),
		asObject(objectIn(payload, "datta", "query_params")),
	)

	// Some providers bury these a level deeper; fall back to a bounded scan.
	if env.QueryParams == nil {
		env.QueryParams = FindObjectWithKey(payload, "query_params")
	}
	if env.Metadata == nil {
		env.Metadata = FindObjectWithKey(payload, "metadata")
	}

	return env, nil
}

// StringField returns the first non-empty trimmed string stored directly
// under any of keys in obj.
func StringField(obj map[string]interface{}, keys ...string) string {
	if obj == nil {
		return ""
	}
	for _, k := range keys {
		if v, ok := obj[k].(string); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// emailPaths are the common provider locations for the billing email.
var emailPaths = [][]string{
	{"email"},
	{"customer", "email"},
	{"data", "object", "email"},
	{"data", "object", "customer_email"},
	{"object", "customer_email"},
	{"object", "email"},
	{"metadata", "email"},
}

// FirstEmail extracts a billing email from the payload, trying fixed paths
// before a bounded deep scan.
func FirstEmail(payload map[string]interface{}) string {
	for _, path := range emailPaths {
		node := interface{}(payload)
		for _, key := range path {
			obj, ok := node.(map[string]interface{})
			if !ok {
				node = nil
				break
			}
			node = obj[key]
		}
		if s, ok := node.(string); ok && strings.Contains(s, "@") {
			return strings.ToLower(strings.TrimSpace(s))
		}
	}
	got := DeepFindString(payload, "email", "customer_email", "billing_email")
	if strings.Contains(got, "@") {
		return strings.ToLower(got)
	}
	return ""
}

func asObject(v interface{}) map[string]interface{} {
	obj, _ := v.(map[string]interface{})
	return obj
}

func objectAt(p map[string]interface{}, key string) map[string]interface{} {
	return asObject(asObject(p[key])["object"])
}

func objectAtArray(p map[string]interface{}, key string) map[string]interface{} {
	arr, _ := p[key].([]interface{})
	if len(arr) == 0 {
		return nil
	}
	return asObject(asObject(arr[0])["object"])
}

func objectIn(p map[string]interface{}, outer, inner string) interface{} {
	return asObject(p[outer])[inner]
}

func firstObject(candidates ...map[string]interface{}) map[string]interface{} {
	for _, c := range candidates {
		if len(c) > 0 {
			return c
		}
	}
	return nil
}
