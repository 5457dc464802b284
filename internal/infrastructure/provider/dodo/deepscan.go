package dodo

import (
	"reflect"
	"strings"
)

// Bounded traversal over untyped webhook JSON. Payloads from upstream vary
// wildly in nesting, so resolution falls back to recursive scans; the depth
// bound, per-node value caps and visited set keep pathological or
// self-referential structures from blowing up.

const (
	maxScanDepth   = 6
	maxNodeValues  = 100
	maxListEntries = 50
)

// wrapperKeys are probed before generic descent; providers habitually nest
// the interesting object under these.
var wrapperKeys = [...]string{"object", "data", "attributes", "details", "datta"}

type visitSet map[uintptr]struct{}

func (s visitSet) seen(node interface{}) bool {
	v := reflect.ValueOf(node)
	switch v.Kind() {
	case reflect.Map, reflect.Slice:
		p := v.Pointer()
		if _, ok := s[p]; ok {
			return true
		}
		s[p] = struct{}{}
	}
	return false
}

// DeepFindString searches obj for the first non-empty string value under any
// of the given keys, to a fixed depth.
func DeepFindString(obj map[string]interface{}, keys ...string) string {
	if obj == nil {
		return ""
	}
	return findString(obj, keys, 0, visitSet{})
}

func findString(node map[string]interface{}, keys []string, depth int, seen visitSet) string {
	if depth > maxScanDepth || seen.seen(node) {
		return ""
	}

	for _, k := range keys {
		if v, ok := node[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	for _, k := range wrapperKeys {
		if got := findStringIn(node[k], keys, depth+1, seen); got != "" {
			return got
		}
	}

	n := 0
	for _, v := range node {
		if n >= maxNodeValues {
			break
		}
		n++
		if got := findStringIn(v, keys, depth+1, seen); got != "" {
			return got
		}
	}
	return ""
}

func findStringIn(v interface{}, keys []string, depth int, seen visitSet) string {
	switch sub := v.(type) {
	case map[string]interface{}:
		return findString(sub, keys, depth, seen)
	case []interface{}:
		for i, it := range sub {
			if i >= maxListEntries {
				break
			}
			if m, ok := it.(map[string]interface{}); ok {
				if got := findString(m, keys, depth, seen); got != "" {
					return got
				}
			}
		}
	}
	return ""
}

// FindObjectWithKey locates the first dict value stored under key anywhere
// in the payload, bounded the same way as DeepFindString.
func FindObjectWithKey(obj map[string]interface{}, key string) map[string]interface{} {
	if obj == nil {
		return nil
	}
	return findObject(obj, key, 0, visitSet{})
}

func findObject(node map[string]interface{}, key string, depth int, seen visitSet) map[string]interface{} {
	if depth > maxScanDepth || seen.seen(node) {
		return nil
	}

	if sub, ok := node[key].(map[string]interface{}); ok {
		return sub
	}

	for _, k := range wrapperKeys {
		if got := findObjectIn(node[k], key, depth+1, seen); got != nil {
			return got
		}
	}

	n := 0
	for _, v := range node {
		if n >= maxNodeValues {
			break
		}
		n++
		if got := findObjectIn(v, key, depth+1, seen); got != nil {
			return got
		}
	}
	return nil
}

func findObjectIn(v interface{}, key string, depth int, seen visitSet) map[string]interface{} {
	switch sub := v.(type) {
	case map[string]interface{}:
		return findObject(sub, key, depth, seen)
	case []interface{}:
		for i, it := range sub {
			if i >= maxListEntries {
				break
			}
			if m, ok := it.(map[string]interface{}); ok {
				if got := findObject(m, key, depth, seen); got != nil {
					return got
				}
			}
		}
	}
	return nil
}

// DeepScanText walks every string value in the payload and returns the first
// non-empty result of match.
func DeepScanText(node interface{}, match func(string) string) string {
	return scanText(node, match, 0, visitSet{})
}

func scanText(node interface{}, match func(string) string, depth int, seen visitSet) string {
	if depth > maxScanDepth {
		return ""
	}
	switch v := node.(type) {
	case string:
		return match(v)
	case map[string]interface{}:
		if seen.seen(v) {
			return ""
		}
		n := 0
		for _, sub := range v {
			if n >= maxNodeValues {
				break
			}
			n++
			if got := scanText(sub, match, depth+1, seen); got != "" {
				return got
			}
		}
	case []interface{}:
		if seen.seen(v) {
			return ""
		}
		for i, it := range v {
			if i >= maxNodeValues {
				break
			}
			if got := scanText(it, match, depth+1, seen); got != "" {
				return got
			}
		}
	}
	return ""
}

// CollectStrings gathers the string values (or nested {"id": ...}) stored
// under the given keys anywhere in the payload, in wrapper-first order. Used
// for payment-link / checkout-session identifier matching.
func CollectStrings(node interface{}, keys ...string) []string {
	var out []string
	collectStrings(node, keys, 0, visitSet{}, &out)
	return out
}

func collectStrings(node interface{}, keys []string, depth int, seen visitSet, out *[]string) {
	if depth > maxScanDepth-2 { // matches the shallower bound used upstream
		return
	}
	switch v := node.(type) {
	case map[string]interface{}:
		if seen.seen(v) {
			return
		}
		for _, k := range keys {
			switch val := v[k].(type) {
			case string:
				if s := strings.TrimSpace(val); s != "" {
					*out = append(*out, s)
				}
			case map[string]interface{}:
				if id, ok := val["id"].(string); ok && id != "" {
					*out = append(*out, id)
				}
			}
		}
		for _, k := range wrapperKeys {
			if sub := v[k]; sub != nil {
				collectStrings(sub, keys, depth+1, seen, out)
			}
		}
	case []interface{}:
		if seen.seen(v) {
			return
		}
		for i, it := range v {
			if i >= maxListEntries {
				break
			}
			collectStrings(it, keys, depth+1, seen, out)
		}
	}
}
