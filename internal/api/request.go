package api

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Request describes one platform call.
type Request struct {
	Method string
	Path   string
	// Query values are scalars; nil entries are dropped before encoding.
	Query map[string]any
	// Body is JSON-encoded when non-nil.
	Body any
}

// CleanParams returns a copy of params without nil entries. Typed nil pointers,
// maps and slices count as nil; zero values such as 0, false and "" are kept.
func CleanParams(params map[string]any) map[string]any {
	cleaned := make(map[string]any, len(params))
	for key, value := range params {
		if isNil(value) {
			continue
		}
		cleaned[key] = value
	}
	return cleaned
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// encodeQuery renders cleaned params in key order.
func encodeQuery(params map[string]any) string {
	cleaned := CleanParams(params)
	if len(cleaned) == 0 {
		return ""
	}

	keys := make([]string, 0, len(cleaned))
	for key := range cleaned {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, key := range keys {
		values.Set(key, formatParam(cleaned[key]))
	}
	return values.Encode()
}

func formatParam(value any) string {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		return formatParam(rv.Elem().Interface())
	}

	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case time.Duration:
		return v.String()
	case []string:
		return strings.Join(v, ",")
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// resolveURL joins the base URL, the request path and the encoded query.
func resolveURL(base *url.URL, path string, query map[string]any) string {
	joined := strings.TrimRight(base.String(), "/") + "/" + strings.TrimLeft(path, "/")
	if encoded := encodeQuery(query); encoded != "" {
		if strings.Contains(joined, "?") {
			return joined + "&" + encoded
		}
		return joined + "?" + encoded
	}
	return joined
}
