package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Prettify renders an arbitrary key/value tool result as human-readable
// lines. Keys are converted from snake_case to Title Case; values that look
// like epoch timestamps (numeric, key mentioning "time") or ISO-8601 dates
// are reformatted, everything else passes through verbatim. Never fails:
// unparseable values fall back to their literal representation.
func Prettify(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", titleCase(k), formatValue(k, values[k])))
	}
	return strings.Join(lines, "\n")
}

func titleCase(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func formatValue(key string, v any) string {
	if strings.Contains(strings.ToLower(key), "time") {
		if epoch, ok := asEpochSeconds(v); ok {
			return time.Unix(epoch, 0).UTC().Format("1/2/2006, 3:04:05 PM")
		}
	}

	if s, ok := v.(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC().Format("2006-01-02 15:04:05") + " UTC"
		}
		return s
	}

	return fmt.Sprintf("%v", v)
}

// asEpochSeconds accepts the numeric types JSON decoding produces.
// Millisecond-scale values are scaled down.
func asEpochSeconds(v any) (int64, bool) {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if n >= 1e12 {
		n /= 1000
	}
	return int64(n), true
}
