package summary

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// LLMs wrap JSON in prose or fences no matter how firmly the prompt says not
// to. Extraction runs an ordered list of total parser strategies and takes
// the first success: strict parse, fenced ```json block, first {...} block.

var fencedJSON = regexp.MustCompile("(?is)```json\\s*(.*?)\\s*```")

type extractStrategy func(string) (map[string]any, bool)

var strategies = []extractStrategy{
	parseStrict,
	parseFenced,
	parseFirstObject,
}

// ExtractJSONObject leniently pulls a JSON object out of LLM response text.
// Returns false when no strategy yields an object.
func ExtractJSONObject(text string) (map[string]any, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	for _, strategy := range strategies {
		if obj, ok := strategy(text); ok {
			return obj, true
		}
	}
	return nil, false
}

func parseStrict(text string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func parseFenced(text string) (map[string]any, bool) {
	match := fencedJSON.FindStringSubmatch(text)
	if len(match) < 2 {
		return nil, false
	}
	return parseStrict(match[1])
}

func parseFirstObject(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	return parseStrict(text[start : end+1])
}

// flattenValue renders any JSON value as display text, mirroring how nested
// or list-shaped LLM answers are folded into a single string.
func flattenValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		trimmed := strings.TrimSpace(val)
		if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
			(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
			var nested any
			if err := json.Unmarshal([]byte(trimmed), &nested); err == nil {
				return flattenValue(nested)
			}
		}
		return trimmed
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		var parts []string
		for _, item := range val {
			if s := flattenValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		var parts []string
		for key, entry := range val {
			if s := flattenValue(entry); s != "" {
				parts = append(parts, keyLabel(key)+": "+s)
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}

// pickSection returns the first non-empty value under any of the aliases,
// checking top-level keys first and then one level of nested objects.
func pickSection(obj map[string]any, aliases []string) string {
	for _, key := range aliases {
		if s := flattenValue(obj[key]); s != "" {
			return s
		}
	}
	for _, nested := range obj {
		inner, ok := nested.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range aliases {
			if s := flattenValue(inner[key]); s != "" {
				return s
			}
		}
	}
	return ""
}

func keyLabel(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
