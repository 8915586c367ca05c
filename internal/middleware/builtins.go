package middleware

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/alex4o/mcpd/internal/mcptypes"
)

const (
	stripJSONKeysName      = "strip-json-keys"
	stripResultWrapperName = "strip-result-wrapper"
	extractJSONResultsName = "extract-json-results"
	json5Name              = "json5"
	toonName               = "toon"
)

// mapTextBlocks applies fn to every text content block, passing non-text
// blocks through untouched — the first of the two shared helpers every
// built-in transform is built from.
func mapTextBlocks(result *mcptypes.ToolResult, fn func(text string) string) *mcptypes.ToolResult {
	if result == nil {
		return nil
	}
	blocks := make([]mcptypes.ContentBlock, len(result.Content))
	for i, b := range result.Content {
		blocks[i] = b
		if b.IsText() {
			blocks[i].Text = fn(b.Text)
		}
	}
	return &mcptypes.ToolResult{Content: blocks, IsError: result.IsError}
}

// mapParsedJSON is the second shared helper: attempt to JSON-decode a text
// block, hand the parsed value to transform, and fall back to the original
// text verbatim when the parse fails or transform declines (ok=false is
// the "null sentinel").
func mapParsedJSON(result *mcptypes.ToolResult, transform func(v any) (string, bool)) *mcptypes.ToolResult {
	return mapTextBlocks(result, func(text string) string {
		var v any
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return text
		}
		newText, ok := transform(v)
		if !ok {
			return text
		}
		return newText
	})
}

var stripJSONKeysRe = regexp.MustCompile(`"(\w+)"\s*:`)

// stripJSONKeys operates on raw text — it does not require the text to be
// JSON — replacing `"word":` with `word:` via regex.
func stripJSONKeys(toolName string, result *mcptypes.ToolResult) (*mcptypes.ToolResult, error) {
	return mapTextBlocks(result, func(text string) string {
		return stripJSONKeysRe.ReplaceAllString(text, "$1:")
	}), nil
}

// stripResultWrapper unwraps {"result": <value>} to just <value>, encoded
// as the bare string if it is one, else JSON-encoded.
func stripResultWrapper(toolName string, result *mcptypes.ToolResult) (*mcptypes.ToolResult, error) {
	return mapParsedJSON(result, func(v any) (string, bool) {
		obj, ok := v.(map[string]any)
		if !ok || len(obj) != 1 {
			return "", false
		}
		value, ok := obj["result"]
		if !ok {
			return "", false
		}
		return encodeUnwrapped(value), true
	}), nil
}

// extractJSONResults replaces the text with the value of a top-level
// "results" key, when present.
func extractJSONResults(toolName string, result *mcptypes.ToolResult) (*mcptypes.ToolResult, error) {
	return mapParsedJSON(result, func(v any) (string, bool) {
		obj, ok := v.(map[string]any)
		if !ok {
			return "", false
		}
		value, ok := obj["results"]
		if !ok {
			return "", false
		}
		return encodeUnwrapped(value), true
	}), nil
}

func encodeUnwrapped(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// toJSON5 re-serializes any parseable JSON value in a permissive format
// that drops quotes around identifier-shaped object keys.
func toJSON5(toolName string, result *mcptypes.ToolResult) (*mcptypes.ToolResult, error) {
	return mapParsedJSON(result, func(v any) (string, bool) {
		return encodeJSON5(v), true
	}), nil
}

func encodeJSON5(v any) string {
	var sb strings.Builder
	writeJSON5(&sb, v)
	return sb.String()
}

func writeJSON5(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case map[string]any:
		sb.WriteByte('{')
		keys := sortedKeys(val)
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeJSON5Key(sb, k)
			sb.WriteString(": ")
			writeJSON5(sb, val[k])
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeJSON5(sb, item)
		}
		sb.WriteByte(']')
	case string:
		sb.WriteString(strconv.Quote(val))
	case nil:
		sb.WriteString("null")
	default:
		b, err := json.Marshal(val)
		if err != nil {
			sb.WriteString("null")
			return
		}
		sb.Write(b)
	}
}

func writeJSON5Key(sb *strings.Builder, key string) {
	if isIdentifier(key) {
		sb.WriteString(key)
		return
	}
	sb.WriteString(strconv.Quote(key))
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case i == 0 && (unicode.IsLetter(r) || r == '_' || r == '$'):
		case i > 0 && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$'):
		default:
			return false
		}
	}
	return true
}

// toToon re-serializes a non-null object or array in a compact,
// indentation-based format; arrays of uniform flat objects render as a
// tabular block with a header row to avoid repeating keys per element.
func toToon(toolName string, result *mcptypes.ToolResult) (*mcptypes.ToolResult, error) {
	return mapParsedJSON(result, func(v any) (string, bool) {
		switch v.(type) {
		case map[string]any, []any:
			return encodeToon(v), true
		default:
			return "", false
		}
	}), nil
}

func encodeToon(v any) string {
	var sb strings.Builder
	switch val := v.(type) {
	case map[string]any:
		writeToonObject(&sb, val, 0)
	case []any:
		writeToonArray(&sb, "", val, 0)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeToonObject(sb *strings.Builder, obj map[string]any, indent int) {
	for _, k := range sortedKeys(obj) {
		writeToonField(sb, k, obj[k], indent)
	}
}

func writeToonField(sb *strings.Builder, key string, v any, indent int) {
	switch val := v.(type) {
	case map[string]any:
		sb.WriteString(pad(indent))
		sb.WriteString(key)
		sb.WriteString(":\n")
		writeToonObject(sb, val, indent+1)
	case []any:
		writeToonArray(sb, key, val, indent)
	default:
		sb.WriteString(pad(indent))
		sb.WriteString(key)
		sb.WriteString(": ")
		sb.WriteString(scalarToon(val))
		sb.WriteByte('\n')
	}
}

func writeToonArray(sb *strings.Builder, key string, items []any, indent int) {
	if header, ok := uniformObjectFields(items); ok {
		sb.WriteString(pad(indent))
		sb.WriteString(key)
		fmt.Fprintf(sb, "[%d]{%s}:\n", len(items), strings.Join(header, ","))
		for _, item := range items {
			obj := item.(map[string]any)
			row := make([]string, len(header))
			for i, h := range header {
				row[i] = scalarToon(obj[h])
			}
			sb.WriteString(pad(indent + 1))
			sb.WriteString(strings.Join(row, ","))
			sb.WriteByte('\n')
		}
		return
	}

	sb.WriteString(pad(indent))
	fmt.Fprintf(sb, "%s[%d]:\n", key, len(items))
	for _, item := range items {
		switch it := item.(type) {
		case map[string]any:
			writeToonObject(sb, it, indent+1)
		case []any:
			writeToonArray(sb, "", it, indent+1)
		default:
			sb.WriteString(pad(indent + 1))
			sb.WriteString(scalarToon(it))
			sb.WriteByte('\n')
		}
	}
}

// uniformObjectFields reports whether every item is a flat object (no
// nested object/array values) sharing the exact same key set, and if so
// returns that key set sorted — the condition for tabular rendering.
func uniformObjectFields(items []any) ([]string, bool) {
	if len(items) == 0 {
		return nil, false
	}
	first, ok := items[0].(map[string]any)
	if !ok {
		return nil, false
	}
	keys := sortedKeys(first)
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok || len(obj) != len(keys) {
			return nil, false
		}
		for _, k := range keys {
			val, present := obj[k]
			if !present {
				return nil, false
			}
			switch val.(type) {
			case map[string]any, []any:
				return nil, false
			}
		}
	}
	return keys, true
}

func scalarToon(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

func pad(indent int) string {
	return strings.Repeat("  ", indent)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
