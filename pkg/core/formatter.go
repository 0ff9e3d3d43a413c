package core

import (
	"fmt"
	"sort"
)

// Formatter is the per-item hook applied after merging. It must return the
// same item (same ID, same catalog) and is called in output order.
type Formatter interface {
	Format(item Item) Item
}

// FormatterFunc adapts a plain function to Formatter.
type FormatterFunc func(item Item) Item

func (f FormatterFunc) Format(item Item) Item {
	return f(item)
}

// Identity leaves items untouched.
var Identity Formatter = FormatterFunc(func(item Item) Item { return item })

// ChainFormatters applies formatters left to right. Nil entries are skipped.
func ChainFormatters(formatters ...Formatter) Formatter {
	return FormatterFunc(func(item Item) Item {
		for _, f := range formatters {
			if f != nil {
				item = f.Format(item)
			}
		}
		return item
	})
}

// FormatFields formats item fields into a pretty-printed string, one
// "key: value" line per field in key order.
func FormatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := "\n  Fields:"
	for _, key := range keys {
		switch v := fields[key].(type) {
		case string:
			out += fmt.Sprintf("\n    %s: %s", key, truncate(v, 100))
		case bool, int, int64, float64:
			out += fmt.Sprintf("\n    %s: %v", key, v)
		default:
			out += fmt.Sprintf("\n    %s: %s", key, truncate(fmt.Sprintf("%v", v), 100))
		}
	}
	return out
}

// truncate shortens s to at most max runes, never splitting a character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
