package core

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFormatFields(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]any
		expected []string // strings that should be present in output
	}{
		{
			name:     "empty fields",
			fields:   map[string]any{},
			expected: []string{},
		},
		{
			name: "string fields",
			fields: map[string]any{
				"name": "soup-kitchen",
				"desc": "Weekly community meals",
			},
			expected: []string{"name: soup-kitchen", "desc: Weekly community meals"},
		},
		{
			name: "mixed types",
			fields: map[string]any{
				"count":  42,
				"active": true,
				"score":  3.14,
			},
			expected: []string{"count: 42", "active: true", "score: 3.14"},
		},
		{
			name: "long string truncation",
			fields: map[string]any{
				"long_text": strings.Repeat("a", 150),
			},
			expected: []string{"long_text: " + strings.Repeat("a", 97) + "..."},
		},
		{
			name: "multibyte truncation",
			fields: map[string]any{
				"name": strings.Repeat("ñ", 150),
			},
			expected: []string{"name: " + strings.Repeat("ñ", 97) + "..."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatFields(tt.fields)

			if len(tt.fields) == 0 {
				if result != "" {
					t.Errorf("Expected empty result for empty fields, got: %s", result)
				}
				return
			}

			if !strings.Contains(result, "Fields:") {
				t.Errorf("Expected result to contain 'Fields:', got: %s", result)
			}
			for _, expected := range tt.expected {
				if !strings.Contains(result, expected) {
					t.Errorf("Expected result to contain '%s', got: %s", expected, result)
				}
			}
		})
	}
}

func TestFormatFieldsSorted(t *testing.T) {
	result := FormatFields(map[string]any{"b": 1, "a": 2, "c": 3})

	a := strings.Index(result, "a: 2")
	b := strings.Index(result, "b: 1")
	c := strings.Index(result, "c: 3")
	if !(a < b && b < c) {
		t.Errorf("Expected keys in sorted order, got: %s", result)
	}
}

func TestChainFormatters(t *testing.T) {
	upper := FormatterFunc(func(item Item) Item {
		item.Fields = map[string]any{"title": strings.ToUpper(item.Fields["title"].(string))}
		return item
	})
	suffix := FormatterFunc(func(item Item) Item {
		item.Fields["title"] = item.Fields["title"].(string) + "!"
		return item
	})

	item := Item{ID: "7", Fields: map[string]any{"title": "soup"}}
	got := ChainFormatters(upper, nil, suffix).Format(item)

	if got.ID != "7" {
		t.Errorf("Expected ID to be preserved, got %q", got.ID)
	}
	if got.Fields["title"] != "SOUP!" {
		t.Errorf("Expected formatters applied in order, got %v", got.Fields["title"])
	}
	if Identity.Format(item).ID != "7" {
		t.Error("Identity changed the item")
	}
}

func TestTruncateKeepsRunes(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"ñandú", 5, "ñandú"},
		{"日本語のテキスト", 6, "日本語..."},
		{"aé" + strings.Repeat("x", 10), 5, "aé..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.max)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.max)
		}
	}
}
