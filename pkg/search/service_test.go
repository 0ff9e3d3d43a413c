package search

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/rubiojr/reposearch/pkg/core"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected core.Query
		hasError bool
	}{
		{
			name:  "basic query",
			query: "text=food&tags=1,2&page=2",
			expected: core.Query{
				Text: "food",
				Tags: core.TagSet{"1", "2"},
				Page: 2,
			},
		},
		{
			name:  "q alias",
			query: "q=ocean",
			expected: core.Query{
				Text: "ocean",
				Tags: core.TagSet{},
				Page: 1,
			},
		},
		{
			name:  "repeated and messy tags",
			query: "tags=3,%203,,4&tags=5",
			expected: core.Query{
				Tags: core.TagSet{"3", "4", "5"},
				Page: 1,
			},
		},
		{
			name:  "defaults when no params",
			query: "",
			expected: core.Query{
				Tags: core.TagSet{},
				Page: 1,
			},
		},
		{
			name:  "non positive page defaults to 1",
			query: "text=x&page=0",
			expected: core.Query{
				Text: "x",
				Tags: core.TagSet{},
				Page: 1,
			},
		},
		{
			name:     "invalid page returns error",
			query:    "text=x&page=two",
			hasError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("Failed to parse query string: %v", err)
			}

			q, err := ParseQuery(values)

			if tt.hasError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}

			if q.Text != tt.expected.Text {
				t.Errorf("Text: expected %q, got %q", tt.expected.Text, q.Text)
			}

			if q.Page != tt.expected.Page {
				t.Errorf("Page: expected %d, got %d", tt.expected.Page, q.Page)
			}

			if len(q.Tags) != len(tt.expected.Tags) {
				t.Errorf("Tags length: expected %d, got %d", len(tt.expected.Tags), len(q.Tags))
			} else {
				for i, tag := range tt.expected.Tags {
					if q.Tags[i] != tag {
						t.Errorf("Tags[%d]: expected %q, got %q", i, tag, q.Tags[i])
					}
				}
			}

			if q.Continuation != core.DefaultContinuation() {
				t.Errorf("Continuation: expected default, got %+v", q.Continuation)
			}
		})
	}
}

func TestNewServiceFromRegistry(t *testing.T) {
	registry := core.NewRegistry()
	if err := registry.Register(newFakeCatalog(core.ServiceCatalog)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := NewServiceFromRegistry(registry); err == nil {
		t.Fatal("Expected configuration error for missing resource catalog")
	}

	if err := registry.Register(newFakeCatalog(core.ResourceCatalog)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	service, err := NewServiceFromRegistry(registry)
	if err != nil {
		t.Fatalf("NewServiceFromRegistry failed: %v", err)
	}
	if service == nil {
		t.Error("NewServiceFromRegistry returned nil")
	}
}

func ExampleParseQuery() {
	values, _ := url.ParseQuery("text=food&tags=1,2&page=3")
	q, err := ParseQuery(values)

	if err != nil {
		panic(err)
	}

	fmt.Println("Text:", q.Text)
	fmt.Println("Tags:", q.Tags)
	fmt.Println("Page:", q.Page)

	// Output:
	// Text: food
	// Tags: 1,2
	// Page: 3
}

func ExampleMerge() {
	services := core.MatchResult{
		Items:       []core.Item{{ID: "s1"}, {ID: "s2"}},
		ReachedPage: 1,
	}
	resources := core.MatchResult{
		Items:       []core.Item{{ID: "r1"}},
		ReachedPage: 1,
	}

	page := Merge(services, resources, 2)
	for _, item := range page.Items {
		fmt.Println(item.ID)
	}
	fmt.Println("service cursor:", page.ServiceCursorID)
	fmt.Println("resource cursor:", page.ResourceCursorID)
	fmt.Println("last page:", page.IsLastPage)

	// Output:
	// s1
	// r1
	// service cursor: s1
	// resource cursor: r1
	// last page: false
}
