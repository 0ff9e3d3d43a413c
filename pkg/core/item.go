package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Item is an opaque upstream record. Only the identifier and the category
// tags are interpreted; every other field is carried through untouched.
type Item struct {
	ID           string
	CategoryTags []string
	// Catalog is set by the catalog client that produced the item.
	Catalog Catalog
	// Fields holds the remaining upstream attributes.
	Fields map[string]any
}

const (
	fieldID      = "id"
	fieldTags    = "categoryTags"
	fieldCatalog = "catalog"
)

// UnmarshalJSON decodes an upstream item. Ids may be JSON strings or
// numbers. Tags may be ids or objects carrying an "id" attribute.
func (i *Item) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("item is not an object")
	}

	*i = Item{}
	if v, ok := raw[fieldID]; ok {
		i.ID = scalarString(v)
		delete(raw, fieldID)
	}
	if v, ok := raw[fieldTags]; ok {
		i.CategoryTags = tagIDs(v)
		delete(raw, fieldTags)
	}
	if v, ok := raw[fieldCatalog].(string); ok {
		var c Catalog
		if err := c.UnmarshalText([]byte(v)); err == nil {
			i.Catalog = c
			delete(raw, fieldCatalog)
		}
	}
	if len(raw) > 0 {
		i.Fields = raw
	}
	return nil
}

// MarshalJSON flattens the item back into a single object. Keys are emitted
// in sorted order so equal items always encode to equal bytes.
func (i Item) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(i.Fields)+3)
	for k, v := range i.Fields {
		out[k] = v
	}
	out[fieldID] = i.ID
	tags := i.CategoryTags
	if tags == nil {
		tags = []string{}
	}
	out[fieldTags] = tags
	if i.Catalog != 0 {
		out[fieldCatalog] = i.Catalog
	}
	return json.Marshal(out)
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func tagIDs(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(list))
	for _, entry := range list {
		if obj, ok := entry.(map[string]any); ok {
			entry = obj[fieldID]
		}
		if id := strings.TrimSpace(scalarString(entry)); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// TagSet is an ordered, duplicate free set of tag ids. The first element is
// used as the coarse server-side filter.
type TagSet []string

// ParseTags parses a comma-delimited tag id list. Blank entries and
// duplicates are dropped, order of first appearance is kept.
func ParseTags(s string) TagSet {
	return NewTagSet(strings.Split(s, ",")...)
}

// NewTagSet builds a TagSet from raw ids.
func NewTagSet(ids ...string) TagSet {
	set := make(TagSet, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		set = append(set, id)
	}
	return set
}

// First returns the representative tag, or "" for an empty set.
func (t TagSet) First() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

// SatisfiedBy reports whether every tag in t appears in tags. The empty set
// is satisfied by anything.
func (t TagSet) SatisfiedBy(tags []string) bool {
	if len(t) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		have[tag] = struct{}{}
	}
	for _, want := range t {
		if _, ok := have[want]; !ok {
			return false
		}
	}
	return true
}

func (t TagSet) String() string {
	return strings.Join(t, ",")
}
