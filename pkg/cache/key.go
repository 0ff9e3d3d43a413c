package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/rubiojr/reposearch/pkg/core"
)

type canonicalQuery struct {
	Page int      `json:"page"`
	Tags []string `json:"tags"`
	Text string   `json:"text"`
}

// Key returns the content hash of one output page request. Tag order,
// duplicate tags and surrounding whitespace in text do not change the key.
func Key(text string, tags core.TagSet, page int) string {
	sorted := []string(core.NewTagSet(tags...))
	sort.Strings(sorted)

	// Marshalling a struct of strings and ints cannot fail.
	b, _ := json.Marshal(canonicalQuery{
		Page: page,
		Tags: sorted,
		Text: strings.TrimSpace(text),
	})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
