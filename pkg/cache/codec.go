package cache

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/rubiojr/reposearch/pkg/core"
)

// EncodeAll and DecodeAll are safe for concurrent use on shared instances.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// encodePage serializes a page as zstd compressed JSON.
func encodePage(page *core.CombinedPage) ([]byte, error) {
	raw, err := json.Marshal(page)
	if err != nil {
		return nil, fmt.Errorf("encoding page: %w", err)
	}
	return encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

func decodePage(data []byte) (*core.CombinedPage, error) {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing page: %w", err)
	}
	var page core.CombinedPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decoding page: %w", err)
	}
	if page.Items == nil {
		page.Items = []core.Item{}
	}
	return &page, nil
}
