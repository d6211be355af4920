package fetcher

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fastnear/nearflat/internal/coretypes"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/exp/slices"
)

// DecodeArchive decodes a gzipped tar bundle of JSON-encoded blocks,
// returning them sorted ascending by height. Any tar or JSON error is
// returned verbatim for the caller to retry (the loop in fetcher.go treats
// any error from this function as a transport-class failure).
func DecodeArchive(raw []byte) ([]coretypes.BlockWithTxHashes, error) {
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	var blocks []coretypes.BlockWithTxHashes
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("reading tar entry %s: %w", hdr.Name, err)
		}
		var block coretypes.BlockWithTxHashes
		if err := json.Unmarshal(body, &block); err != nil {
			return nil, fmt.Errorf("decoding block json in %s: %w", hdr.Name, err)
		}
		blocks = append(blocks, block)
	}

	slices.SortFunc(blocks, func(a, b coretypes.BlockWithTxHashes) bool {
		return a.Block.Header.Height < b.Block.Header.Height
	})
	return blocks, nil
}
