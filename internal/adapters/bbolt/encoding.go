// Item blob encoding.
//
// A blob is one format byte followed by a zstd frame holding the gob encoding
// of []itemRow. The file path is the bucket key and is not repeated in rows.
//
//	version: byte (blobVersion)
//	payload: zstd(gob([]itemRow))
package bbolt

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/corey/todos/internal/ports"
)

const blobVersion byte = 1

// itemRow is the persisted form of ports.Item, minus the path.
type itemRow struct {
	Tag      string
	Message  string
	Line     int
	Column   int
	Author   string
	Issue    string
	Priority string
	Context  string
}

// zstd encoders and decoders are safe for concurrent EncodeAll/DecodeAll, so
// one of each is shared by every store.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	decoder, _ = zstd.NewReader(nil)
)

func toRows(items []ports.Item) []itemRow {
	rows := make([]itemRow, len(items))
	for i, it := range items {
		rows[i] = itemRow{
			Tag:      it.Tag.String(),
			Message:  it.Message,
			Line:     it.Line,
			Column:   it.Column,
			Author:   it.Author,
			Issue:    it.Issue,
			Priority: it.Priority.String(),
			Context:  it.Context,
		}
	}
	return rows
}

func fromRows(path string, rows []itemRow) []ports.Item {
	items := make([]ports.Item, len(rows))
	for i, r := range rows {
		prio, _ := ports.ParsePriority(r.Priority)
		items[i] = ports.Item{
			Tag:      ports.ParseTag(r.Tag),
			Message:  r.Message,
			File:     path,
			Line:     r.Line,
			Column:   r.Column,
			Author:   r.Author,
			Issue:    r.Issue,
			Priority: prio,
			Context:  r.Context,
		}
	}
	return items
}

// encodeItems builds a versioned blob for items.
func encodeItems(items []ports.Item) ([]byte, error) {
	raw, err := encodeGob(toRows(items))
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	out := make([]byte, 1, 1+len(raw)/2)
	out[0] = blobVersion
	return encoder.EncodeAll(raw, out), nil
}

// decodeItems reverses encodeItems. Any malformed blob is an error.
func decodeItems(path string, blob []byte) ([]ports.Item, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty item blob")
	}
	if blob[0] != blobVersion {
		return nil, fmt.Errorf("item blob version %d, want %d", blob[0], blobVersion)
	}
	raw, err := decoder.DecodeAll(blob[1:], nil)
	if err != nil {
		return nil, fmt.Errorf("decompress items: %w", err)
	}
	var rows []itemRow
	if err := decodeGob(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return fromRows(path, rows), nil
}

// encodeGob encodes a value using gob.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob decodes gob-encoded data into target. Target must be a pointer.
func decodeGob(data []byte, target interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(target)
}
