package tmx

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Errors reported while decoding tile layer payloads.
var (
	ErrUnknownEncoding    = errors.New("tmx: unknown layer data encoding")
	ErrUnknownCompression = errors.New("tmx: unknown layer data compression")
)

// decodeCells turns the text payload of a <data> or <chunk> element into
// cells. count is the expected number of cells.
func decodeCells(encoding, compression, text string, count int) ([]Cell, error) {
	switch encoding {
	case "csv":
		if compression != "" {
			return nil, fmt.Errorf("%w: %q with csv", ErrUnknownCompression, compression)
		}
		return decodeCSVCells(text, count)
	case "base64":
		return decodeBase64Cells(compression, text, count)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}

// decodeCSVCells parses comma-separated GIDs. Tiled writes one row per
// line with a trailing comma on every line but the last, so the trailing
// commas are stripped before handing the text to encoding/csv.
func decodeCSVCells(text string, count int) ([]Cell, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(text), ",\n", "\n")
	reader := csv.NewReader(strings.NewReader(trimmed))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("tmx: csv layer data: %w", err)
	}

	cells := make([]Cell, 0, count)
	for _, record := range records {
		for _, field := range record {
			raw, err := strconv.ParseUint(strings.TrimSpace(field), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("tmx: csv layer data: bad gid %q", field)
			}
			cells = append(cells, decodeCell(uint32(raw)))
		}
	}
	if len(cells) != count {
		return nil, fmt.Errorf("tmx: csv layer data: got %d cells, want %d", len(cells), count)
	}
	return cells, nil
}

// decodeBase64Cells parses a base64 payload, decompressing it first when a
// compression is set, then reads the little-endian uint32 GID stream.
func decodeBase64Cells(compression, text string, count int) ([]Cell, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("tmx: base64 layer data: %w", err)
	}

	buf, err := decompress(compression, raw)
	if err != nil {
		return nil, err
	}

	if len(buf) != 4*count {
		return nil, fmt.Errorf("tmx: layer data: got %d bytes, want %d", len(buf), 4*count)
	}

	cells := make([]Cell, count)
	for i := range cells {
		cells[i] = decodeCell(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return cells, nil
}

func decompress(compression string, raw []byte) ([]byte, error) {
	switch compression {
	case "":
		return raw, nil
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("tmx: gzip layer data: %w", err)
		}
		defer r.Close()
		buf, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("tmx: gzip layer data: %w", err)
		}
		return buf, nil
	case "zlib":
		r, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("tmx: zlib layer data: %w", err)
		}
		defer r.Close()
		buf, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("tmx: zlib layer data: %w", err)
		}
		return buf, nil
	case "zstd":
		r, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("tmx: zstd layer data: %w", err)
		}
		defer r.Close()
		buf, err := io.ReadAll(r.IOReadCloser())
		if err != nil {
			return nil, fmt.Errorf("tmx: zstd layer data: %w", err)
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, compression)
	}
}
