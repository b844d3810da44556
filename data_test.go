package tmx

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func encodeGIDs(t *testing.T, compression string, gids []uint32) string {
	t.Helper()

	raw := make([]byte, 4*len(gids))
	for i, gid := range gids {
		binary.LittleEndian.PutUint32(raw[4*i:], gid)
	}

	var buf bytes.Buffer
	var w io.WriteCloser
	switch compression {
	case "":
		buf.Write(raw)
	case "gzip":
		w = gzip.NewWriter(&buf)
	case "zlib":
		w = zlib.NewWriter(&buf)
	case "zstd":
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			t.Fatal(err)
		}
		w = zw
	default:
		t.Fatalf("unknown compression %q", compression)
	}
	if w != nil {
		if _, err := w.Write(raw); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeBase64Cells(t *testing.T) {
	gids := []uint32{1, 0, flipHorizontal | 7, flipVertical | flipDiagonal | 2}

	for _, compression := range []string{"", "gzip", "zlib", "zstd"} {
		name := compression
		if name == "" {
			name = "uncompressed"
		}
		t.Run(name, func(t *testing.T) {
			text := encodeGIDs(t, compression, gids)
			cells, err := decodeCells("base64", compression, text, len(gids))
			if err != nil {
				t.Fatalf("decodeCells: %v", err)
			}

			if cells[0].GID != 1 || !cells[1].Empty() {
				t.Errorf("cells = %+v", cells[:2])
			}
			if cells[2].GID != 7 || !cells[2].FlippedHorizontally {
				t.Errorf("cell 2 = %+v", cells[2])
			}
			c := cells[3]
			if c.GID != 2 || !c.FlippedVertically || !c.FlippedDiagonally || c.FlippedHorizontally {
				t.Errorf("cell 3 = %+v", c)
			}
		})
	}
}

func TestDecodeCSVCells(t *testing.T) {
	text := "\n1,2,\n3,4\n"
	cells, err := decodeCells("csv", "", text, 4)
	if err != nil {
		t.Fatalf("decodeCells: %v", err)
	}
	for i, want := range []GID{1, 2, 3, 4} {
		if cells[i].GID != want {
			t.Errorf("cell %d GID = %d, want %d", i, cells[i].GID, want)
		}
	}
}

func TestDecodeCellsErrors(t *testing.T) {
	if _, err := decodeCells("hex", "", "ff", 1); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("err = %v, want ErrUnknownEncoding", err)
	}
	if _, err := decodeCells("base64", "lzma", encodeGIDs(t, "", []uint32{1}), 1); !errors.Is(err, ErrUnknownCompression) {
		t.Errorf("err = %v, want ErrUnknownCompression", err)
	}
	if _, err := decodeCells("csv", "gzip", "1", 1); !errors.Is(err, ErrUnknownCompression) {
		t.Errorf("err = %v, want ErrUnknownCompression", err)
	}
	if _, err := decodeCells("csv", "", "1,x", 2); err == nil {
		t.Error("expected error for non-numeric gid")
	}
	if _, err := decodeCells("base64", "", encodeGIDs(t, "", []uint32{1, 2}), 3); err == nil {
		t.Error("expected error for short payload")
	}
	if _, err := decodeCells("base64", "", "!!!", 1); err == nil {
		t.Error("expected error for bad base64")
	}
}

func TestParseLegacyTileElements(t *testing.T) {
	doc := `<map orientation="orthogonal" width="2" height="1" tilewidth="8" tileheight="8">
 <layer id="1" name="l" width="2" height="1">
  <data><tile gid="5"/><tile gid="0"/></data>
 </layer>
</map>`
	m, err := ParseMap(strings.NewReader(doc), "")
	if err != nil {
		t.Fatalf("ParseMap: %v", err)
	}
	l := m.Layers[0].(*TileLayer)
	if l.Cells[0].GID != 5 || !l.Cells[1].Empty() {
		t.Errorf("cells = %+v", l.Cells)
	}
}

func TestDecodeCellFlags(t *testing.T) {
	c := decodeCell(flipHorizontal | flipVertical | flipDiagonal | rotateHex120 | 42)
	if c.GID != 42 {
		t.Errorf("GID = %d, want 42", c.GID)
	}
	if !c.FlippedHorizontally || !c.FlippedVertically || !c.FlippedDiagonally || !c.RotatedHex120 {
		t.Errorf("flags not all set: %+v", c)
	}
}
