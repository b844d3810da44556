// Package tmx parses TMX tile map documents, the XML format written by the
// Tiled map editor, into an in-memory object graph. External tilesets (TSX
// files) referenced by a map are resolved relative to the map's directory.
package tmx

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ParseMapFile parses the TMX file with the given name and returns the
// fully decoded map. External tilesets are loaded relative to the file's
// directory.
func ParseMapFile(filename string) (*Map, error) {
	if filename == "" {
		return nil, errors.New("tmx: empty file name")
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("tmx: open map: %w", err)
	}
	defer f.Close()

	return ParseMap(f, filepath.Dir(filename))
}

// ParseMap parses a TMX document from r. baseDir anchors the relative
// paths of external tilesets and images referenced by the document.
func ParseMap(r io.Reader, baseDir string) (*Map, error) {
	var x xmlMap
	if err := xml.NewDecoder(r).Decode(&x); err != nil {
		return nil, fmt.Errorf("tmx: parse map: %w", err)
	}
	return newMapParser(baseDir).buildMap(&x)
}

// ParseTilesetFile parses a standalone TSX tileset document. The returned
// tileset has no FirstGID; that value only exists in the context of a map.
func ParseTilesetFile(filename string) (*Tileset, error) {
	if filename == "" {
		return nil, errors.New("tmx: empty file name")
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("tmx: open tileset: %w", err)
	}
	defer f.Close()

	return ParseTileset(f, filepath.Dir(filename))
}

// ParseTileset parses a TSX document from r.
func ParseTileset(r io.Reader, baseDir string) (*Tileset, error) {
	x, err := decodeTSX(r)
	if err != nil {
		return nil, fmt.Errorf("tmx: parse tileset: %w", err)
	}
	return newMapParser(baseDir).convertTileset(x)
}
