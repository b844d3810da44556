package tmx

import (
	"image"
	"time"

	"github.com/paulmach/orb"
)

// Orientation is the tile arrangement of a map.
type Orientation string

const (
	Orthogonal Orientation = "orthogonal"
	Isometric  Orientation = "isometric"
	Staggered  Orientation = "staggered"
	Hexagonal  Orientation = "hexagonal"
)

// RenderOrder is the order in which tiles of a tile layer are drawn.
type RenderOrder string

const (
	RightDown RenderOrder = "right-down"
	RightUp   RenderOrder = "right-up"
	LeftDown  RenderOrder = "left-down"
	LeftUp    RenderOrder = "left-up"
)

// StaggerAxis determines which axis is staggered for staggered and
// hexagonal maps.
type StaggerAxis string

const (
	StaggerX StaggerAxis = "x"
	StaggerY StaggerAxis = "y"
)

// StaggerIndex determines whether the even or odd rows/columns are shifted.
type StaggerIndex string

const (
	StaggerEven StaggerIndex = "even"
	StaggerOdd  StaggerIndex = "odd"
)

// DrawOrder is the order in which objects of an object group are drawn.
type DrawOrder string

const (
	TopDown    DrawOrder = "topdown"
	IndexOrder DrawOrder = "index"
)

// Map is the root of a parsed TMX document.
type Map struct {
	Version      string
	TiledVersion string
	Class        string

	Orientation Orientation
	RenderOrder RenderOrder

	// Size in tiles.
	Width  int
	Height int

	// Tile size in pixels.
	TileWidth  int
	TileHeight int

	HexSideLength int
	StaggerAxis   StaggerAxis
	StaggerIndex  StaggerIndex

	ParallaxOriginX float64
	ParallaxOriginY float64

	BackgroundColor *Color
	Infinite        bool

	NextLayerID  int
	NextObjectID int

	Properties Properties
	Tilesets   []*Tileset

	// Layers of all kinds, in document order. Group layers nest.
	Layers []Layer
}

// TilesetFor returns the tileset owning the given cell, i.e. the one with
// the largest FirstGID not greater than the cell's GID. The second return
// is false for the empty cell and for GIDs beyond every tileset.
func (m *Map) TilesetFor(c Cell) (*Tileset, bool) {
	if c.GID == 0 {
		return nil, false
	}
	// Tilesets are sorted by FirstGID after parsing.
	for i := len(m.Tilesets) - 1; i >= 0; i-- {
		ts := m.Tilesets[i]
		if GID(ts.FirstGID) <= c.GID {
			if ts.TileCount > 0 && int(c.GID)-ts.FirstGID >= ts.TileCount {
				return nil, false
			}
			return ts, true
		}
	}
	return nil, false
}

// GID is a global tile ID, unique across all tilesets of a map.
// The zero GID denotes an empty cell.
type GID uint32

// Flip flags stored in the top bits of a raw GID.
const (
	flipHorizontal = 0x80000000
	flipVertical   = 0x40000000
	flipDiagonal   = 0x20000000
	rotateHex120   = 0x10000000

	gidMask = 0x0FFFFFFF
)

// Cell is a single slot of a tile layer: a GID with its flip flags
// already separated out.
type Cell struct {
	GID GID

	FlippedHorizontally bool
	FlippedVertically   bool
	FlippedDiagonally   bool
	RotatedHex120       bool
}

// decodeCell splits a raw 32-bit GID into the tile ID and its flip flags.
func decodeCell(raw uint32) Cell {
	return Cell{
		GID:                 GID(raw & gidMask),
		FlippedHorizontally: raw&flipHorizontal != 0,
		FlippedVertically:   raw&flipVertical != 0,
		FlippedDiagonally:   raw&flipDiagonal != 0,
		RotatedHex120:       raw&rotateHex120 != 0,
	}
}

// Empty reports whether the cell holds no tile.
func (c Cell) Empty() bool {
	return c.GID == 0
}

// Tileset describes one tileset referenced by a map. For external tilesets
// Source holds the TSX path and the remaining fields come from that file.
type Tileset struct {
	FirstGID int
	Source   string

	Name  string
	Class string

	TileWidth  int
	TileHeight int
	Spacing    int
	Margin     int
	TileCount  int
	Columns    int

	ObjectAlignment string
	TileOffset      image.Point

	Image      *Image
	Properties Properties
	Terrains   []Terrain

	// Tiles holds per-tile metadata. Sparse: only tiles that carry
	// properties, animation, collision shapes or their own image appear.
	Tiles []TilesetTile
}

// LocalID converts a cell's GID into this tileset's tile ID.
func (ts *Tileset) LocalID(c Cell) int {
	return int(c.GID) - ts.FirstGID
}

// TileAt returns the metadata of the tile with the given local ID, or nil
// if the tile carries none.
func (ts *Tileset) TileAt(id int) *TilesetTile {
	for i := range ts.Tiles {
		if ts.Tiles[i].ID == id {
			return &ts.Tiles[i]
		}
	}
	return nil
}

// TileRect returns the pixel rectangle of the tile with the given local ID
// within the tileset image, honoring margin and spacing.
func (ts *Tileset) TileRect(id int) image.Rectangle {
	if ts.Columns <= 0 {
		return image.Rectangle{}
	}
	col := id % ts.Columns
	row := id / ts.Columns
	x := ts.Margin + col*(ts.TileWidth+ts.Spacing)
	y := ts.Margin + row*(ts.TileHeight+ts.Spacing)
	return image.Rect(x, y, x+ts.TileWidth, y+ts.TileHeight)
}

// TilesetTile is the optional metadata attached to a single tile of a
// tileset.
type TilesetTile struct {
	ID          int
	Class       string
	Probability float64

	// Terrain corner indices (top-left, top-right, bottom-left,
	// bottom-right) into the tileset's Terrains. -1 means no terrain.
	Terrain [4]int

	Properties  Properties
	Image       *Image
	Animation   []Frame
	ObjectGroup *ObjectGroup
}

// Frame is one step of a tile animation.
type Frame struct {
	TileID   int
	Duration time.Duration
}

// Terrain is a named terrain type of a tileset.
type Terrain struct {
	Name       string
	Tile       int
	Properties Properties
}

// Image is a reference to an external image file.
type Image struct {
	Source string
	Format string
	Width  int
	Height int

	// Trans is the color treated as transparent, if any.
	Trans *Color
}

// LayerInfo carries the attributes shared by every layer kind.
type LayerInfo struct {
	ID      int
	Name    string
	Class   string
	Visible bool
	Locked  bool
	Opacity float64

	OffsetX float64
	OffsetY float64

	ParallaxX float64
	ParallaxY float64

	TintColor  *Color
	Properties Properties
}

// Layer is one layer of a map. The concrete types are *TileLayer,
// *ObjectGroup, *ImageLayer and *GroupLayer.
type Layer interface {
	Info() *LayerInfo
}

// TileLayer is a grid of cells.
type TileLayer struct {
	LayerInfo

	// Size in tiles.
	Width  int
	Height int

	// Cells in row-major order, Width*Height entries. Empty for infinite
	// maps, which store their data in Chunks instead.
	Cells []Cell

	Chunks []Chunk
}

// Info implements Layer.
func (l *TileLayer) Info() *LayerInfo { return &l.LayerInfo }

// CellAt returns the cell at tile coordinates (x, y). For finite layers the
// coordinates are layer-relative; for infinite layers they are absolute and
// looked up across chunks. Out-of-range coordinates yield the empty cell.
func (l *TileLayer) CellAt(x, y int) Cell {
	if len(l.Chunks) > 0 {
		for i := range l.Chunks {
			ch := &l.Chunks[i]
			if x >= ch.X && x < ch.X+ch.Width && y >= ch.Y && y < ch.Y+ch.Height {
				return ch.Cells[(y-ch.Y)*ch.Width+(x-ch.X)]
			}
		}
		return Cell{}
	}
	if len(l.Cells) == 0 || x < 0 || x >= l.Width || y < 0 || y >= l.Height {
		return Cell{}
	}
	return l.Cells[y*l.Width+x]
}

// Chunk is one block of cells of an infinite map.
type Chunk struct {
	X      int
	Y      int
	Width  int
	Height int
	Cells  []Cell
}

// ObjectGroup is a layer holding free-form objects.
type ObjectGroup struct {
	LayerInfo

	Color     *Color
	DrawOrder DrawOrder
	Objects   []*Object
}

// Info implements Layer.
func (l *ObjectGroup) Info() *LayerInfo { return &l.LayerInfo }

// ImageLayer is a layer consisting of a single image.
type ImageLayer struct {
	LayerInfo

	Image   *Image
	RepeatX bool
	RepeatY bool
}

// Info implements Layer.
func (l *ImageLayer) Info() *LayerInfo { return &l.LayerInfo }

// GroupLayer groups other layers. Its offset, opacity and tint apply
// recursively to the nested layers.
type GroupLayer struct {
	LayerInfo

	Layers []Layer
}

// Info implements Layer.
func (l *GroupLayer) Info() *LayerInfo { return &l.LayerInfo }

// ObjectKind is the shape of an object.
type ObjectKind int

const (
	RectangleObject ObjectKind = iota
	EllipseObject
	PointObject
	PolygonObject
	PolylineObject
	TextObject
	TileObject
)

// Object is a single object of an object group.
type Object struct {
	ID   int
	Name string
	Type string

	Kind ObjectKind

	// Position and size in pixels. For tile objects (X, Y) is the
	// bottom-left corner, following the TMX convention.
	X      float64
	Y      float64
	Width  float64
	Height float64

	// Rotation in degrees, clockwise around (X, Y).
	Rotation float64

	// Cell is set for tile objects.
	Cell Cell

	Visible bool

	// Points holds the vertices of polygons and polylines, relative to
	// (X, Y).
	Points []orb.Point

	Text *Text

	// Template is the path of the object template this object was
	// instantiated from, if any. Templates are not expanded.
	Template string

	Properties Properties
}

// Polygon returns the object's polygon in absolute map coordinates. The
// ring is closed. Returns nil for non-polygon objects.
func (o *Object) Polygon() orb.Polygon {
	if o.Kind != PolygonObject || len(o.Points) == 0 {
		return nil
	}
	ring := make(orb.Ring, 0, len(o.Points)+1)
	for _, p := range o.Points {
		ring = append(ring, orb.Point{o.X + p[0], o.Y + p[1]})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// Polyline returns the object's polyline in absolute map coordinates.
// Returns nil for non-polyline objects.
func (o *Object) Polyline() orb.LineString {
	if o.Kind != PolylineObject || len(o.Points) == 0 {
		return nil
	}
	ls := make(orb.LineString, 0, len(o.Points))
	for _, p := range o.Points {
		ls = append(ls, orb.Point{o.X + p[0], o.Y + p[1]})
	}
	return ls
}

// Text holds the attributes of a text object.
type Text struct {
	Value      string
	FontFamily string
	PixelSize  int
	Wrap       bool
	Color      *Color
	Bold       bool
	Italic     bool
	Underline  bool
	Strikeout  bool
	Kerning    bool
	HAlign     string
	VAlign     string
}
