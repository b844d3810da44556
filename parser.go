package tmx

import (
	"encoding/xml"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// mapParser turns the raw XML document tree into the public object graph.
// It resolves external tilesets relative to baseDir and caches them so a
// TSX referenced by several maps in one call is read once.
type mapParser struct {
	baseDir  string
	external map[string]*xmlTileset
}

func newMapParser(baseDir string) *mapParser {
	return &mapParser{
		baseDir:  baseDir,
		external: make(map[string]*xmlTileset),
	}
}

func (p *mapParser) buildMap(x *xmlMap) (*Map, error) {
	m := &Map{
		Version:         x.Version,
		TiledVersion:    x.TiledVersion,
		Class:           x.Class,
		Width:           x.Width,
		Height:          x.Height,
		TileWidth:       x.TileWidth,
		TileHeight:      x.TileHeight,
		HexSideLength:   x.HexSideLength,
		ParallaxOriginX: x.ParallaxOriginX,
		ParallaxOriginY: x.ParallaxOriginY,
		Infinite:        x.Infinite,
		NextLayerID:     x.NextLayerID,
		NextObjectID:    x.NextObjectID,
	}

	switch Orientation(x.Orientation) {
	case Orthogonal, Isometric, Staggered, Hexagonal:
		m.Orientation = Orientation(x.Orientation)
	default:
		return nil, fmt.Errorf("tmx: unknown orientation %q", x.Orientation)
	}

	switch RenderOrder(x.RenderOrder) {
	case RightDown, RightUp, LeftDown, LeftUp:
		m.RenderOrder = RenderOrder(x.RenderOrder)
	case "":
		m.RenderOrder = RightDown
	default:
		return nil, fmt.Errorf("tmx: unknown render order %q", x.RenderOrder)
	}

	switch StaggerAxis(x.StaggerAxis) {
	case StaggerX, StaggerY, "":
		m.StaggerAxis = StaggerAxis(x.StaggerAxis)
	default:
		return nil, fmt.Errorf("tmx: unknown stagger axis %q", x.StaggerAxis)
	}

	switch StaggerIndex(x.StaggerIndex) {
	case StaggerEven, StaggerOdd, "":
		m.StaggerIndex = StaggerIndex(x.StaggerIndex)
	default:
		return nil, fmt.Errorf("tmx: unknown stagger index %q", x.StaggerIndex)
	}

	if x.BackgroundColor != "" {
		c, err := ParseColor(x.BackgroundColor)
		if err != nil {
			return nil, err
		}
		m.BackgroundColor = &c
	}

	m.Properties = convertProperties(x.Props)

	for i := range x.Tilesets {
		ts, err := p.convertTileset(&x.Tilesets[i])
		if err != nil {
			return nil, err
		}
		m.Tilesets = append(m.Tilesets, ts)
	}
	sort.Slice(m.Tilesets, func(i, j int) bool {
		return m.Tilesets[i].FirstGID < m.Tilesets[j].FirstGID
	})

	for _, raw := range x.layers {
		layer, err := p.convertLayer(raw, m)
		if err != nil {
			return nil, err
		}
		m.Layers = append(m.Layers, layer)
	}

	return m, nil
}

func (p *mapParser) convertLayer(raw any, m *Map) (Layer, error) {
	switch x := raw.(type) {
	case *xmlTileLayer:
		return p.convertTileLayer(x, m)
	case *xmlObjectGroup:
		return p.convertObjectGroup(x)
	case *xmlImageLayer:
		return p.convertImageLayer(x)
	case *xmlGroup:
		return p.convertGroup(x, m)
	default:
		return nil, fmt.Errorf("tmx: unexpected layer node %T", raw)
	}
}

func (p *mapParser) convertTileLayer(x *xmlTileLayer, m *Map) (*TileLayer, error) {
	l := &TileLayer{
		LayerInfo: x.header.info(),
		Width:     x.Width,
		Height:    x.Height,
	}
	l.Properties = convertProperties(x.Props)

	// Older documents omit the layer size; fall back to the map size.
	if l.Width == 0 {
		l.Width = m.Width
	}
	if l.Height == 0 {
		l.Height = m.Height
	}

	if x.Data == nil {
		return nil, fmt.Errorf("tmx: layer %q has no data", l.Name)
	}

	if len(x.Data.Chunks) > 0 {
		for i := range x.Data.Chunks {
			ch := &x.Data.Chunks[i]
			cells, err := decodeChunk(x.Data, ch)
			if err != nil {
				return nil, fmt.Errorf("tmx: layer %q: %w", l.Name, err)
			}
			l.Chunks = append(l.Chunks, Chunk{
				X: ch.X, Y: ch.Y,
				Width: ch.Width, Height: ch.Height,
				Cells: cells,
			})
		}
		return l, nil
	}

	// An empty layer of an infinite map carries no chunks and no payload.
	if m.Infinite && len(x.Data.Tiles) == 0 && strings.TrimSpace(x.Data.Text) == "" {
		return l, nil
	}

	count := l.Width * l.Height
	if x.Data.Encoding == "" {
		// Legacy plain-XML encoding: one <tile> element per cell.
		if len(x.Data.Tiles) != count {
			return nil, fmt.Errorf("tmx: layer %q: got %d tile elements, want %d", l.Name, len(x.Data.Tiles), count)
		}
		l.Cells = make([]Cell, count)
		for i, t := range x.Data.Tiles {
			l.Cells[i] = decodeCell(t.GID)
		}
		return l, nil
	}

	cells, err := decodeCells(x.Data.Encoding, x.Data.Compression, x.Data.Text, count)
	if err != nil {
		return nil, fmt.Errorf("tmx: layer %q: %w", l.Name, err)
	}
	l.Cells = cells
	return l, nil
}

func decodeChunk(data *xmlData, ch *xmlChunk) ([]Cell, error) {
	count := ch.Width * ch.Height
	if data.Encoding == "" {
		if len(ch.Tiles) != count {
			return nil, fmt.Errorf("chunk (%d,%d): got %d tile elements, want %d", ch.X, ch.Y, len(ch.Tiles), count)
		}
		cells := make([]Cell, count)
		for i, t := range ch.Tiles {
			cells[i] = decodeCell(t.GID)
		}
		return cells, nil
	}
	return decodeCells(data.Encoding, data.Compression, ch.Text, count)
}

func (p *mapParser) convertObjectGroup(x *xmlObjectGroup) (*ObjectGroup, error) {
	g := &ObjectGroup{
		LayerInfo: x.header.info(),
		DrawOrder: TopDown,
	}
	g.Properties = convertProperties(x.Props)

	switch DrawOrder(x.DrawOrder) {
	case TopDown, IndexOrder:
		g.DrawOrder = DrawOrder(x.DrawOrder)
	case "":
	default:
		return nil, fmt.Errorf("tmx: unknown draw order %q", x.DrawOrder)
	}

	if x.Color != "" {
		c, err := ParseColor(x.Color)
		if err != nil {
			return nil, err
		}
		g.Color = &c
	}

	for i := range x.Objects {
		o, err := p.convertObject(&x.Objects[i])
		if err != nil {
			return nil, fmt.Errorf("tmx: object group %q: %w", g.Name, err)
		}
		g.Objects = append(g.Objects, o)
	}
	return g, nil
}

func (p *mapParser) convertObject(x *xmlObject) (*Object, error) {
	o := &Object{
		ID:       x.ID,
		Name:     x.Name,
		Type:     x.Type,
		X:        x.X,
		Y:        x.Y,
		Width:    x.Width,
		Height:   x.Height,
		Rotation: x.Rotation,
		Visible:  true,
		Template: x.Template,
	}
	if x.Class != "" {
		o.Type = x.Class
	}
	if x.Visible != nil {
		o.Visible = *x.Visible != 0
	}
	if x.Props != nil {
		o.Properties = convertProperties(*x.Props)
	}

	switch {
	case x.GID != nil:
		o.Kind = TileObject
		o.Cell = decodeCell(*x.GID)
	case x.Ellipse != nil:
		o.Kind = EllipseObject
	case x.Point != nil:
		o.Kind = PointObject
	case x.Polygon != nil:
		pts, err := parsePoints(x.Polygon.Points)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", o.ID, err)
		}
		o.Kind = PolygonObject
		o.Points = pts
	case x.Polyline != nil:
		pts, err := parsePoints(x.Polyline.Points)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", o.ID, err)
		}
		o.Kind = PolylineObject
		o.Points = pts
	case x.Text != nil:
		o.Kind = TextObject
		t, err := convertText(x.Text)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", o.ID, err)
		}
		o.Text = t
	default:
		o.Kind = RectangleObject
	}
	return o, nil
}

// parsePoints parses the "x0,y0 x1,y1 ..." form used by polygon and
// polyline elements.
func parsePoints(s string) ([]orb.Point, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty points list")
	}
	pts := make([]orb.Point, 0, len(fields))
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return nil, fmt.Errorf("bad point %q", f)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("bad point %q", f)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("bad point %q", f)
		}
		pts = append(pts, orb.Point{x, y})
	}
	return pts, nil
}

func convertText(x *xmlText) (*Text, error) {
	t := &Text{
		Value:      x.Value,
		FontFamily: x.FontFamily,
		PixelSize:  16,
		Wrap:       x.Wrap != 0,
		Bold:       x.Bold != 0,
		Italic:     x.Italic != 0,
		Underline:  x.Underline != 0,
		Strikeout:  x.Strikeout != 0,
		Kerning:    true,
		HAlign:     "left",
		VAlign:     "top",
	}
	if t.FontFamily == "" {
		t.FontFamily = "sans-serif"
	}
	if x.PixelSize != nil {
		t.PixelSize = *x.PixelSize
	}
	if x.Kerning != nil {
		t.Kerning = *x.Kerning != 0
	}
	if x.HAlign != "" {
		t.HAlign = x.HAlign
	}
	if x.VAlign != "" {
		t.VAlign = x.VAlign
	}
	if x.Color != "" {
		c, err := ParseColor(x.Color)
		if err != nil {
			return nil, err
		}
		t.Color = &c
	}
	return t, nil
}

func (p *mapParser) convertImageLayer(x *xmlImageLayer) (*ImageLayer, error) {
	l := &ImageLayer{
		LayerInfo: x.header.info(),
		RepeatX:   x.RepeatX,
		RepeatY:   x.RepeatY,
	}
	l.Properties = convertProperties(x.Props)
	if x.Image != nil {
		img, err := convertImage(x.Image)
		if err != nil {
			return nil, fmt.Errorf("tmx: image layer %q: %w", l.Name, err)
		}
		l.Image = img
	}
	return l, nil
}

func (p *mapParser) convertGroup(x *xmlGroup, m *Map) (*GroupLayer, error) {
	g := &GroupLayer{LayerInfo: x.header.info()}
	g.Properties = convertProperties(x.Props)
	for _, raw := range x.children {
		layer, err := p.convertLayer(raw, m)
		if err != nil {
			return nil, err
		}
		g.Layers = append(g.Layers, layer)
	}
	return g, nil
}

func (p *mapParser) convertTileset(x *xmlTileset) (*Tileset, error) {
	firstGID := x.FirstGID
	source := x.Source

	if source != "" {
		ext, err := p.loadExternalTileset(source)
		if err != nil {
			return nil, err
		}
		x = ext
	}

	ts := &Tileset{
		FirstGID:        firstGID,
		Source:          source,
		Name:            x.Name,
		Class:           x.Class,
		TileWidth:       x.TileWidth,
		TileHeight:      x.TileHeight,
		Spacing:         x.Spacing,
		Margin:          x.Margin,
		TileCount:       x.TileCount,
		Columns:         x.Columns,
		ObjectAlignment: x.ObjectAlignment,
	}
	if x.TileOffset != nil {
		ts.TileOffset = image.Pt(x.TileOffset.X, x.TileOffset.Y)
	}
	ts.Properties = convertProperties(x.Props)

	if x.Image != nil {
		img, err := convertImage(x.Image)
		if err != nil {
			return nil, fmt.Errorf("tmx: tileset %q: %w", ts.Name, err)
		}
		ts.Image = img
	}

	// Derive the column count when the document predates the attribute.
	if ts.Columns == 0 && ts.Image != nil && ts.TileWidth > 0 {
		ts.Columns = (ts.Image.Width - 2*ts.Margin + ts.Spacing) / (ts.TileWidth + ts.Spacing)
	}
	if ts.TileCount == 0 && ts.Columns > 0 && ts.Image != nil && ts.TileHeight > 0 {
		rows := (ts.Image.Height - 2*ts.Margin + ts.Spacing) / (ts.TileHeight + ts.Spacing)
		ts.TileCount = ts.Columns * rows
	}

	for _, xt := range x.Terrains {
		ts.Terrains = append(ts.Terrains, Terrain{
			Name:       xt.Name,
			Tile:       xt.Tile,
			Properties: convertProperties(xt.Props),
		})
	}

	for i := range x.Tiles {
		tile, err := p.convertTilesetTile(&x.Tiles[i], ts)
		if err != nil {
			return nil, fmt.Errorf("tmx: tileset %q: %w", ts.Name, err)
		}
		ts.Tiles = append(ts.Tiles, *tile)
	}

	return ts, nil
}

func (p *mapParser) convertTilesetTile(x *xmlTilesetTile, ts *Tileset) (*TilesetTile, error) {
	tile := &TilesetTile{
		ID:          x.ID,
		Class:       x.Type,
		Probability: x.Probability,
		Terrain:     [4]int{-1, -1, -1, -1},
	}
	if x.Class != "" {
		tile.Class = x.Class
	}
	tile.Properties = convertProperties(x.Props)

	if x.Terrain != "" {
		corners := strings.Split(x.Terrain, ",")
		if len(corners) != 4 {
			return nil, fmt.Errorf("tile %d: bad terrain %q", x.ID, x.Terrain)
		}
		for i, c := range corners {
			if c == "" {
				continue
			}
			v, err := strconv.Atoi(c)
			if err != nil || v < 0 || v >= len(ts.Terrains) {
				return nil, fmt.Errorf("tile %d: bad terrain %q", x.ID, x.Terrain)
			}
			tile.Terrain[i] = v
		}
	}

	if x.Image != nil {
		img, err := convertImage(x.Image)
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", x.ID, err)
		}
		tile.Image = img
	}

	for _, f := range x.Animation {
		tile.Animation = append(tile.Animation, Frame{
			TileID:   f.TileID,
			Duration: time.Duration(f.Duration) * time.Millisecond,
		})
	}

	if x.ObjectGroup != nil {
		og, err := p.convertObjectGroup(x.ObjectGroup)
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", x.ID, err)
		}
		tile.ObjectGroup = og
	}

	return tile, nil
}

// loadExternalTileset reads and caches a TSX document referenced from a map.
func (p *mapParser) loadExternalTileset(source string) (*xmlTileset, error) {
	path := filepath.Clean(filepath.Join(p.baseDir, filepath.FromSlash(source)))
	if cached, ok := p.external[path]; ok {
		return cached, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tmx: external tileset %q: %w", source, err)
	}
	defer f.Close()

	x, err := decodeTSX(f)
	if err != nil {
		return nil, fmt.Errorf("tmx: external tileset %q: %w", source, err)
	}
	p.external[path] = x
	return x, nil
}

func decodeTSX(r io.Reader) (*xmlTileset, error) {
	var x xmlTileset
	if err := xml.NewDecoder(r).Decode(&x); err != nil {
		return nil, err
	}
	if x.Source != "" {
		return nil, fmt.Errorf("tileset references another tileset %q", x.Source)
	}
	return &x, nil
}

func convertImage(x *xmlImage) (*Image, error) {
	img := &Image{
		Source: x.Source,
		Format: x.Format,
		Width:  x.Width,
		Height: x.Height,
	}
	if x.Trans != "" {
		c, err := ParseColor(x.Trans)
		if err != nil {
			return nil, err
		}
		img.Trans = &c
	}
	return img, nil
}

func convertProperties(x xmlProperties) Properties {
	if len(x.Props) == 0 {
		return nil
	}
	props := make(Properties, 0, len(x.Props))
	for _, xp := range x.Props {
		value := xp.Chardata
		if xp.Value != nil {
			value = *xp.Value
		}
		props = append(props, Property{
			Name:  xp.Name,
			Type:  xp.Type,
			Value: value,
		})
	}
	return props
}
