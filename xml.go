package tmx

import (
	"encoding/xml"
	"fmt"
	"strconv"
)

// Raw document types. encoding/xml struct tags cover the leaf elements;
// <map> and <group> implement xml.Unmarshaler by hand because the layer
// kinds must be kept in document order, which tag-based decoding into
// per-kind slices would lose.

type xmlMap struct {
	Version         string
	TiledVersion    string
	Class           string
	Orientation     string
	RenderOrder     string
	Width           int
	Height          int
	TileWidth       int
	TileHeight      int
	HexSideLength   int
	StaggerAxis     string
	StaggerIndex    string
	ParallaxOriginX float64
	ParallaxOriginY float64
	BackgroundColor string
	Infinite        bool
	NextLayerID     int
	NextObjectID    int

	Props    xmlProperties
	Tilesets []xmlTileset

	// layers holds *xmlTileLayer, *xmlObjectGroup, *xmlImageLayer and
	// *xmlGroup nodes in document order.
	layers []any
}

func (m *xmlMap) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, a := range start.Attr {
		var err error
		switch a.Name.Local {
		case "version":
			m.Version = a.Value
		case "tiledversion":
			m.TiledVersion = a.Value
		case "class":
			m.Class = a.Value
		case "orientation":
			m.Orientation = a.Value
		case "renderorder":
			m.RenderOrder = a.Value
		case "width":
			m.Width, err = strconv.Atoi(a.Value)
		case "height":
			m.Height, err = strconv.Atoi(a.Value)
		case "tilewidth":
			m.TileWidth, err = strconv.Atoi(a.Value)
		case "tileheight":
			m.TileHeight, err = strconv.Atoi(a.Value)
		case "hexsidelength":
			m.HexSideLength, err = strconv.Atoi(a.Value)
		case "staggeraxis":
			m.StaggerAxis = a.Value
		case "staggerindex":
			m.StaggerIndex = a.Value
		case "parallaxoriginx":
			m.ParallaxOriginX, err = strconv.ParseFloat(a.Value, 64)
		case "parallaxoriginy":
			m.ParallaxOriginY, err = strconv.ParseFloat(a.Value, 64)
		case "backgroundcolor":
			m.BackgroundColor = a.Value
		case "infinite":
			var v int
			v, err = strconv.Atoi(a.Value)
			m.Infinite = v != 0
		case "nextlayerid":
			m.NextLayerID, err = strconv.Atoi(a.Value)
		case "nextobjectid":
			m.NextObjectID, err = strconv.Atoi(a.Value)
		}
		if err != nil {
			return fmt.Errorf("tmx: map: bad %s attribute %q", a.Name.Local, a.Value)
		}
	}

	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "properties":
				if err := d.DecodeElement(&m.Props, &t); err != nil {
					return err
				}
			case "tileset":
				var ts xmlTileset
				if err := d.DecodeElement(&ts, &t); err != nil {
					return err
				}
				m.Tilesets = append(m.Tilesets, ts)
			default:
				node, ok, err := decodeLayerNode(d, t)
				if err != nil {
					return err
				}
				if !ok {
					if err := d.Skip(); err != nil {
						return err
					}
					continue
				}
				m.layers = append(m.layers, node)
			}
		case xml.EndElement:
			return nil
		}
	}
}

// decodeLayerNode decodes one of the four layer elements, or reports that
// the element is not a layer.
func decodeLayerNode(d *xml.Decoder, start xml.StartElement) (any, bool, error) {
	switch start.Name.Local {
	case "layer":
		node := new(xmlTileLayer)
		err := d.DecodeElement(node, &start)
		return node, true, err
	case "objectgroup":
		node := new(xmlObjectGroup)
		err := d.DecodeElement(node, &start)
		return node, true, err
	case "imagelayer":
		node := new(xmlImageLayer)
		err := d.DecodeElement(node, &start)
		return node, true, err
	case "group":
		node := new(xmlGroup)
		err := d.DecodeElement(node, &start)
		return node, true, err
	}
	return nil, false, nil
}

// xmlLayerHeader holds the attributes common to all layer elements,
// pre-filled with the TMX defaults.
type xmlLayerHeader struct {
	ID        int
	Name      string
	Class     string
	Opacity   float64
	Visible   bool
	Locked    bool
	OffsetX   float64
	OffsetY   float64
	ParallaxX float64
	ParallaxY float64
	TintColor *Color
}

func newLayerHeader() xmlLayerHeader {
	return xmlLayerHeader{Opacity: 1, Visible: true, ParallaxX: 1, ParallaxY: 1}
}

// setAttr consumes one XML attribute. It reports whether the attribute was
// a common layer attribute.
func (h *xmlLayerHeader) setAttr(a xml.Attr) (bool, error) {
	var err error
	switch a.Name.Local {
	case "id":
		h.ID, err = strconv.Atoi(a.Value)
	case "name":
		h.Name = a.Value
	case "class":
		h.Class = a.Value
	case "opacity":
		h.Opacity, err = strconv.ParseFloat(a.Value, 64)
	case "visible":
		var v int
		v, err = strconv.Atoi(a.Value)
		h.Visible = v != 0
	case "locked":
		var v int
		v, err = strconv.Atoi(a.Value)
		h.Locked = v != 0
	case "offsetx":
		h.OffsetX, err = strconv.ParseFloat(a.Value, 64)
	case "offsety":
		h.OffsetY, err = strconv.ParseFloat(a.Value, 64)
	case "parallaxx":
		h.ParallaxX, err = strconv.ParseFloat(a.Value, 64)
	case "parallaxy":
		h.ParallaxY, err = strconv.ParseFloat(a.Value, 64)
	case "tintcolor":
		var c Color
		c, err = ParseColor(a.Value)
		h.TintColor = &c
	default:
		return false, nil
	}
	if err != nil {
		return true, fmt.Errorf("tmx: layer: bad %s attribute %q", a.Name.Local, a.Value)
	}
	return true, nil
}

func (h xmlLayerHeader) info() LayerInfo {
	return LayerInfo{
		ID:        h.ID,
		Name:      h.Name,
		Class:     h.Class,
		Visible:   h.Visible,
		Locked:    h.Locked,
		Opacity:   h.Opacity,
		OffsetX:   h.OffsetX,
		OffsetY:   h.OffsetY,
		ParallaxX: h.ParallaxX,
		ParallaxY: h.ParallaxY,
		TintColor: h.TintColor,
	}
}

type xmlTileLayer struct {
	header xmlLayerHeader
	Width  int
	Height int
	Props  xmlProperties
	Data   *xmlData
}

func (l *xmlTileLayer) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	l.header = newLayerHeader()
	for _, a := range start.Attr {
		handled, err := l.header.setAttr(a)
		if err != nil {
			return err
		}
		if handled {
			continue
		}
		switch a.Name.Local {
		case "width":
			l.Width, err = strconv.Atoi(a.Value)
		case "height":
			l.Height, err = strconv.Atoi(a.Value)
		}
		if err != nil {
			return fmt.Errorf("tmx: layer: bad %s attribute %q", a.Name.Local, a.Value)
		}
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "properties":
				if err := d.DecodeElement(&l.Props, &t); err != nil {
					return err
				}
			case "data":
				l.Data = new(xmlData)
				if err := d.DecodeElement(l.Data, &t); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

type xmlObjectGroup struct {
	header    xmlLayerHeader
	Color     string
	DrawOrder string
	Props     xmlProperties
	Objects   []xmlObject
}

func (g *xmlObjectGroup) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	g.header = newLayerHeader()
	for _, a := range start.Attr {
		ok, err := g.header.setAttr(a)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		switch a.Name.Local {
		case "color":
			g.Color = a.Value
		case "draworder":
			g.DrawOrder = a.Value
		}
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "properties":
				if err := d.DecodeElement(&g.Props, &t); err != nil {
					return err
				}
			case "object":
				var o xmlObject
				if err := d.DecodeElement(&o, &t); err != nil {
					return err
				}
				g.Objects = append(g.Objects, o)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

type xmlImageLayer struct {
	header  xmlLayerHeader
	RepeatX bool
	RepeatY bool
	Props   xmlProperties
	Image   *xmlImage
}

func (l *xmlImageLayer) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	l.header = newLayerHeader()
	for _, a := range start.Attr {
		ok, err := l.header.setAttr(a)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		switch a.Name.Local {
		case "repeatx":
			v, err := strconv.Atoi(a.Value)
			if err != nil {
				return fmt.Errorf("tmx: layer: bad repeatx attribute %q", a.Value)
			}
			l.RepeatX = v != 0
		case "repeaty":
			v, err := strconv.Atoi(a.Value)
			if err != nil {
				return fmt.Errorf("tmx: layer: bad repeaty attribute %q", a.Value)
			}
			l.RepeatY = v != 0
		}
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "properties":
				if err := d.DecodeElement(&l.Props, &t); err != nil {
					return err
				}
			case "image":
				l.Image = new(xmlImage)
				if err := d.DecodeElement(l.Image, &t); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

type xmlGroup struct {
	header   xmlLayerHeader
	Props    xmlProperties
	children []any
}

func (g *xmlGroup) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	g.header = newLayerHeader()
	for _, a := range start.Attr {
		if _, err := g.header.setAttr(a); err != nil {
			return err
		}
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "properties" {
				if err := d.DecodeElement(&g.Props, &t); err != nil {
					return err
				}
				continue
			}
			node, ok, err := decodeLayerNode(d, t)
			if err != nil {
				return err
			}
			if !ok {
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			g.children = append(g.children, node)
		case xml.EndElement:
			return nil
		}
	}
}

type xmlData struct {
	Encoding    string        `xml:"encoding,attr"`
	Compression string        `xml:"compression,attr"`
	Chunks      []xmlChunk    `xml:"chunk"`
	Tiles       []xmlDataTile `xml:"tile"`
	Text        string        `xml:",chardata"`
}

type xmlChunk struct {
	X      int           `xml:"x,attr"`
	Y      int           `xml:"y,attr"`
	Width  int           `xml:"width,attr"`
	Height int           `xml:"height,attr"`
	Tiles  []xmlDataTile `xml:"tile"`
	Text   string        `xml:",chardata"`
}

type xmlDataTile struct {
	GID uint32 `xml:"gid,attr"`
}

type xmlTileset struct {
	FirstGID        int              `xml:"firstgid,attr"`
	Source          string           `xml:"source,attr"`
	Name            string           `xml:"name,attr"`
	Class           string           `xml:"class,attr"`
	TileWidth       int              `xml:"tilewidth,attr"`
	TileHeight      int              `xml:"tileheight,attr"`
	Spacing         int              `xml:"spacing,attr"`
	Margin          int              `xml:"margin,attr"`
	TileCount       int              `xml:"tilecount,attr"`
	Columns         int              `xml:"columns,attr"`
	ObjectAlignment string           `xml:"objectalignment,attr"`
	TileOffset      *xmlPt           `xml:"tileoffset"`
	Image           *xmlImage        `xml:"image"`
	Props           xmlProperties    `xml:"properties"`
	Terrains        []xmlTerrain     `xml:"terraintypes>terrain"`
	Tiles           []xmlTilesetTile `xml:"tile"`
}

type xmlPt struct {
	X int `xml:"x,attr"`
	Y int `xml:"y,attr"`
}

type xmlTerrain struct {
	Name  string        `xml:"name,attr"`
	Tile  int           `xml:"tile,attr"`
	Props xmlProperties `xml:"properties"`
}

type xmlTilesetTile struct {
	ID          int             `xml:"id,attr"`
	Type        string          `xml:"type,attr"`
	Class       string          `xml:"class,attr"`
	Terrain     string          `xml:"terrain,attr"`
	Probability float64         `xml:"probability,attr"`
	Props       xmlProperties   `xml:"properties"`
	Image       *xmlImage       `xml:"image"`
	Animation   []xmlFrame      `xml:"animation>frame"`
	ObjectGroup *xmlObjectGroup `xml:"objectgroup"`
}

type xmlFrame struct {
	TileID   int `xml:"tileid,attr"`
	Duration int `xml:"duration,attr"`
}

type xmlImage struct {
	Source string `xml:"source,attr"`
	Format string `xml:"format,attr"`
	Trans  string `xml:"trans,attr"`
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
}

type xmlProperties struct {
	Props []xmlProperty `xml:"property"`
}

type xmlProperty struct {
	Name     string  `xml:"name,attr"`
	Type     string  `xml:"type,attr"`
	Value    *string `xml:"value,attr"`
	Chardata string  `xml:",chardata"`
}

type xmlObject struct {
	ID       int     `xml:"id,attr"`
	Name     string  `xml:"name,attr"`
	Type     string  `xml:"type,attr"`
	Class    string  `xml:"class,attr"`
	X        float64 `xml:"x,attr"`
	Y        float64 `xml:"y,attr"`
	Width    float64 `xml:"width,attr"`
	Height   float64 `xml:"height,attr"`
	Rotation float64 `xml:"rotation,attr"`
	GID      *uint32 `xml:"gid,attr"`
	Visible  *int    `xml:"visible,attr"`
	Template string  `xml:"template,attr"`

	Ellipse  *struct{}      `xml:"ellipse"`
	Point    *struct{}      `xml:"point"`
	Polygon  *xmlPoints     `xml:"polygon"`
	Polyline *xmlPoints     `xml:"polyline"`
	Text     *xmlText       `xml:"text"`
	Props    *xmlProperties `xml:"properties"`
}

type xmlPoints struct {
	Points string `xml:"points,attr"`
}

type xmlText struct {
	FontFamily string `xml:"fontfamily,attr"`
	PixelSize  *int   `xml:"pixelsize,attr"`
	Wrap       int    `xml:"wrap,attr"`
	Color      string `xml:"color,attr"`
	Bold       int    `xml:"bold,attr"`
	Italic     int    `xml:"italic,attr"`
	Underline  int    `xml:"underline,attr"`
	Strikeout  int    `xml:"strikeout,attr"`
	Kerning    *int   `xml:"kerning,attr"`
	HAlign     string `xml:"halign,attr"`
	VAlign     string `xml:"valign,attr"`
	Value      string `xml:",chardata"`
}
