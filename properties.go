package tmx

import (
	"fmt"
	"strconv"
	"strings"
)

// Property is a single named value attached to a map element. Type is one
// of "string", "int", "float", "bool", "color", "file" or "object"; the
// empty type means string.
type Property struct {
	Name  string
	Type  string
	Value string
}

// Properties is an ordered list of properties. Lookups are by name; the
// first property wins when names collide.
type Properties []Property

func (p Properties) find(name string) (Property, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop, true
		}
	}
	return Property{}, false
}

// Has reports whether a property with the given name exists.
func (p Properties) Has(name string) bool {
	_, ok := p.find(name)
	return ok
}

// String returns the named property as a string.
func (p Properties) String(name string) (string, bool) {
	prop, ok := p.find(name)
	return prop.Value, ok
}

// Int returns the named property as an int.
func (p Properties) Int(name string) (int, bool) {
	prop, ok := p.find(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(prop.Value)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Float returns the named property as a float64.
func (p Properties) Float(name string) (float64, bool) {
	prop, ok := p.find(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(prop.Value, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Bool returns the named property as a bool ("true"/"false").
func (p Properties) Bool(name string) (bool, bool) {
	prop, ok := p.find(name)
	if !ok {
		return false, false
	}
	v, err := strconv.ParseBool(prop.Value)
	if err != nil {
		return false, false
	}
	return v, true
}

// Color returns the named property as a color.
func (p Properties) Color(name string) (Color, bool) {
	prop, ok := p.find(name)
	if !ok {
		return Color{}, false
	}
	c, err := ParseColor(prop.Value)
	if err != nil {
		return Color{}, false
	}
	return c, true
}

// File returns the named file property, a path relative to the document
// that declared it.
func (p Properties) File(name string) (string, bool) {
	prop, ok := p.find(name)
	if !ok || (prop.Type != "file" && prop.Type != "") {
		return "", false
	}
	return prop.Value, ok
}

// ObjectID returns the named object-reference property. A stored value of
// 0 means no object.
func (p Properties) ObjectID(name string) (int, bool) {
	prop, ok := p.find(name)
	if !ok || prop.Type != "object" {
		return 0, false
	}
	v, err := strconv.Atoi(prop.Value)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Color is an RGBA color as written in TMX documents.
type Color struct {
	R, G, B, A uint8
}

// ParseColor parses "#RRGGBB", "#AARRGGBB" and the same forms without the
// leading '#'.
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 6:
		hex = "ff" + hex
	case 8:
		// alpha included
	default:
		return Color{}, fmt.Errorf("tmx: bad color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("tmx: bad color %q", s)
	}
	return Color{
		A: uint8(v >> 24),
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

// RGBA implements image/color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	a = uint32(c.A) * 0x101
	return
}

// String returns the color in "#aarrggbb" form.
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.A, c.R, c.G, c.B)
}
