package tmx

import "testing"

func TestPropertiesGetters(t *testing.T) {
	props := Properties{
		{Name: "title", Value: "cave"},
		{Name: "depth", Type: "int", Value: "12"},
		{Name: "gravity", Type: "float", Value: "9.81"},
		{Name: "locked", Type: "bool", Value: "true"},
		{Name: "tint", Type: "color", Value: "#80ff0000"},
		{Name: "script", Type: "file", Value: "scripts/cave.lua"},
		{Name: "exit", Type: "object", Value: "17"},
	}

	if v, ok := props.String("title"); !ok || v != "cave" {
		t.Errorf("String = %q, %v", v, ok)
	}
	if v, ok := props.Int("depth"); !ok || v != 12 {
		t.Errorf("Int = %d, %v", v, ok)
	}
	if v, ok := props.Float("gravity"); !ok || v != 9.81 {
		t.Errorf("Float = %v, %v", v, ok)
	}
	if v, ok := props.Bool("locked"); !ok || !v {
		t.Errorf("Bool = %v, %v", v, ok)
	}
	if c, ok := props.Color("tint"); !ok || c != (Color{A: 0x80, R: 0xff}) {
		t.Errorf("Color = %v, %v", c, ok)
	}
	if v, ok := props.File("script"); !ok || v != "scripts/cave.lua" {
		t.Errorf("File = %q, %v", v, ok)
	}
	if v, ok := props.ObjectID("exit"); !ok || v != 17 {
		t.Errorf("ObjectID = %d, %v", v, ok)
	}

	if !props.Has("title") || props.Has("missing") {
		t.Error("Has misreports")
	}
	if _, ok := props.Int("title"); ok {
		t.Error("Int on non-numeric value should report false")
	}
	if _, ok := props.String("missing"); ok {
		t.Error("String on missing property should report false")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#ff0000", Color{A: 0xff, R: 0xff}},
		{"ff0000", Color{A: 0xff, R: 0xff}},
		{"#8000ff00", Color{A: 0x80, G: 0xff}},
		{"#abcdef", Color{A: 0xff, R: 0xab, G: 0xcd, B: 0xef}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Errorf("ParseColor(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "#ff", "#zzzzzz", "#12345"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("ParseColor(%q) should fail", bad)
		}
	}
}

func TestColorString(t *testing.T) {
	c := Color{A: 0x80, R: 0xff, G: 0x01, B: 0x02}
	if got := c.String(); got != "#80ff0102" {
		t.Errorf("String = %q", got)
	}
}
