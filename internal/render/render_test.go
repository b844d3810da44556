package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tilekit/tmx"
)

var (
	red  = color.RGBA{R: 0xff, A: 0xff}
	blue = color.RGBA{B: 0xff, A: 0xff}
)

// writeTilesetImage writes a 32x16 PNG holding two 16x16 tiles, red then
// blue.
func writeTilesetImage(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, red)
			img.Set(x+16, y, blue)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func renderTestMap(t *testing.T, doc string) *image.RGBA {
	t.Helper()
	dir := t.TempDir()
	writeTilesetImage(t, filepath.Join(dir, "terrain.png"))

	m, err := tmx.ParseMap(strings.NewReader(doc), dir)
	if err != nil {
		t.Fatalf("ParseMap: %v", err)
	}
	img, err := New(m, dir, zerolog.Nop()).Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return img
}

const renderDoc = `<map orientation="orthogonal" width="2" height="1" tilewidth="16" tileheight="16">
 <tileset firstgid="1" name="terrain" tilewidth="16" tileheight="16" tilecount="2" columns="2">
  <image source="terrain.png" width="32" height="16"/>
 </tileset>
 <layer id="1" name="ground" width="2" height="1">
  <data encoding="csv">1,2</data>
 </layer>
</map>`

func TestRenderTileLayer(t *testing.T) {
	img := renderTestMap(t, renderDoc)

	if got := img.Bounds().Size(); got != image.Pt(32, 16) {
		t.Fatalf("canvas size = %v, want (32,16)", got)
	}
	if got := img.RGBAAt(4, 4); got != red {
		t.Errorf("pixel (4,4) = %v, want red", got)
	}
	if got := img.RGBAAt(20, 4); got != blue {
		t.Errorf("pixel (20,4) = %v, want blue", got)
	}
}

func TestRenderInvisibleLayerSkipped(t *testing.T) {
	doc := `<map orientation="orthogonal" width="1" height="1" tilewidth="16" tileheight="16">
 <tileset firstgid="1" name="terrain" tilewidth="16" tileheight="16" tilecount="2" columns="2">
  <image source="terrain.png" width="32" height="16"/>
 </tileset>
 <layer id="1" name="hidden" width="1" height="1" visible="0">
  <data encoding="csv">1</data>
 </layer>
</map>`
	img := renderTestMap(t, doc)

	if got := img.RGBAAt(4, 4); got != (color.RGBA{}) {
		t.Errorf("pixel (4,4) = %v, want transparent", got)
	}
}

func TestRenderBackgroundColor(t *testing.T) {
	doc := `<map orientation="orthogonal" width="1" height="1" tilewidth="16" tileheight="16" backgroundcolor="#0000ff">
 <tileset firstgid="1" name="terrain" tilewidth="16" tileheight="16" tilecount="2" columns="2">
  <image source="terrain.png" width="32" height="16"/>
 </tileset>
 <layer id="1" name="ground" width="1" height="1">
  <data encoding="csv">0</data>
 </layer>
</map>`
	img := renderTestMap(t, doc)

	if got := img.RGBAAt(8, 8); got != blue {
		t.Errorf("pixel (8,8) = %v, want background blue", got)
	}
}

func TestRenderUnsupportedOrientation(t *testing.T) {
	doc := `<map orientation="isometric" width="1" height="1" tilewidth="16" tileheight="16"/>`
	m, err := tmx.ParseMap(strings.NewReader(doc), "")
	if err != nil {
		t.Fatalf("ParseMap: %v", err)
	}
	if _, err := New(m, "", zerolog.Nop()).Render(); err == nil {
		t.Fatal("expected error for isometric map")
	}
}

func TestRenderMissingTilesetImage(t *testing.T) {
	m, err := tmx.ParseMap(strings.NewReader(renderDoc), t.TempDir())
	if err != nil {
		t.Fatalf("ParseMap: %v", err)
	}
	if _, err := New(m, t.TempDir(), zerolog.Nop()).Render(); err == nil {
		t.Fatal("expected error for missing tileset image")
	}
}

func TestOrientTile(t *testing.T) {
	// 2x2 source with distinct corners:
	//   A B
	//   C D
	a := color.RGBA{R: 1, A: 0xff}
	b := color.RGBA{R: 2, A: 0xff}
	c := color.RGBA{R: 3, A: 0xff}
	d := color.RGBA{R: 4, A: 0xff}
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, a)
	src.Set(1, 0, b)
	src.Set(0, 1, c)
	src.Set(1, 1, d)

	tests := []struct {
		name    string
		cell    tmx.Cell
		corners [4]color.RGBA // (0,0) (1,0) (0,1) (1,1)
	}{
		{"identity", tmx.Cell{GID: 1}, [4]color.RGBA{a, b, c, d}},
		{"horizontal", tmx.Cell{GID: 1, FlippedHorizontally: true}, [4]color.RGBA{b, a, d, c}},
		{"vertical", tmx.Cell{GID: 1, FlippedVertically: true}, [4]color.RGBA{c, d, a, b}},
		{"diagonal", tmx.Cell{GID: 1, FlippedDiagonally: true}, [4]color.RGBA{a, c, b, d}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := orientTile(src, src.Bounds(), tt.cell)
			got := [4]color.RGBA{
				out.RGBAAt(0, 0), out.RGBAAt(1, 0),
				out.RGBAAt(0, 1), out.RGBAAt(1, 1),
			}
			if got != tt.corners {
				t.Errorf("corners = %v, want %v", got, tt.corners)
			}
		})
	}
}

func TestTilePositions(t *testing.T) {
	got := tilePositions(5, 10, 30)
	want := []int{-5, 5, 15, 25}
	if len(got) != len(want) {
		t.Fatalf("positions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("positions[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
