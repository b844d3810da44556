// Package render composes a parsed map into a single image. Only
// orthogonal maps are supported; object groups are not drawn.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/tilekit/tmx"
)

// Renderer draws a map onto an RGBA canvas. A renderer is good for one
// map; images are cached across layers.
type Renderer struct {
	m       *tmx.Map
	baseDir string
	log     zerolog.Logger

	images map[string]image.Image

	sem *semaphore.Weighted

	// Oversized tiles can cross row boundaries, so such maps render their
	// rows sequentially instead of fanning out.
	sequential bool
}

// New returns a renderer for the given map. baseDir is the directory the
// map was loaded from; tileset image paths resolve against it.
func New(m *tmx.Map, baseDir string, log zerolog.Logger) *Renderer {
	r := &Renderer{
		m:       m,
		baseDir: baseDir,
		log:     log,
		images:  make(map[string]image.Image),
		sem:     semaphore.NewWeighted(int64(runtime.NumCPU())),
	}
	for _, ts := range m.Tilesets {
		if ts.TileWidth > m.TileWidth || ts.TileHeight > m.TileHeight {
			r.sequential = true
		}
	}
	return r
}

// Render draws every visible layer and returns the canvas.
func (r *Renderer) Render() (*image.RGBA, error) {
	if r.m.Orientation != tmx.Orthogonal {
		return nil, fmt.Errorf("render: unsupported orientation %q", r.m.Orientation)
	}
	if r.m.Infinite {
		return nil, fmt.Errorf("render: infinite maps are not supported")
	}

	if err := r.preloadImages(); err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, r.m.Width*r.m.TileWidth, r.m.Height*r.m.TileHeight))
	if r.m.BackgroundColor != nil {
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(*r.m.BackgroundColor), image.Point{}, draw.Src)
	}

	if err := r.drawLayers(canvas, r.m.Layers, 0, 0, 1); err != nil {
		return nil, err
	}
	return canvas, nil
}

// preloadImages decodes all tileset images up front so the image cache is
// read-only while rows draw concurrently.
func (r *Renderer) preloadImages() error {
	for _, ts := range r.m.Tilesets {
		relTo := filepath.Dir(ts.Source)
		if ts.Image != nil {
			if _, err := r.loadImage(ts.Image, relTo); err != nil {
				return fmt.Errorf("render: tileset %q: %w", ts.Name, err)
			}
		}
		for i := range ts.Tiles {
			if img := ts.Tiles[i].Image; img != nil {
				if _, err := r.loadImage(img, relTo); err != nil {
					return fmt.Errorf("render: tileset %q: %w", ts.Name, err)
				}
			}
		}
	}
	return nil
}

func (r *Renderer) drawLayers(dst *image.RGBA, layers []tmx.Layer, offX, offY, opacity float64) error {
	for _, layer := range layers {
		info := layer.Info()
		if !info.Visible || info.Opacity <= 0 {
			continue
		}
		x := offX + info.OffsetX
		y := offY + info.OffsetY
		op := opacity * info.Opacity

		switch l := layer.(type) {
		case *tmx.TileLayer:
			r.log.Debug().Str("layer", info.Name).Msg("drawing tile layer")
			if err := r.drawTileLayer(dst, l, x, y, op); err != nil {
				return err
			}
		case *tmx.ImageLayer:
			r.log.Debug().Str("layer", info.Name).Msg("drawing image layer")
			if err := r.drawImageLayer(dst, l, x, y, op); err != nil {
				return err
			}
		case *tmx.GroupLayer:
			if err := r.drawLayers(dst, l.Layers, x, y, op); err != nil {
				return err
			}
		case *tmx.ObjectGroup:
			// not rendered
		}
	}
	return nil
}

func (r *Renderer) drawTileLayer(dst *image.RGBA, l *tmx.TileLayer, offX, offY, opacity float64) error {
	rows := make([]int, l.Height)
	cols := make([]int, l.Width)
	for i := range rows {
		rows[i] = i
	}
	for i := range cols {
		cols[i] = i
	}
	switch r.m.RenderOrder {
	case tmx.RightUp:
		reverse(rows)
	case tmx.LeftDown:
		reverse(cols)
	case tmx.LeftUp:
		reverse(rows)
		reverse(cols)
	}

	if r.sequential {
		for _, y := range rows {
			if err := r.drawRow(dst, l, y, cols, offX, offY, opacity); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, y := range rows {
		wg.Add(1)
		go func(y int) {
			defer wg.Done()
			// Acquire cannot fail with a background context.
			_ = r.sem.Acquire(context.Background(), 1)
			defer r.sem.Release(1)

			if err := r.drawRow(dst, l, y, cols, offX, offY, opacity); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(y)
	}
	wg.Wait()
	return firstErr
}

func (r *Renderer) drawRow(dst *image.RGBA, l *tmx.TileLayer, y int, cols []int, offX, offY, opacity float64) error {
	for _, x := range cols {
		if err := r.drawCell(dst, l.CellAt(x, y), x, y, offX, offY, opacity); err != nil {
			return fmt.Errorf("render: layer %q at (%d,%d): %w", l.Name, x, y, err)
		}
	}
	return nil
}

func (r *Renderer) drawCell(dst *image.RGBA, cell tmx.Cell, x, y int, offX, offY, opacity float64) error {
	if cell.Empty() {
		return nil
	}
	ts, ok := r.m.TilesetFor(cell)
	if !ok {
		return fmt.Errorf("gid %d outside any tileset", cell.GID)
	}
	id := ts.LocalID(cell)

	var (
		src image.Image
		sr  image.Rectangle
		err error
	)
	if tile := ts.TileAt(id); tile != nil && tile.Image != nil {
		src, err = r.loadImage(tile.Image, filepath.Dir(ts.Source))
		if err != nil {
			return err
		}
		sr = src.Bounds()
	} else {
		if ts.Image == nil {
			return fmt.Errorf("tileset %q has no image", ts.Name)
		}
		src, err = r.loadImage(ts.Image, filepath.Dir(ts.Source))
		if err != nil {
			return err
		}
		sr = ts.TileRect(id)
	}

	tile := orientTile(src, sr, cell)

	// Tiles taller than the grid anchor at the bottom-left of their cell.
	dp := image.Pt(
		x*r.m.TileWidth+int(offX)+ts.TileOffset.X,
		(y+1)*r.m.TileHeight-sr.Dy()+int(offY)+ts.TileOffset.Y,
	)
	dr := image.Rectangle{Min: dp, Max: dp.Add(tile.Bounds().Size())}

	if opacity >= 1 {
		draw.Draw(dst, dr, tile, image.Point{}, draw.Over)
		return nil
	}
	mask := image.NewUniform(color.Alpha{A: uint8(opacity * 0xff)})
	draw.DrawMask(dst, dr, tile, image.Point{}, mask, image.Point{}, draw.Over)
	return nil
}

func (r *Renderer) drawImageLayer(dst *image.RGBA, l *tmx.ImageLayer, offX, offY, opacity float64) error {
	if l.Image == nil {
		return nil
	}
	src, err := r.loadImage(l.Image, "")
	if err != nil {
		return fmt.Errorf("render: image layer %q: %w", l.Name, err)
	}

	w := src.Bounds().Dx()
	h := src.Bounds().Dy()

	xs := []int{int(offX)}
	ys := []int{int(offY)}
	if l.RepeatX {
		xs = tilePositions(int(offX), w, dst.Bounds().Dx())
	}
	if l.RepeatY {
		ys = tilePositions(int(offY), h, dst.Bounds().Dy())
	}

	var mask image.Image
	if opacity < 1 {
		mask = image.NewUniform(color.Alpha{A: uint8(opacity * 0xff)})
	}
	for _, y := range ys {
		for _, x := range xs {
			dr := image.Rect(x, y, x+w, y+h)
			if mask == nil {
				draw.Draw(dst, dr, src, src.Bounds().Min, draw.Over)
			} else {
				draw.DrawMask(dst, dr, src, src.Bounds().Min, mask, image.Point{}, draw.Over)
			}
		}
	}
	return nil
}

// tilePositions returns the x (or y) positions covering [0, extent) when an
// image of the given size repeats from the given start position.
func tilePositions(start, size, extent int) []int {
	if size <= 0 {
		return []int{start}
	}
	for start > 0 {
		start -= size
	}
	var out []int
	for x := start; x < extent; x += size {
		out = append(out, x)
	}
	return out
}

// orientTile copies the tile at sr out of src, applying the cell's flip
// flags. The diagonal flag transposes the tile and is only meaningful for
// square tiles.
func orientTile(src image.Image, sr image.Rectangle, c tmx.Cell) *image.RGBA {
	w := sr.Dx()
	h := sr.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			tx, ty := px, py
			if c.FlippedDiagonally && w == h {
				tx, ty = ty, tx
			}
			if c.FlippedHorizontally {
				tx = w - 1 - tx
			}
			if c.FlippedVertically {
				ty = h - 1 - ty
			}
			out.Set(tx, ty, src.At(sr.Min.X+px, sr.Min.Y+py))
		}
	}
	return out
}

// loadImage decodes and caches an image reference. relTo is the directory
// of the document that declared the reference, relative to the map.
func (r *Renderer) loadImage(ref *tmx.Image, relTo string) (image.Image, error) {
	path := filepath.Clean(filepath.Join(r.baseDir, relTo, filepath.FromSlash(ref.Source)))
	if img, ok := r.images[path]; ok {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %q: %w", ref.Source, err)
	}
	if ref.Trans != nil {
		img = applyColorKey(img, *ref.Trans)
	}
	r.images[path] = img
	return img, nil
}

// applyColorKey replaces every pixel matching the key color with full
// transparency.
func applyColorKey(src image.Image, key tmx.Color) image.Image {
	b := src.Bounds()
	out := image.NewRGBA(b)
	kr, kg, kb, _ := key.RGBA()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pr, pg, pb, _ := src.At(x, y).RGBA()
			if pr == kr && pg == kg && pb == kb {
				continue
			}
			out.Set(x, y, src.At(x, y))
		}
	}
	return out
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
