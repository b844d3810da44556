package tmx

import (
	"errors"
	"testing"
)

func layeredMap() *Map {
	return &Map{
		Layers: []Layer{
			&TileLayer{LayerInfo: LayerInfo{Name: "ground"}},
			&GroupLayer{
				LayerInfo: LayerInfo{Name: "decor"},
				Layers: []Layer{
					&ImageLayer{LayerInfo: LayerInfo{Name: "sky"}},
					&TileLayer{LayerInfo: LayerInfo{Name: "overlay"}},
				},
			},
			&ObjectGroup{LayerInfo: LayerInfo{Name: "things"}},
		},
	}
}

func TestWalkLayersOrder(t *testing.T) {
	var visited []string
	record := func(name string) error {
		visited = append(visited, name)
		return nil
	}

	err := WalkLayers(layeredMap(), LayerVisitorFuncs{
		TileLayer:   func(_ *Map, l *TileLayer) error { return record("tile:" + l.Name) },
		ObjectGroup: func(_ *Map, l *ObjectGroup) error { return record("objects:" + l.Name) },
		ImageLayer:  func(_ *Map, l *ImageLayer) error { return record("image:" + l.Name) },
		GroupLayer:  func(_ *Map, l *GroupLayer) error { return record("group:" + l.Name) },
	})
	if err != nil {
		t.Fatalf("WalkLayers: %v", err)
	}

	want := []string{"tile:ground", "group:decor", "image:sky", "tile:overlay", "objects:things"}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %q, want %q", i, visited[i], want[i])
		}
	}
}

func TestWalkLayersStopsOnError(t *testing.T) {
	sentinel := errors.New("stop")
	count := 0

	err := WalkLayers(layeredMap(), LayerVisitorFuncs{
		TileLayer: func(_ *Map, l *TileLayer) error {
			count++
			return sentinel
		},
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}
	if count != 1 {
		t.Errorf("visited %d tile layers after error, want 1", count)
	}
}

func TestWalkLayersNilFuncs(t *testing.T) {
	if err := WalkLayers(layeredMap(), LayerVisitorFuncs{}); err != nil {
		t.Fatalf("WalkLayers with empty funcs: %v", err)
	}
}
