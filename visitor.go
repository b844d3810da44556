package tmx

// LayerVisitor receives the layers of a map during traversal. Group layers
// are visited before their children.
type LayerVisitor interface {
	VisitTileLayer(m *Map, l *TileLayer) error
	VisitObjectGroup(m *Map, l *ObjectGroup) error
	VisitImageLayer(m *Map, l *ImageLayer) error
	VisitGroupLayer(m *Map, l *GroupLayer) error
}

// WalkLayers traverses the layers of a map depth first, in document order,
// descending into group layers. Traversal stops at the first error.
func WalkLayers(m *Map, v LayerVisitor) error {
	return walkLayers(m, m.Layers, v)
}

func walkLayers(m *Map, layers []Layer, v LayerVisitor) error {
	for _, layer := range layers {
		switch l := layer.(type) {
		case *TileLayer:
			if err := v.VisitTileLayer(m, l); err != nil {
				return err
			}
		case *ObjectGroup:
			if err := v.VisitObjectGroup(m, l); err != nil {
				return err
			}
		case *ImageLayer:
			if err := v.VisitImageLayer(m, l); err != nil {
				return err
			}
		case *GroupLayer:
			if err := v.VisitGroupLayer(m, l); err != nil {
				return err
			}
			if err := walkLayers(m, l.Layers, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// LayerVisitorFuncs adapts plain functions to the LayerVisitor interface.
// Nil fields are skipped during traversal.
type LayerVisitorFuncs struct {
	TileLayer   func(m *Map, l *TileLayer) error
	ObjectGroup func(m *Map, l *ObjectGroup) error
	ImageLayer  func(m *Map, l *ImageLayer) error
	GroupLayer  func(m *Map, l *GroupLayer) error
}

// VisitTileLayer implements LayerVisitor.
func (f LayerVisitorFuncs) VisitTileLayer(m *Map, l *TileLayer) error {
	if f.TileLayer == nil {
		return nil
	}
	return f.TileLayer(m, l)
}

// VisitObjectGroup implements LayerVisitor.
func (f LayerVisitorFuncs) VisitObjectGroup(m *Map, l *ObjectGroup) error {
	if f.ObjectGroup == nil {
		return nil
	}
	return f.ObjectGroup(m, l)
}

// VisitImageLayer implements LayerVisitor.
func (f LayerVisitorFuncs) VisitImageLayer(m *Map, l *ImageLayer) error {
	if f.ImageLayer == nil {
		return nil
	}
	return f.ImageLayer(m, l)
}

// VisitGroupLayer implements LayerVisitor.
func (f LayerVisitorFuncs) VisitGroupLayer(m *Map, l *GroupLayer) error {
	if f.GroupLayer == nil {
		return nil
	}
	return f.GroupLayer(m, l)
}
