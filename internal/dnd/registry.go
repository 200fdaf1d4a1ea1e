package dnd

import "github.com/evanschultz/join/internal/domain"

// ColumnDescriptor caches what gesture handling needs to know about a column.
type ColumnDescriptor struct {
	Status    domain.Status
	Rect      Rect
	Column    *Column
	Container *Container
}

// Registry holds column descriptors built once per render pass.
type Registry struct {
	surface     *Surface
	descriptors []ColumnDescriptor
	valid       bool
	builds      int
}

func NewRegistry(surface *Surface) *Registry {
	return &Registry{surface: surface}
}

// Columns returns the cached descriptors, rebuilding them after Invalidate.
func (r *Registry) Columns() []ColumnDescriptor {
	if !r.valid {
		r.rebuild()
	}
	return r.descriptors
}

// Invalidate drops the cache. Call it whenever the surface is re-rendered or resized.
func (r *Registry) Invalidate() {
	r.valid = false
}

// buildCount reports how many times the cache has been rebuilt.
func (r *Registry) buildCount() int {
	return r.builds
}

// Resolve hit-tests p against the cached descriptors.
func (r *Registry) Resolve(p Point) (*Column, bool) {
	desc, ok := HitTest(p, r.Columns())
	if !ok {
		return nil, false
	}
	return desc.Column, true
}

func (r *Registry) rebuild() {
	cols := r.surface.Columns()
	r.descriptors = make([]ColumnDescriptor, 0, len(cols))
	for _, col := range cols {
		r.descriptors = append(r.descriptors, ColumnDescriptor{
			Status:    col.Status,
			Rect:      col.Rect,
			Column:    col,
			Container: col.Container(),
		})
	}
	r.valid = true
	r.builds++
}
