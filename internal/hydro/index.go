package hydro

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
)

// Index is an in-memory catchment table for a single level with a
// NEXT_DOWN adjacency map.
type Index struct {
	level    int
	byID     map[int64]*Catchment
	children map[int64][]int64 // NEXT_DOWN -> upstream neighbour ids
	order    []int64
}

// NewIndex builds an index. Duplicate ids keep the last record.
func NewIndex(level int, cs []Catchment) *Index {
	idx := &Index{
		level:    level,
		byID:     make(map[int64]*Catchment, len(cs)),
		children: make(map[int64][]int64),
	}
	for i := range cs {
		c := cs[i]
		c.Level = level
		if _, dup := idx.byID[c.ID]; !dup {
			idx.order = append(idx.order, c.ID)
		}
		idx.byID[c.ID] = &c
	}
	sort.Slice(idx.order, func(i, j int) bool { return idx.order[i] < idx.order[j] })
	for _, id := range idx.order {
		c := idx.byID[id]
		if c.NextDown != 0 {
			idx.children[c.NextDown] = append(idx.children[c.NextDown], c.ID)
		}
	}
	return idx
}

// Level returns the level this index was built for.
func (idx *Index) Level() int { return idx.level }

// Len returns the number of catchments.
func (idx *Index) Len() int { return len(idx.order) }

// Get returns a catchment by id.
func (idx *Index) Get(id int64) (Catchment, bool) {
	c, ok := idx.byID[id]
	if !ok {
		return Catchment{}, false
	}
	return *c, true
}

func (idx *Index) checkLevel(level int) error {
	if level != idx.level {
		return eris.Errorf("hydro: index holds level %d, asked for level %d", idx.level, level)
	}
	return nil
}

// Containing implements Source.
func (idx *Index) Containing(_ context.Context, level int, lon, lat float64) ([]Catchment, error) {
	if err := idx.checkLevel(level); err != nil {
		return nil, err
	}
	var out []Catchment
	for _, id := range idx.order {
		c := idx.byID[id]
		if c.Contains(lon, lat) {
			out = append(out, *c)
		}
	}
	return out, nil
}

// Upstream implements Source.
func (idx *Index) Upstream(_ context.Context, level int, ids []int64) ([]Catchment, error) {
	if err := idx.checkLevel(level); err != nil {
		return nil, err
	}
	var out []Catchment
	for _, id := range ids {
		for _, child := range idx.children[id] {
			out = append(out, *idx.byID[child])
		}
	}
	return out, nil
}

// Catchments implements Source.
func (idx *Index) Catchments(_ context.Context, level int, ids []int64) ([]Catchment, error) {
	if err := idx.checkLevel(level); err != nil {
		return nil, err
	}
	out := make([]Catchment, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if c, ok := idx.byID[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}
