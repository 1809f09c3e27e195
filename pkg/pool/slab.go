package pool

// SlabSize is the number of descriptors per line-descriptor pool slab.
const SlabSize = 512

// Slab is a fixed-capacity array of T plus an intrusive free list, modeling
// the line-descriptor pool (component C): allocation pops from the free
// list, and the slab is considered reclaimable once every slot is free.
type Slab[T any] struct {
	items    [SlabSize]T
	free     []int32 // indices currently unused, LIFO
	liveCnt  int
}

// NewSlab returns a slab with every slot on the free list.
func NewSlab[T any]() *Slab[T] {
	s := &Slab[T]{free: make([]int32, SlabSize)}
	for i := range s.free {
		s.free[i] = int32(SlabSize - 1 - i)
	}
	return s
}

// Alloc pops a free slot and returns its index and a pointer to it, or ok=false
// if the slab is fully allocated.
func (s *Slab[T]) Alloc() (idx int32, ptr *T, ok bool) {
	if len(s.free) == 0 {
		return 0, nil, false
	}
	idx = s.free[len(s.free)-1]
	s.free = s.free[:len(s.free)-1]
	s.liveCnt++
	var zero T
	s.items[idx] = zero
	return idx, &s.items[idx], true
}

// Free returns a slot to the free list. The slab is empty (fully
// reclaimable) once every slot allocated has been freed.
func (s *Slab[T]) Free(idx int32) (empty bool) {
	s.free = append(s.free, idx)
	s.liveCnt--
	return s.liveCnt == 0
}

// At returns a pointer to the slot at idx.
func (s *Slab[T]) At(idx int32) *T { return &s.items[idx] }

// SlabList owns an ordered list of slabs, newest at the front, mirroring
// the original's "new pool inserted at head" allocation policy.
type SlabList[T any] struct {
	slabs []*Slab[T]
}

// Alloc finds a slab with a free slot (front-to-back) or creates a new one,
// and returns a pointer to the freshly allocated (zero-valued) slot.
func (l *SlabList[T]) Alloc() (*T, *Slab[T], int32) {
	for _, s := range l.slabs {
		if idx, ptr, ok := s.Alloc(); ok {
			return ptr, s, idx
		}
	}
	s := NewSlab[T]()
	l.slabs = append([]*Slab[T]{s}, l.slabs...)
	idx, ptr, _ := s.Alloc()
	return ptr, s, idx
}

// Free releases idx back to slab s, removing s from the list once it is
// fully reclaimable.
func (l *SlabList[T]) Free(s *Slab[T], idx int32) {
	if s.Free(idx) {
		for i, cand := range l.slabs {
			if cand == s {
				l.slabs = append(l.slabs[:i], l.slabs[i+1:]...)
				break
			}
		}
	}
}
