package pool

// CharList is the ordered list of character pools owned by one buffer.
// The most recently used pool is kept at the front, mirroring the
// original's move-to-head-of-list behavior on every successful allocation.
type CharList struct {
	pools []*CharPool
}

// Ref identifies a byte range inside one pool owned by a CharList.
type Ref struct {
	Pool   *CharPool
	Offset int
	Len    int
}

// Bytes returns the live byte slice a Ref designates.
func (r Ref) Bytes() []byte {
	if r.Pool == nil {
		return nil
	}
	return r.Pool.Bytes[r.Offset : r.Offset+r.Len]
}

// Pools exposes the live pool list (read-only use expected by callers that
// only need to enumerate, e.g. for accounting invariants in tests).
func (l *CharList) Pools() []*CharPool { return l.pools }

func (l *CharList) moveToFront(i int) {
	if i == 0 {
		return
	}
	p := l.pools[i]
	copy(l.pools[1:i+1], l.pools[:i])
	l.pools[0] = p
}

// Alloc finds or creates a pool with room for n bytes, as alloc_chars does
// in spec.md 4.2: the first pool with sufficient leading or trailing slack
// is used and moved to the front of the list; otherwise a new pool of
// max(n, DefaultSize) bytes is created and prepended.
func (l *CharList) Alloc(n int) Ref {
	for i, p := range l.pools {
		if p.Fits(n) {
			l.moveToFront(i)
			var off int
			if p.TrailingSlack() >= n {
				off = p.AllocAfter(n)
			} else {
				off = p.AllocBefore(n)
			}
			return Ref{Pool: p, Offset: off, Len: n}
		}
	}
	p := NewCharPool(n)
	off := p.AllocAfter(n)
	l.pools = append([]*CharPool{p}, l.pools...)
	return Ref{Pool: p, Offset: off, Len: n}
}

// AllocAround attempts to grow an existing line's byte range in place by n
// bytes, using the zero bytes immediately adjacent to it within the same
// pool (spec.md 4.2's alloc_chars_around). preferBefore biases which side
// is tried first when both would fit, to minimize the caller's memmove.
// Returns the number of the n bytes that landed after the line, and
// whether the request could be satisfied at all.
func AllocAround(p *CharPool, lineOff, lineLen, n int, preferBefore bool) (after int, ok bool) {
	before := 0
	for before < n && lineOff-before-1 >= 0 && p.Bytes[lineOff-before-1] == 0 {
		before++
	}
	afterMax := 0
	for afterMax < n && lineOff+lineLen+afterMax < len(p.Bytes) && p.Bytes[lineOff+lineLen+afterMax] == 0 {
		afterMax++
	}

	tryBefore := func() (int, bool) {
		if before < n {
			return 0, false
		}
		if lineOff-n < p.FirstUsed || p.FirstUsed < 0 {
			p.FirstUsed = lineOff - n
		}
		return 0, true
	}
	tryAfter := func() (int, bool) {
		if afterMax < n {
			return 0, false
		}
		if lineOff+lineLen+n-1 > p.LastUsed {
			p.LastUsed = lineOff + lineLen + n - 1
		}
		return n, true
	}

	if preferBefore {
		if a, ok := tryBefore(); ok {
			return a, true
		}
		return tryAfter()
	}
	if a, ok := tryAfter(); ok {
		return a, true
	}
	return tryBefore()
}

// Free zeroes ref's bytes and removes its pool from the list if the pool
// becomes completely empty.
func (l *CharList) Free(ref Ref) {
	if ref.Pool == nil || ref.Len == 0 {
		return
	}
	empty := ref.Pool.FreeRange(ref.Offset, ref.Len)
	if empty {
		for i, p := range l.pools {
			if p == ref.Pool {
				l.pools = append(l.pools[:i], l.pools[i+1:]...)
				break
			}
		}
	}
}

// Accounting returns total allocated bytes across all owned pools and the
// number currently free in them: the zeroed bytes within each watermark
// span plus every byte outside it, for the pool-accounting testable
// property of spec.md 8.
func (l *CharList) Accounting() (allocated, freeInSpan int) {
	for _, p := range l.pools {
		allocated += p.Size()
		span := p.WatermarkSpan()
		live := 0
		if p.FirstUsed >= 0 {
			for i := p.FirstUsed; i <= p.LastUsed; i++ {
				if p.Bytes[i] != 0 {
					live++
				}
			}
		}
		freeInSpan += span - live
		freeInSpan += p.Size() - span
	}
	return
}
