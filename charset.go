package consumer

import (
	"sort"
)

// CharRange is a closed range of Unicode code points.
type CharRange struct {
	Lo, Hi rune
}

// Charset is an immutable set of Unicode code points kept as sorted disjoint
// closed ranges, with an invert flag for "all characters except these".
// A Charset is safe for concurrent use once built.
type Charset struct {
	ranges   []CharRange
	inverted bool
}

// NewCharset creates a Charset containing every code point of chars.
func NewCharset(chars string) *Charset {
	rs := make([]CharRange, 0, len(chars))
	for _, r := range chars {
		rs = append(rs, CharRange{r, r})
	}
	return &Charset{ranges: normalizeRanges(rs)}
}

// NewCharsetRange creates a Charset containing the closed range lo...hi.
func NewCharsetRange(lo, hi rune) *Charset {
	if hi < lo {
		lo, hi = hi, lo
	}
	return &Charset{ranges: []CharRange{{lo, hi}}}
}

// Inverted returns a copy of the set with the invert flag toggled.
func (s *Charset) Inverted() *Charset {
	return &Charset{ranges: s.ranges, inverted: !s.inverted}
}

// IsInverted reports whether the set is an "all except" set.
func (s *Charset) IsInverted() bool {
	return s.inverted
}

// Contains reports whether the set contains code point r.
func (s *Charset) Contains(r rune) bool {
	return s.rangesContain(r) != s.inverted
}

func (s *Charset) rangesContain(r rune) bool {
	lo := 0
	hi := len(s.ranges)
	for lo < hi {
		i := (lo + hi) >> 1
		cr := s.ranges[i]
		if r < cr.Lo {
			hi = i
		} else if r > cr.Hi {
			lo = i + 1
		} else {
			return true
		}
	}
	return false
}

// Union combines two sets. The invert flags follow De Morgan's law:
// two plain sets produce a plain union, two inverted sets produce an
// inverted intersection, mixed sets produce an inverted difference.
func (s *Charset) Union(other *Charset) *Charset {
	switch {
	case !s.inverted && !other.inverted:
		return &Charset{ranges: unionRanges(s.ranges, other.ranges)}
	case s.inverted && other.inverted:
		return &Charset{ranges: intersectRanges(s.ranges, other.ranges), inverted: true}
	case s.inverted:
		return &Charset{ranges: subtractRanges(s.ranges, other.ranges), inverted: true}
	default:
		return &Charset{ranges: subtractRanges(other.ranges, s.ranges), inverted: true}
	}
}

// Ranges returns the sorted disjoint closed ranges of the set, ignoring the
// invert flag. Used for description rendering, not on the matching path.
func (s *Charset) Ranges() []CharRange {
	res := make([]CharRange, len(s.ranges))
	copy(res, s.ranges)
	return res
}

// normalizeRanges sorts ranges and merges overlapping and adjacent ones,
// so that singletons like 'a', 'b', 'c' collapse into 'a'...'c'.
func normalizeRanges(rs []CharRange) []CharRange {
	if len(rs) < 2 {
		return rs
	}

	sort.Slice(rs, func(i, j int) bool {
		return rs[i].Lo < rs[j].Lo || (rs[i].Lo == rs[j].Lo && rs[i].Hi < rs[j].Hi)
	})
	res := rs[:1]
	for _, r := range rs[1:] {
		last := &res[len(res)-1]
		if r.Lo <= last.Hi+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
		} else {
			res = append(res, r)
		}
	}
	return res
}

func unionRanges(a, b []CharRange) []CharRange {
	rs := make([]CharRange, 0, len(a)+len(b))
	rs = append(rs, a...)
	rs = append(rs, b...)
	return normalizeRanges(rs)
}

func intersectRanges(a, b []CharRange) []CharRange {
	res := make([]CharRange, 0)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		lo := a[i].Lo
		if b[j].Lo > lo {
			lo = b[j].Lo
		}
		hi := a[i].Hi
		if b[j].Hi < hi {
			hi = b[j].Hi
		}
		if lo <= hi {
			res = append(res, CharRange{lo, hi})
		}
		if a[i].Hi < b[j].Hi {
			i++
		} else {
			j++
		}
	}
	return res
}

func subtractRanges(a, b []CharRange) []CharRange {
	res := make([]CharRange, 0, len(a))
	j := 0
	for _, r := range a {
		lo := r.Lo
		for j < len(b) && b[j].Hi < lo {
			j++
		}
		k := j
		for k < len(b) && b[k].Lo <= r.Hi {
			if b[k].Lo > lo {
				res = append(res, CharRange{lo, b[k].Lo - 1})
			}
			if b[k].Hi+1 > lo {
				lo = b[k].Hi + 1
			}
			k++
		}
		if lo <= r.Hi {
			res = append(res, CharRange{lo, r.Hi})
		}
	}
	return res
}
