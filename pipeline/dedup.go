package pipeline

import (
	farm "github.com/dgryski/go-farm"

	"github.com/rmlstream/rmlstream/estimate"
	"github.com/rmlstream/rmlstream/quadgen"
)

// dedupSet is the writer's exclusive, lock-free hash set: one width-
// selected map holds every quad fingerprint seen so far. Grounded on
// original_source/FlexRML.cpp's writerThread (`nquad_hashes`), widened
// from a single fixed 64-bit std::hash to the width L7 selects.
type dedupSet struct {
	width  estimate.HashWidth
	set32  map[uint32]struct{}
	set64  map[uint64]struct{}
	set128 map[[2]uint64]struct{}
}

func newDedupSet(width estimate.HashWidth) *dedupSet {
	d := &dedupSet{width: width}
	switch width {
	case estimate.Width32:
		d.set32 = make(map[uint32]struct{})
	case estimate.Width64:
		d.set64 = make(map[uint64]struct{})
	default:
		d.set128 = make(map[[2]uint64]struct{})
	}
	return d
}

func fingerprintKey(q quadgen.Quad) []byte {
	return []byte(q.Subject + "\x00" + q.Predicate + "\x00" + q.Object + "\x00" + q.Graph)
}

// seenOrAdd reports whether q's fingerprint was already present,
// inserting it if not — first occurrence wins, per spec §5.
func (d *dedupSet) seenOrAdd(q quadgen.Quad) bool {
	key := fingerprintKey(q)
	switch d.width {
	case estimate.Width32:
		h := farm.Fingerprint32(key)
		if _, ok := d.set32[h]; ok {
			return true
		}
		d.set32[h] = struct{}{}
	case estimate.Width64:
		h := farm.Fingerprint64(key)
		if _, ok := d.set64[h]; ok {
			return true
		}
		d.set64[h] = struct{}{}
	default:
		lo, hi := farm.Fingerprint128(key)
		k := [2]uint64{lo, hi}
		if _, ok := d.set128[k]; ok {
			return true
		}
		d.set128[k] = struct{}{}
	}
	return false
}

// Len reports the number of distinct fingerprints recorded.
func (d *dedupSet) Len() int {
	switch d.width {
	case estimate.Width32:
		return len(d.set32)
	case estimate.Width64:
		return len(d.set64)
	default:
		return len(d.set128)
	}
}
