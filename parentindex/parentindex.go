// Package parentindex builds the per-join lookup structures the quad
// generator consults: a single-offset reference index for
// reference-condition joins, and a multi-valued full index otherwise.
package parentindex

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	bolt "go.etcd.io/bbolt"

	"github.com/rmlstream/rmlstream/csvsource"
	"github.com/rmlstream/rmlstream/template"
)

// boltThreshold is the row count above which a full index migrates from
// an in-process map to a disk-backed bbolt store, trading memory for a
// bounded footprint on large parent sources.
const boltThreshold = 50000

// ReferenceIndex maps a parent-key value to the byte offset of the last
// matching row seen while scanning the parent source — a single match
// per key, last-write-wins, exactly as a single pass over the file with
// unconditional map assignment produces.
type ReferenceIndex struct {
	offsets map[string]int64
}

// Lookup returns the stored offset for key, if any.
func (r *ReferenceIndex) Lookup(key string) (int64, bool) {
	off, ok := r.offsets[key]
	return off, ok
}

// BuildReferenceIndex scans src once, indexing parentColumn's values to
// row byte offsets. Grounded on original_source/FlexRML.cpp's
// createIndex/createIndexFromCSVString.
func BuildReferenceIndex(src csvsource.Source, parentColumn string) (*ReferenceIndex, error) {
	cur, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	keyIdx := indexOf(cur.Header(), parentColumn)
	if keyIdx < 0 {
		return nil, fmt.Errorf("parentindex: parent key %q not found in header", parentColumn)
	}

	offsets := map[string]int64{}
	for {
		row, err := cur.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if keyIdx < len(row) {
			offsets[row[keyIdx]] = cur.Offset()
		}
	}
	return &ReferenceIndex{offsets: offsets}, nil
}

// FullIndex maps a parent-key value to every matching row's projected
// column tuple, in file order. Columns names the projection (only the
// fields the join's object template actually reads), doubling as the
// auxiliary header vector the template evaluator needs to re-interpolate
// a tuple later.
type FullIndex struct {
	Columns []string

	mem      map[string][][]string
	bolt     *bolt.DB
	boltPath string
}

// Lookup returns every projected tuple recorded for key, in file order.
func (f *FullIndex) Lookup(key string) ([][]string, bool) {
	if f.mem != nil {
		rows, ok := f.mem[key]
		return rows, ok
	}
	var rows [][]string
	_ = f.bolt.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(key))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var tuple []string
			if err := json.Unmarshal(v, &tuple); err != nil {
				return err
			}
			rows = append(rows, tuple)
			return nil
		})
	})
	return rows, len(rows) > 0
}

// Close releases the index's disk-backed store, if any.
func (f *FullIndex) Close() error {
	if f.bolt == nil {
		return nil
	}
	err := f.bolt.Close()
	os.Remove(f.boltPath)
	return err
}

// BuildFullIndex scans src once, projecting each row matching
// parentColumn down to the columns objectTemplate references and
// collecting every match under its key. Grounded on
// original_source/FlexRML.cpp's createIndex shape generalized to retain
// every row rather than only the last (see DESIGN.md).
func BuildFullIndex(src csvsource.Source, parentColumn, objectTemplate string) (*FullIndex, error) {
	cur, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	header := cur.Header()
	keyIdx := indexOf(header, parentColumn)
	if keyIdx < 0 {
		return nil, fmt.Errorf("parentindex: parent key %q not found in header", parentColumn)
	}

	projection, err := template.Fields(objectTemplate)
	if err != nil {
		return nil, err
	}
	colIdx := make([]int, len(projection))
	for i, col := range projection {
		colIdx[i] = indexOf(header, col)
	}

	mem := map[string][][]string{}
	rows := 0
	for {
		row, err := cur.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows++
		if keyIdx >= len(row) {
			continue
		}
		tuple := make([]string, len(projection))
		for i, ci := range colIdx {
			if ci >= 0 && ci < len(row) {
				tuple[i] = row[ci]
			}
		}
		key := row[keyIdx]
		mem[key] = append(mem[key], tuple)
	}

	idx := &FullIndex{Columns: projection, mem: mem}
	if rows > boltThreshold {
		if err := idx.migrateToBolt(); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func (f *FullIndex) migrateToBolt() error {
	tmp, err := os.CreateTemp("", "rmlstream-parentindex-*.bolt")
	if err != nil {
		return err
	}
	path := tmp.Name()
	tmp.Close()

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		os.Remove(path)
		return err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for key, tuples := range f.mem {
			b, err := tx.CreateBucketIfNotExists([]byte(key))
			if err != nil {
				return err
			}
			for _, tuple := range tuples {
				seq, err := b.NextSequence()
				if err != nil {
					return err
				}
				data, err := json.Marshal(tuple)
				if err != nil {
					return err
				}
				if err := b.Put(seqKey(seq), data); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		os.Remove(path)
		return err
	}

	f.bolt = db
	f.boltPath = path
	f.mem = nil
	return nil
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
