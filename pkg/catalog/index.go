package catalog

import (
	"sort"

	"github.com/Chahine-tech/rowql/pkg/value"
)

// Index is an ordered secondary (non-clustered) index over a single
// column: Value -> sorted set of row positions holding that value, kept
// sorted by value.Compare so equality and range scans over the indexed
// column can walk it directly instead of rescanning the table. MIN/MAX
// aggregates do not use it.
type Index struct {
	Name     string
	Table    string
	Column   string
	Unique   bool
	keys     []value.Value
	postings [][]int
}

func NewIndex(name, table, column string, unique bool) *Index {
	return &Index{Name: name, Table: table, Column: column, Unique: unique}
}

func (idx *Index) clone() *Index {
	c := &Index{Name: idx.Name, Table: idx.Table, Column: idx.Column, Unique: idx.Unique}
	c.keys = append([]value.Value(nil), idx.keys...)
	c.postings = make([][]int, len(idx.postings))
	for i, p := range idx.postings {
		c.postings[i] = append([]int(nil), p...)
	}
	return c
}

// search returns the position within keys/postings where v belongs, and
// whether v is already present there.
func (idx *Index) search(v value.Value) (int, bool) {
	i := sort.Search(len(idx.keys), func(i int) bool {
		return value.Compare(idx.keys[i], v) >= 0
	})
	if i < len(idx.keys) && value.Equal(idx.keys[i], v) {
		return i, true
	}
	return i, false
}

// Insert records that row position rowPos holds value v.
func (idx *Index) Insert(v value.Value, rowPos int) {
	i, found := idx.search(v)
	if found {
		idx.postings[i] = append(idx.postings[i], rowPos)
		return
	}
	idx.keys = append(idx.keys, value.Value{})
	copy(idx.keys[i+1:], idx.keys[i:])
	idx.keys[i] = v

	idx.postings = append(idx.postings, nil)
	copy(idx.postings[i+1:], idx.postings[i:])
	idx.postings[i] = []int{rowPos}
}

// Remove un-records that row position rowPos held value v.
func (idx *Index) Remove(v value.Value, rowPos int) {
	i, found := idx.search(v)
	if !found {
		return
	}
	postings := idx.postings[i]
	for j, p := range postings {
		if p == rowPos {
			postings = append(postings[:j], postings[j+1:]...)
			break
		}
	}
	if len(postings) == 0 {
		idx.keys = append(idx.keys[:i], idx.keys[i+1:]...)
		idx.postings = append(idx.postings[:i], idx.postings[i+1:]...)
		return
	}
	idx.postings[i] = postings
}

// Lookup returns every row position recorded for value v.
func (idx *Index) Lookup(v value.Value) []int {
	i, found := idx.search(v)
	if !found {
		return nil
	}
	return idx.postings[i]
}

// Range returns every row position whose key falls within [min, max],
// bounds optional and independently inclusive/exclusive, in key order.
func (idx *Index) Range(min *value.Value, minIncl bool, max *value.Value, maxIncl bool) []int {
	lo := 0
	if min != nil {
		lo = sort.Search(len(idx.keys), func(i int) bool {
			cmp := value.Compare(idx.keys[i], *min)
			if minIncl {
				return cmp >= 0
			}
			return cmp > 0
		})
	}
	hi := len(idx.keys)
	if max != nil {
		hi = sort.Search(len(idx.keys), func(i int) bool {
			cmp := value.Compare(idx.keys[i], *max)
			if maxIncl {
				return cmp > 0
			}
			return cmp >= 0
		})
	}
	var out []int
	for i := lo; i < hi; i++ {
		out = append(out, idx.postings[i]...)
	}
	return out
}

// All returns every row position in the index, in key order.
func (idx *Index) All() []int {
	var out []int
	for _, p := range idx.postings {
		out = append(out, p...)
	}
	return out
}

// DecrementPositionsAbove shifts every recorded row position greater than
// removed down by one, keeping the index coherent after a row is deleted
// from the table's backing slice.
func (idx *Index) DecrementPositionsAbove(removed int) {
	for _, postings := range idx.postings {
		for i, p := range postings {
			if p > removed {
				postings[i] = p - 1
			}
		}
	}
}
