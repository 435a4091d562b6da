package profile

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"

	"gonum.org/v1/gonum/interp"
)

// ErrEmptyTable is returned when looking up a table without rows.
var ErrEmptyTable = errors.New("profile table is empty")

// Row holds the column values of one profile time.
type Row map[string]float64

// Get returns the value of col, or zero when the column is absent.
func (r Row) Get(col string) float64 {
	return r[col]
}

// IsDiscrete reports whether a column holds identifiers that must not be
// interpolated.
func IsDiscrete(col string) bool {
	return strings.HasPrefix(col, CarSlotPrefix)
}

// Table is an immutable, sorted profile. It is safe for concurrent use.
type Table struct {
	keys    []int64
	rows    []Row
	columns []string
	fits    map[string]*interp.PiecewiseLinear
}

// NewTable builds a Table from rows keyed by second of the day. Columns
// missing from a row are read as zero.
func NewTable(rows map[int64]Row) (*Table, error) {
	t := &Table{fits: map[string]*interp.PiecewiseLinear{}}
	cols := map[string]struct{}{}
	for k, r := range rows {
		if k < 0 || k >= SecondsPerDay {
			return nil, fmt.Errorf("profile key %d outside [0,%d)", k, SecondsPerDay)
		}
		t.keys = append(t.keys, k)
		for c := range r {
			cols[c] = struct{}{}
		}
	}
	sort.Slice(t.keys, func(i, j int) bool { return t.keys[i] < t.keys[j] })
	for c := range cols {
		t.columns = append(t.columns, c)
	}
	sort.Strings(t.columns)

	t.rows = make([]Row, len(t.keys))
	for i, k := range t.keys {
		r := make(Row, len(t.columns))
		for _, c := range t.columns {
			r[c] = rows[k].Get(c)
		}
		t.rows[i] = r
	}

	if len(t.keys) < 2 {
		return t, nil
	}
	xs := make([]float64, len(t.keys))
	for i, k := range t.keys {
		xs[i] = float64(k)
	}
	for _, c := range t.columns {
		if IsDiscrete(c) {
			continue
		}
		ys := make([]float64, len(t.rows))
		for i, r := range t.rows {
			ys[i] = r[c]
		}
		var pl interp.PiecewiseLinear
		if err := pl.Fit(xs, ys); err != nil {
			return nil, fmt.Errorf("fit column %s: %w", c, err)
		}
		t.fits[c] = &pl
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.keys) }

// Keys returns the sorted row keys.
func (t *Table) Keys() []int64 {
	out := make([]int64, len(t.keys))
	copy(out, t.keys)
	return out
}

// Columns returns the sorted column names.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Lookup returns the row for the given second of the day. An exact key
// returns that row, a time between two keys returns the linear
// interpolation of both rows, and a time outside the key range returns the
// nearest boundary row. Discrete columns take the value of the lower row.
// The returned row is a copy.
func (t *Table) Lookup(second int64) (Row, error) {
	if t == nil || len(t.keys) == 0 {
		return nil, ErrEmptyTable
	}
	i := sort.Search(len(t.keys), func(i int) bool { return t.keys[i] >= second })
	switch {
	case i < len(t.keys) && t.keys[i] == second:
		return maps.Clone(t.rows[i]), nil
	case i == 0:
		return maps.Clone(t.rows[0]), nil
	case i == len(t.keys):
		return maps.Clone(t.rows[len(t.rows)-1]), nil
	}
	lower := t.rows[i-1]
	out := make(Row, len(t.columns))
	x := float64(second)
	for _, c := range t.columns {
		if fit, ok := t.fits[c]; ok {
			out[c] = fit.Predict(x)
			continue
		}
		out[c] = lower[c]
	}
	return out, nil
}
