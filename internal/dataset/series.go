package dataset

import (
	"math"
	"sort"
)

// Series is one group's observations ordered by week. Values[i] is the
// logmove observed in Weeks[i]; missing observations carry NaN.
type Series struct {
	Weeks  []int
	Values []float64
}

// Series extracts the ordered series for a group. Rows flagged Missing
// surface as NaN so models can distinguish gaps from zeros.
func (p *Partition) Series(key GroupKey) Series {
	var rows []Row
	for _, r := range p.Rows {
		if r.Key() == key {
			rows = append(rows, r)
		}
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Week < rows[j].Week })

	s := Series{
		Weeks:  make([]int, len(rows)),
		Values: make([]float64, len(rows)),
	}
	for i, r := range rows {
		s.Weeks[i] = r.Week
		if r.Missing {
			s.Values[i] = math.NaN()
		} else {
			s.Values[i] = r.Logmove
		}
	}
	return s
}

// Len returns the number of grid points, observed or not
func (s Series) Len() int {
	return len(s.Values)
}

// Observed returns the non-missing values in order
func (s Series) Observed() []float64 {
	out := make([]float64, 0, len(s.Values))
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// ObservedCount returns the number of non-missing values
func (s Series) ObservedCount() int {
	n := 0
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// HasMissing reports whether any grid point is missing
func (s Series) HasMissing() bool {
	for _, v := range s.Values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// MissingIndexes returns grid positions holding NaN
func (s Series) MissingIndexes() []int {
	var idx []int
	for i, v := range s.Values {
		if math.IsNaN(v) {
			idx = append(idx, i)
		}
	}
	return idx
}

// LastObserved returns the most recent non-missing value
func (s Series) LastObserved() (float64, bool) {
	for i := len(s.Values) - 1; i >= 0; i-- {
		if !math.IsNaN(s.Values[i]) {
			return s.Values[i], true
		}
	}
	return 0, false
}

// FirstObserved returns the earliest non-missing value and its grid index
func (s Series) FirstObserved() (float64, int, bool) {
	for i, v := range s.Values {
		if !math.IsNaN(v) {
			return v, i, true
		}
	}
	return 0, 0, false
}
