package dataset

import (
	"fmt"
	"sort"
)

// Row represents one weekly observation for a (store, brand) series.
// Logmove is the log of unit sales; when Missing is true the observation
// exists on the weekly grid but its value is unknown.
type Row struct {
	Store   int     `json:"store"`
	Brand   string  `json:"brand"`
	Week    int     `json:"week"`
	Logmove float64 `json:"logmove"`
	Price   float64 `json:"price,omitempty"`
	Deal    bool    `json:"deal,omitempty"`
	Feat    bool    `json:"feat,omitempty"`
	Missing bool    `json:"missing,omitempty"`
}

// Key returns the row's group key
func (r Row) Key() GroupKey {
	return GroupKey{Store: r.Store, Brand: r.Brand}
}

// GroupKey identifies one independent series: a (store, brand) combination
type GroupKey struct {
	Store int    `json:"store"`
	Brand string `json:"brand"`
}

// String returns the canonical "store/brand" form
func (k GroupKey) String() string {
	return fmt.Sprintf("%d/%s", k.Store, k.Brand)
}

// Less orders keys by store, then brand
func (k GroupKey) Less(other GroupKey) bool {
	if k.Store != other.Store {
		return k.Store < other.Store
	}
	return k.Brand < other.Brand
}

// Partition is one independent train or test slice of the source dataset.
// Read-only after loading; operations that need to modify observations work
// on a Clone.
type Partition struct {
	Name string `json:"name"`
	Rows []Row  `json:"rows"`
}

// Validate checks partition shape: a name, at least one row, and no
// duplicate (store, brand, week) observations
func (p *Partition) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("partition has no name")
	}

	if len(p.Rows) == 0 {
		return fmt.Errorf("partition %s has no rows", p.Name)
	}

	type obsKey struct {
		GroupKey
		week int
	}
	seen := make(map[obsKey]bool, len(p.Rows))
	for _, r := range p.Rows {
		k := obsKey{GroupKey: r.Key(), week: r.Week}
		if seen[k] {
			return fmt.Errorf("partition %s: duplicate observation for %s week %d", p.Name, r.Key(), r.Week)
		}
		seen[k] = true
	}

	return nil
}

// Groups returns the distinct group keys present, sorted by store then brand
func (p *Partition) Groups() []GroupKey {
	seen := make(map[GroupKey]bool)
	var keys []GroupKey
	for _, r := range p.Rows {
		k := r.Key()
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// HasGroup reports whether any row belongs to the given group
func (p *Partition) HasGroup(key GroupKey) bool {
	for _, r := range p.Rows {
		if r.Key() == key {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the partition
func (p *Partition) Clone() Partition {
	rows := make([]Row, len(p.Rows))
	copy(rows, p.Rows)
	return Partition{Name: p.Name, Rows: rows}
}

// Dataset pairs ordered training partitions with their matching test
// partitions. Train[i] and Test[i] are the i-th split of the source data.
type Dataset struct {
	Train []Partition `json:"train"`
	Test  []Partition `json:"test"`
}

// Validate checks the train/test pairing and each partition's shape. Pairs
// must carry the same name: downstream stages address test partitions both
// by index and by name, and the two must agree.
func (d *Dataset) Validate() error {
	if len(d.Train) == 0 {
		return fmt.Errorf("dataset has no training partitions")
	}

	if len(d.Train) != len(d.Test) {
		return fmt.Errorf("dataset has %d training partitions but %d test partitions", len(d.Train), len(d.Test))
	}

	for i := range d.Train {
		if err := d.Train[i].Validate(); err != nil {
			return fmt.Errorf("train[%d]: %w", i, err)
		}
		if err := d.Test[i].Validate(); err != nil {
			return fmt.Errorf("test[%d]: %w", i, err)
		}
		if d.Train[i].Name != d.Test[i].Name {
			return fmt.Errorf("split %d pairs train partition %q with test partition %q", i, d.Train[i].Name, d.Test[i].Name)
		}
	}

	return nil
}
