package dataset

import (
	"math"
	"testing"
)

func testPartition() Partition {
	return Partition{
		Name: "partition_1",
		Rows: []Row{
			{Store: 102, Brand: "dominicks", Week: 48, Logmove: 8.8},
			{Store: 101, Brand: "tropicana", Week: 47, Logmove: 9.1},
			{Store: 101, Brand: "tropicana", Week: 46, Logmove: 9.0},
			{Store: 101, Brand: "tropicana", Week: 48, Missing: true},
			{Store: 102, Brand: "dominicks", Week: 46, Logmove: 8.5},
			{Store: 102, Brand: "dominicks", Week: 47, Logmove: 8.6},
		},
	}
}

func TestPartitionGroups(t *testing.T) {
	p := testPartition()

	groups := p.Groups()
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	// Sorted by store then brand
	if groups[0] != (GroupKey{Store: 101, Brand: "tropicana"}) {
		t.Errorf("groups[0] = %v", groups[0])
	}
	if groups[1] != (GroupKey{Store: 102, Brand: "dominicks"}) {
		t.Errorf("groups[1] = %v", groups[1])
	}
}

func TestPartitionSeriesOrderedWithNaN(t *testing.T) {
	p := testPartition()

	s := p.Series(GroupKey{Store: 101, Brand: "tropicana"})
	if s.Len() != 3 {
		t.Fatalf("expected 3 grid points, got %d", s.Len())
	}

	wantWeeks := []int{46, 47, 48}
	for i, w := range wantWeeks {
		if s.Weeks[i] != w {
			t.Errorf("week[%d] = %d, want %d", i, s.Weeks[i], w)
		}
	}

	if s.Values[0] != 9.0 || s.Values[1] != 9.1 {
		t.Errorf("observed values wrong: %v", s.Values)
	}
	if !math.IsNaN(s.Values[2]) {
		t.Errorf("missing observation should be NaN, got %f", s.Values[2])
	}
}

func TestSeriesHelpers(t *testing.T) {
	p := testPartition()
	s := p.Series(GroupKey{Store: 101, Brand: "tropicana"})

	if !s.HasMissing() {
		t.Error("HasMissing should be true")
	}
	if got := s.ObservedCount(); got != 2 {
		t.Errorf("ObservedCount = %d, want 2", got)
	}
	if idx := s.MissingIndexes(); len(idx) != 1 || idx[0] != 2 {
		t.Errorf("MissingIndexes = %v", idx)
	}

	last, ok := s.LastObserved()
	if !ok || last != 9.1 {
		t.Errorf("LastObserved = %f, %v", last, ok)
	}

	first, at, ok := s.FirstObserved()
	if !ok || first != 9.0 || at != 0 {
		t.Errorf("FirstObserved = %f at %d, %v", first, at, ok)
	}

	obs := s.Observed()
	if len(obs) != 2 {
		t.Errorf("Observed = %v", obs)
	}
}

func TestPartitionValidate(t *testing.T) {
	tests := []struct {
		name      string
		partition Partition
		wantErr   bool
	}{
		{
			name:      "valid",
			partition: testPartition(),
			wantErr:   false,
		},
		{
			name:      "no name",
			partition: Partition{Rows: []Row{{Store: 1, Brand: "b", Week: 1}}},
			wantErr:   true,
		},
		{
			name:      "no rows",
			partition: Partition{Name: "empty"},
			wantErr:   true,
		},
		{
			name: "duplicate observation",
			partition: Partition{
				Name: "dup",
				Rows: []Row{
					{Store: 1, Brand: "b", Week: 1, Logmove: 1},
					{Store: 1, Brand: "b", Week: 1, Logmove: 2},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.partition.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPartitionClone(t *testing.T) {
	p := testPartition()
	c := p.Clone()

	c.Rows[0].Logmove = 99
	if p.Rows[0].Logmove == 99 {
		t.Error("Clone shares row storage with original")
	}
}

func TestDatasetValidate(t *testing.T) {
	train := testPartition()
	test := Partition{
		Name: "partition_1",
		Rows: []Row{{Store: 101, Brand: "tropicana", Week: 49, Logmove: 9.2}},
	}

	d := Dataset{Train: []Partition{train}, Test: []Partition{test}}
	if err := d.Validate(); err != nil {
		t.Fatalf("valid dataset rejected: %v", err)
	}

	renamed := test
	renamed.Name = "partition_2"
	mismatched := Dataset{Train: []Partition{train}, Test: []Partition{renamed}}
	if err := mismatched.Validate(); err == nil {
		t.Error("expected error for mismatched partition names")
	}

	unpaired := Dataset{Train: []Partition{train}}
	if err := unpaired.Validate(); err == nil {
		t.Error("expected error for unpaired train/test")
	}

	empty := Dataset{}
	if err := empty.Validate(); err == nil {
		t.Error("expected error for empty dataset")
	}
}
