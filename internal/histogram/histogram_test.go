package histogram

import "testing"

func TestFromSorted(t *testing.T) {
	tests := []struct {
		name   string
		sorted []uint64
		want   Histogram
	}{
		{"empty", nil, nil},
		{"single", []uint64{5}, Histogram{{5, 1}}},
		{"runs", []uint64{1, 1, 2, 4, 4, 4}, Histogram{{1, 2}, {2, 1}, {4, 3}}},
		{"all equal", []uint64{7, 7, 7}, Histogram{{7, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromSorted(tt.sorted)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("bucket %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
			if got.Total() != uint64(len(tt.sorted)) {
				t.Errorf("Total = %d, want %d", got.Total(), len(tt.sorted))
			}
		})
	}
}

func TestRunLengthSortsCopy(t *testing.T) {
	values := []uint64{3, 1, 3, 2}
	got := RunLength(values)
	want := Histogram{{1, 1}, {2, 1}, {3, 2}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if values[0] != 3 || values[1] != 1 || values[2] != 3 || values[3] != 2 {
		t.Errorf("input mutated: %v", values)
	}
}

func TestDense(t *testing.T) {
	got, ok := Dense([]uint64{0, 1, 1, 2}, 4)
	if !ok {
		t.Fatal("Dense rejected in-domain values")
	}
	want := Histogram{{0, 1}, {1, 2}, {2, 1}, {3, 0}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if _, ok := Dense([]uint64{4}, 4); ok {
		t.Error("Dense accepted an out-of-domain value")
	}
}
