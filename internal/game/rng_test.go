package game

import "testing"

func TestRNGParkMillerSequence(t *testing.T) {
	r := NewRNG(1)
	want := []int64{16807, 282475249, 1622650073, 984943658, 1144108930}
	for i, w := range want {
		if got := r.Next(); got != w {
			t.Fatalf("draw %d got=%d want=%d", i, got, w)
		}
	}
}

func TestRNGSeedNormalization(t *testing.T) {
	tests := []struct {
		seed int64
		want int64
	}{
		{seed: 42, want: 42},
		{seed: 2147483646, want: 2147483646},
		{seed: 2147483647, want: 1},
		{seed: 2147483646 * 3, want: 2147483646},
	}
	for _, tc := range tests {
		if got := NewRNG(tc.seed).State(); got != tc.want {
			t.Fatalf("seed=%d got=%d want=%d", tc.seed, got, tc.want)
		}
	}

	if s := NewRNG(0).State(); s < 1 || s > 2147483646 {
		t.Fatalf("time-derived seed %d out of range", s)
	}
}

func TestRNGDrawBounds(t *testing.T) {
	r := NewRNG(7)
	for i := 0; i < 10_000; i++ {
		f := r.Float()
		if f < 0 || f >= 1 {
			t.Fatalf("float %v out of [0,1)", f)
		}
		if idx := r.Pick(5); idx < 0 || idx > 4 {
			t.Fatalf("pick %d out of range", idx)
		}
		if v := r.Range(3, 4); v < 3 || v >= 4 {
			t.Fatalf("range %v out of [3,4)", v)
		}
	}
	if r.Pick(0) != 0 || r.Intn(-1) != 0 {
		t.Fatalf("empty pick must return 0")
	}
}

func TestRNGWeightedIndexSkipsZeroWeights(t *testing.T) {
	r := NewRNG(99)
	weights := []float64{0, 3, 0, 1}
	counts := make([]int, len(weights))
	for i := 0; i < 4000; i++ {
		counts[r.WeightedIndex(weights)]++
	}
	if counts[0] != 0 || counts[2] != 0 {
		t.Fatalf("zero weights picked: %v", counts)
	}
	if counts[1] <= counts[3] {
		t.Fatalf("weight 3 should dominate weight 1: %v", counts)
	}
}

func TestRNGSameSeedSameSequence(t *testing.T) {
	a, b := NewRNG(1234), NewRNG(1234)
	for i := 0; i < 100; i++ {
		if a.Float() != b.Float() {
			t.Fatalf("sequences diverged at draw %d", i)
		}
	}
}
