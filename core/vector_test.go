package core

import (
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float32
	}{
		{
			name: "identical vectors",
			a:    []float32{1, 0, 0},
			b:    []float32{1, 0, 0},
			want: 1,
		},
		{
			name: "orthogonal vectors",
			a:    []float32{1, 0},
			b:    []float32{0, 1},
			want: 0,
		},
		{
			name: "opposite vectors",
			a:    []float32{1, 0},
			b:    []float32{-1, 0},
			want: -1,
		},
		{
			name: "length mismatch",
			a:    []float32{1, 0},
			b:    []float32{1, 0, 0},
			want: 0,
		},
		{
			name: "zero vector",
			a:    []float32{0, 0},
			b:    []float32{1, 0},
			want: 0,
		},
		{
			name: "empty vectors",
			a:    nil,
			b:    nil,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosine_ScaleInvariant(t *testing.T) {
	a := []float32{0.3, 0.4, 0.5}
	scaled := []float32{0.6, 0.8, 1.0}

	got := Cosine(a, scaled)
	if math.Abs(float64(got)-1) > 1e-6 {
		t.Errorf("Cosine() of scaled vector = %v, want 1", got)
	}
}

func TestDot(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}

	if got := Dot(a, b); got != 32 {
		t.Errorf("Dot() = %v, want 32", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
	}{
		{
			name:  "simple vector",
			input: []float32{3, 4},
		},
		{
			name:  "negative components",
			input: []float32{-1, 2, -3},
		},
		{
			name:  "already normalized",
			input: []float32{1, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)

			var mag float64
			for _, v := range got {
				mag += float64(v) * float64(v)
			}
			mag = math.Sqrt(mag)

			if math.Abs(mag-1) > 1e-6 {
				t.Errorf("Normalize() magnitude = %v, want 1", mag)
			}
		})
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	got := Normalize([]float32{0, 0, 0})

	if len(got) != 3 {
		t.Fatalf("Normalize() length = %d, want 3", len(got))
	}
	for i, v := range got {
		if v != 0 {
			t.Errorf("Normalize() zero vector component %d = %v, want 0", i, v)
		}
	}
}

func TestNormalize_Empty(t *testing.T) {
	got := Normalize(nil)
	if len(got) != 0 {
		t.Errorf("Normalize() of empty vector = %v, want empty", got)
	}
}

func TestIsFinite(t *testing.T) {
	tests := []struct {
		name   string
		vector []float32
		want   bool
	}{
		{
			name:   "finite components",
			vector: []float32{0.1, -0.2, 0.3},
			want:   true,
		},
		{
			name:   "contains NaN",
			vector: []float32{0.1, float32(math.NaN())},
			want:   false,
		},
		{
			name:   "contains positive infinity",
			vector: []float32{float32(math.Inf(1))},
			want:   false,
		},
		{
			name:   "contains negative infinity",
			vector: []float32{float32(math.Inf(-1))},
			want:   false,
		},
		{
			name:   "empty vector",
			vector: nil,
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFinite(tt.vector); got != tt.want {
				t.Errorf("IsFinite() = %v, want %v", got, tt.want)
			}
		})
	}
}
