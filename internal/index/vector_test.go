package index

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
	}{
		{name: "unit vector", input: []float32{1, 0, 0}},
		{name: "long vector", input: []float32{3, 4}},
		{name: "negative components", input: []float32{-1, 2, -3}},
		{name: "small components", input: []float32{0.001, 0.002}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Normalize(append([]float32(nil), tt.input...))
			var sum float64
			for _, x := range v {
				sum += float64(x) * float64(x)
			}
			if math.Abs(math.Sqrt(sum)-1.0) > 0.0001 {
				t.Errorf("norm = %v, want 1.0", math.Sqrt(sum))
			}
		})
	}

	t.Run("zero vector stays finite", func(t *testing.T) {
		v := Normalize([]float32{0, 0, 0})
		for i, x := range v {
			if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
				t.Errorf("component %d is not finite: %v", i, x)
			}
		}
	})
}

func TestNormalizeRows(t *testing.T) {
	m := [][]float32{
		{3, 4},
		{0, 5},
	}
	NormalizeRows(m)
	for i, row := range m {
		var sum float64
		for _, x := range row {
			sum += float64(x) * float64(x)
		}
		if math.Abs(math.Sqrt(sum)-1.0) > 0.0001 {
			t.Errorf("row %d norm = %v, want 1.0", i, math.Sqrt(sum))
		}
	}
}

func TestDot(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{name: "identical unit vectors", a: []float32{1, 0}, b: []float32{1, 0}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "mismatched lengths", a: []float32{1, 0}, b: []float32{1, 0, 0}, want: 0},
		{name: "empty", a: []float32{}, b: []float32{}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Dot(tt.a, tt.b); math.Abs(float64(got-tt.want)) > 0.0001 {
				t.Errorf("Dot(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
