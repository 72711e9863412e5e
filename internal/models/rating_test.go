package models

import "testing"

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name      string
		values    []int
		wantAvg   float64
		wantCount int
	}{
		{"no ratings", nil, 0, 0},
		{"single rating", []int{5}, 5, 1},
		{"three ratings", []int{5, 3, 4}, 4.0, 3},
		{"mixed", []int{1, 2, 3, 4}, 2.5, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg, count := AverageRating(tt.values)
			if avg != tt.wantAvg || count != tt.wantCount {
				t.Errorf("AverageRating(%v) = (%v, %d), want (%v, %d)",
					tt.values, avg, count, tt.wantAvg, tt.wantCount)
			}
		})
	}
}

func TestIsValidRating(t *testing.T) {
	for v, want := range map[int]bool{0: false, 1: true, 3: true, 5: true, 6: false, -1: false} {
		if got := IsValidRating(v); got != want {
			t.Errorf("IsValidRating(%d) = %v, want %v", v, got, want)
		}
	}
}
