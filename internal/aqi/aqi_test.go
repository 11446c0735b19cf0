package aqi

import "testing"

func TestToConcentration(t *testing.T) {
	tests := []struct {
		name string
		aqi  int
		want float64
	}{
		{"zero", 0, 0.0},
		{"negative", -5, 0.0},
		{"top of first band", 50, 12.0},
		{"bottom of second band", 51, 12.1},
		{"mid second band", 100, 35.4},
		{"unhealthy", 151, 55.5},
		{"very unhealthy top", 300, 250.4},
		{"hazardous top", 500, 500.4},
		{"above scale falls back to aqi", 612, 612.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToConcentration(tt.aqi)
			if got != tt.want {
				t.Errorf("ToConcentration(%d) = %v, want %v", tt.aqi, got, tt.want)
			}
		})
	}
}

func TestToConcentrationMonotone(t *testing.T) {
	prev := ToConcentration(1)
	for aqi := 2; aqi <= 550; aqi++ {
		got := ToConcentration(aqi)
		if got < prev {
			t.Fatalf("ToConcentration(%d) = %v < ToConcentration(%d) = %v", aqi, got, aqi-1, prev)
		}
		prev = got
	}
}
