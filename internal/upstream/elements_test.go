package upstream

import "testing"

func TestIsPrecipitationElement(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"sum(precipitation_amount PT1H)", true},
		{"sum(precipitation_amount PT6H)", true},
		{"sum(precipitation_amount P1D)", true},
		{"precipitation_amount", false},
		{"surface_snow_thickness", false},
		{"sum(duration_of_precipitation PT1H)", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsPrecipitationElement(tt.id); got != tt.want {
			t.Errorf("IsPrecipitationElement(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
