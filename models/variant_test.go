package models

import "testing"

func TestRawPriceEmpty(t *testing.T) {
	tests := []struct {
		name string
		raw  RawPrice
		want bool
	}{
		{"zero", RawPrice{}, true},
		{"blank entries", RawPrice{Texts: []string{" "}, Inputs: []string{"\t", ""}}, true},
		{"text", RawPrice{Texts: []string{"¥300"}}, false},
		{"input only", RawPrice{Inputs: []string{"8.0"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.raw.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
}
