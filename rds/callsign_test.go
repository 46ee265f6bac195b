package rds

import "testing"

func TestCallSign(t *testing.T) {
	tests := []struct {
		name string
		pi   uint16
		want string
	}{
		{"first W", 21672, "WAAA"},
		{"last W", 39247, "WZZZ"},
		{"first K", 0x1000, "KAAA"},
		{"last K", 21671, "KZZZ"},
		{"KQED", 15019, "KQED"},
		{"WNYC", 31086, "WNYC"},
		{"below K, highest", 0x0FFF, "?GBM"},
		{"below K, lowest", 1, "?AAA"},
		{"zero", 0, UnknownCallSign},
		{"past WZZZ", 39248, UnknownCallSign},
		{"national code", 0xB201, UnknownCallSign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CallSign(tt.pi); got != tt.want {
				t.Errorf("CallSign(%d) = %q, want %q", tt.pi, got, tt.want)
			}
		})
	}
}
