package handlers

import (
	"testing"
	"time"
)

func TestParseFlexibleTime(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2025-03-15T10:30:00Z", time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC), false},
		{"2025-03-15", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"15/03/2025", time.Time{}, true},
		{"", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := parseFlexibleTime(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseFlexibleTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !got.Equal(tt.want) {
			t.Errorf("parseFlexibleTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
