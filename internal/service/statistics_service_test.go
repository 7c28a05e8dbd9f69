package service

import (
	"testing"
	"time"
)

func TestStartOfDayUsesLocalMidnight(t *testing.T) {
	bangkok := time.FixedZone("ICT", 7*60*60)

	// 01:30 local time is still the previous day in UTC
	now := time.Date(2026, 3, 14, 1, 30, 0, 0, bangkok)
	got := startOfDay(now)

	want := time.Date(2026, 3, 14, 0, 0, 0, 0, bangkok)
	if !got.Equal(want) {
		t.Errorf("startOfDay = %v, want %v", got, want)
	}
	if got.Location() != bangkok {
		t.Errorf("location = %v, want %v", got.Location(), bangkok)
	}
}

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{name: "explicit range", from: "2026-01-01", to: "2026-01-31"},
		{name: "defaults to current month", from: "", to: ""},
		{name: "bad from", from: "01-01-2026", to: "2026-01-31", wantErr: true},
		{name: "bad to", from: "2026-01-01", to: "yesterday", wantErr: true},
		{name: "reversed", from: "2026-02-01", to: "2026-01-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := parseDateRange(tt.from, tt.to)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDateRange: %v", err)
			}
			if to.Before(from) {
				t.Errorf("to %v before from %v", to, from)
			}
		})
	}
}
