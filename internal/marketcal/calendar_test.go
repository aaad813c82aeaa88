package marketcal

import (
	"testing"
	"time"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestIsMarketOpen(t *testing.T) {
	cal := New("America/New_York")
	ny := mustLoc(t, "America/New_York")

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{
			name: "one second before open",
			now:  time.Date(2025, 6, 17, 9, 29, 59, 0, ny), // Tuesday
			want: false,
		},
		{
			name: "open boundary inclusive",
			now:  time.Date(2025, 6, 17, 9, 30, 0, 0, ny),
			want: true,
		},
		{
			name: "close boundary inclusive",
			now:  time.Date(2025, 6, 17, 16, 0, 0, 0, ny),
			want: true,
		},
		{
			name: "one second after close",
			now:  time.Date(2025, 6, 17, 16, 0, 1, 0, ny),
			want: false,
		},
		{
			name: "midday session",
			now:  time.Date(2025, 6, 17, 12, 0, 0, 0, ny),
			want: true,
		},
		{
			name: "saturday midday",
			now:  time.Date(2025, 6, 21, 12, 0, 0, 0, ny),
			want: false,
		},
		{
			name: "sunday midday",
			now:  time.Date(2025, 6, 22, 12, 0, 0, 0, ny),
			want: false,
		},
		{
			name: "holiday at noon",
			now:  time.Date(2025, 7, 4, 12, 0, 0, 0, ny), // Independence Day
			want: false,
		},
		{
			name: "utc instant converted to local session",
			// 14:00 UTC == 10:00 EDT
			now:  time.Date(2025, 6, 17, 14, 0, 0, 0, time.UTC),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.IsMarketOpen(tt.now); got != tt.want {
				t.Errorf("IsMarketOpen(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestIsMarketOpenFailClosed(t *testing.T) {
	cal := New("Not/AZone")

	// A weekday noon that would be open with a working timezone
	now := time.Date(2025, 6, 17, 12, 0, 0, 0, time.UTC)
	if cal.IsMarketOpen(now) {
		t.Error("Expected fail-closed calendar to report closed")
	}

	if next := cal.NextMarketOpen(now); next != nil {
		t.Errorf("Expected nil next open on fail-closed calendar, got %v", next)
	}

	if _, ok := cal.TradingDate(now); ok {
		t.Error("Expected TradingDate to report not-ok on fail-closed calendar")
	}
}

func TestNextMarketOpen(t *testing.T) {
	cal := New("America/New_York")
	ny := mustLoc(t, "America/New_York")

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before open same day",
			now:  time.Date(2025, 6, 17, 8, 0, 0, 0, ny),
			want: time.Date(2025, 6, 17, 9, 30, 0, 0, ny),
		},
		{
			name: "after close rolls to next day",
			now:  time.Date(2025, 6, 17, 17, 0, 0, 0, ny),
			want: time.Date(2025, 6, 18, 9, 30, 0, 0, ny),
		},
		{
			name: "friday after close skips weekend",
			now:  time.Date(2025, 6, 20, 18, 0, 0, 0, ny),
			want: time.Date(2025, 6, 23, 9, 30, 0, 0, ny),
		},
		{
			name: "saturday skips to monday",
			now:  time.Date(2025, 6, 21, 10, 0, 0, 0, ny),
			want: time.Date(2025, 6, 23, 9, 30, 0, 0, ny),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cal.NextMarketOpen(tt.now)
			if got == nil {
				t.Fatal("NextMarketOpen() returned nil")
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextMarketOpen(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestTradingDate(t *testing.T) {
	cal := New("America/New_York")

	// 01:30 UTC on June 18 is still June 17 in New York
	now := time.Date(2025, 6, 18, 1, 30, 0, 0, time.UTC)
	date, ok := cal.TradingDate(now)
	if !ok {
		t.Fatal("TradingDate() reported not-ok")
	}

	want := time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC)
	if !date.Equal(want) {
		t.Errorf("TradingDate(%v) = %v, want %v", now, date, want)
	}
}

func TestHasHolidayTable(t *testing.T) {
	if !HasHolidayTable(2025) {
		t.Error("Expected 2025 holiday table to exist")
	}
	if HasHolidayTable(2099) {
		t.Error("Expected no 2099 holiday table")
	}
}
