package daykey

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{name: "empty string returns local", timezone: ""},
		{name: "Local returns local", timezone: "Local"},
		{name: "valid timezone UTC", timezone: "UTC"},
		{name: "valid timezone Asia/Seoul", timezone: "Asia/Seoul"},
		{name: "invalid timezone", timezone: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && loc == nil {
				t.Error("LoadLocation() returned nil location without error")
			}
			if ValidateTimezone(tt.timezone) == tt.wantErr {
				t.Errorf("ValidateTimezone(%q) disagrees with LoadLocation", tt.timezone)
			}
		})
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		b    time.Time
		want bool
	}{
		{"same instant", a, true},
		{"end of day", time.Date(2025, 5, 1, 23, 59, 59, 0, time.UTC), true},
		{"next day", time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC), false},
		{"previous day", time.Date(2025, 4, 30, 23, 59, 59, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameDay(a, tt.b); got != tt.want {
				t.Errorf("SameDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsToday(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	if !IsToday(time.Date(2025, 6, 15, 22, 0, 0, 0, time.UTC), now) {
		t.Error("expected same-day instant to be today")
	}
	if IsToday(time.Date(2025, 6, 14, 22, 0, 0, 0, time.UTC), now) {
		t.Error("expected previous day not to be today")
	}
}

func TestStartOfDayAndAddDays(t *testing.T) {
	in := time.Date(2025, 12, 31, 18, 45, 12, 5, time.UTC)
	start := StartOfDay(in)
	if start != time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC) {
		t.Errorf("StartOfDay() = %v", start)
	}
	if got := Key(AddDays(in, 1)); got != "2026-01-01" {
		t.Errorf("AddDays(+1) = %q", got)
	}
	if got := Key(AddDays(in, -365)); got != "2024-12-31" {
		t.Errorf("AddDays(-365) = %q", got)
	}
}

func TestMonthGrid(t *testing.T) {
	// February 2025 starts on a Saturday and has 28 days.
	grid := MonthGrid(time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC))
	if len(grid) != 5 {
		t.Fatalf("expected 5 weeks, got %d", len(grid))
	}
	for col := 0; col < 6; col++ {
		if !grid[0][col].IsZero() {
			t.Errorf("expected padding at week 0 col %d", col)
		}
	}
	if got := Key(grid[0][6]); got != "2025-02-01" {
		t.Errorf("first cell = %q", got)
	}
	if got := Key(grid[4][5]); got != "2025-02-28" {
		t.Errorf("last cell = %q", got)
	}
	if !grid[4][6].IsZero() {
		t.Error("expected trailing padding")
	}

	count := 0
	for _, week := range grid {
		for _, day := range week {
			if !day.IsZero() {
				count++
			}
		}
	}
	if count != 28 {
		t.Errorf("expected 28 days, got %d", count)
	}
}

func TestMonthBoundsAndParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-02", time.UTC)
	if err != nil {
		t.Fatalf("ParseMonth failed: %v", err)
	}
	first, last := MonthBounds(m)
	if first != "2024-02-01" || last != "2024-02-29" {
		t.Errorf("MonthBounds() = %q, %q", first, last)
	}
	if _, err := ParseMonth("2024-2", time.UTC); err == nil {
		t.Error("expected error for malformed month")
	}
}

func TestDisplayAndClock(t *testing.T) {
	tm := time.Date(2025, 1, 1, 7, 5, 0, 0, time.UTC)
	if got := Display(tm); got != "Wed, Jan 1" {
		t.Errorf("Display() = %q", got)
	}
	if got := Clock(tm); got != "07:05" {
		t.Errorf("Clock() = %q", got)
	}
}

func TestResolveDate(t *testing.T) {
	now := time.Date(2025, 1, 1, 23, 30, 0, 0, time.UTC)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	tests := []struct {
		in      string
		loc     *time.Location
		want    string
		wantErr bool
	}{
		{"", time.UTC, "2025-01-01", false},
		{"today", time.UTC, "2025-01-01", false},
		{"Yesterday", time.UTC, "2024-12-31", false},
		{"tomorrow", time.UTC, "2025-01-02", false},
		{"2024-02-29", time.UTC, "2024-02-29", false},
		{"today", tokyo, "2025-01-02", false},
		{"01/02/2025", time.UTC, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ResolveDate(tt.in, tt.loc, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && Key(got) != tt.want {
				t.Errorf("ResolveDate(%q) = %s, want %s", tt.in, Key(got), tt.want)
			}
		})
	}
}

func TestParseDue(t *testing.T) {
	got, err := ParseDue("2025-01-02 09:30", time.UTC)
	if err != nil {
		t.Fatalf("failed to parse due date: %v", err)
	}
	if !got.Equal(time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("ParseDue() = %v", got)
	}

	got, err = ParseDue("2025-01-02", time.UTC)
	if err != nil {
		t.Fatalf("failed to parse due day: %v", err)
	}
	if got.Hour() != 23 || got.Minute() != 59 {
		t.Errorf("expected end of day, got %v", got)
	}

	if _, err := ParseDue("next week", time.UTC); err == nil {
		t.Error("expected error for free-form due date")
	}
}
