package schedule

import "testing"

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"09:00", 540, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"09:30:15", 570, false}, // seconds accepted and stripped
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"9:00", 0, true},
		{"", 0, true},
		{"morning", 0, true},
	}
	for _, c := range cases {
		got, err := ParseClock(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseClock(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestClockString(t *testing.T) {
	c, err := ParseClock("09:05:59")
	if err != nil {
		t.Fatalf("ParseClock: %v", err)
	}
	if c.String() != "09:05" {
		t.Fatalf("expected seconds stripped on output, got %q", c.String())
	}
}

func TestWeekday(t *testing.T) {
	// 2026-02-01 is a Sunday.
	wd, err := Weekday("2026-02-01")
	if err != nil {
		t.Fatalf("Weekday: %v", err)
	}
	if wd != 0 {
		t.Fatalf("expected Sunday=0, got %d", wd)
	}
	wd, err = Weekday("2026-02-02")
	if err != nil {
		t.Fatalf("Weekday: %v", err)
	}
	if wd != 1 {
		t.Fatalf("expected Monday=1, got %d", wd)
	}
	if _, err := Weekday("02/01/2026"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}

func TestSlotName(t *testing.T) {
	start, _ := ParseClock("09:00")
	end, _ := ParseClock("10:00")
	if got := SlotName(start, end); got != "09:00 - 10:00" {
		t.Fatalf("unexpected slot name %q", got)
	}
}
