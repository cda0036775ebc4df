package runner

import (
	"testing"
	"time"
)

func TestParseHHMM(t *testing.T) {
	cases := []struct {
		in         string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{"09:35", 9, 35, false},
		{"00:00", 0, 0, false},
		{"23:59", 23, 59, false},
		{"24:00", 0, 0, true},
		{"09-35", 0, 0, true},
		{"9:60", 0, 0, true},
	}

	for _, c := range cases {
		hour, minute, err := parseHHMM(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("parseHHMM(%q): expected error, got none", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseHHMM(%q): unexpected error: %v", c.in, err)
		}
		if hour != c.wantHour || minute != c.wantMinute {
			t.Errorf("parseHHMM(%q) = %d:%d, want %d:%d", c.in, hour, minute, c.wantHour, c.wantMinute)
		}
	}
}

func TestScheduler_ScheduleDaily(t *testing.T) {
	s, err := NewScheduler(nil, "UTC")
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	fired := make(chan time.Time, 1)
	if err := s.ScheduleDaily("09:35", func(now time.Time) { fired <- now }); err != nil {
		t.Fatalf("ScheduleDaily: %v", err)
	}

	s.Start()
	defer s.Stop()

	select {
	case <-fired:
		t.Fatal("job should not fire immediately on Start")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewScheduler_InvalidTimezone(t *testing.T) {
	if _, err := NewScheduler(nil, "Not/AZone"); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}
