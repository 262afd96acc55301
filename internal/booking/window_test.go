package booking

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
}

func mustWindow(t *testing.T, start time.Time, minutes int) Window {
	t.Helper()
	w, err := NewWindow(start, minutes)
	if err != nil {
		t.Fatalf("NewWindow error: %v", err)
	}
	return w
}

func TestNewWindow_RejectsNonPositiveDuration(t *testing.T) {
	for _, minutes := range []int{0, -30} {
		if _, err := NewWindow(at(10, 0), minutes); err == nil {
			t.Fatalf("NewWindow(%d) expected error", minutes)
		}
	}
}

func TestNewWindow_EndIsExclusiveStartPlusDuration(t *testing.T) {
	w := mustWindow(t, at(10, 0), 90)
	if !w.End.Equal(at(11, 30)) {
		t.Fatalf("end = %v, want %v", w.End, at(11, 30))
	}
	if w.Duration() != 90*time.Minute {
		t.Fatalf("duration = %s, want 90m", w.Duration())
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a    Window
		b    Window
		want bool
	}{
		{"back to back", mustWindow(t, at(10, 0), 60), mustWindow(t, at(11, 0), 60), false},
		{"partial overlap", mustWindow(t, at(10, 0), 60), mustWindow(t, at(10, 30), 60), true},
		{"containment", mustWindow(t, at(10, 0), 120), mustWindow(t, at(10, 30), 30), true},
		{"identical", mustWindow(t, at(10, 0), 60), mustWindow(t, at(10, 0), 60), true},
		{"disjoint", mustWindow(t, at(8, 0), 30), mustWindow(t, at(12, 0), 30), false},
		{"one minute overlap", mustWindow(t, at(10, 0), 61), mustWindow(t, at(11, 0), 60), true},
		{"same start different length", mustWindow(t, at(10, 0), 15), mustWindow(t, at(10, 0), 120), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Fatalf("Overlaps(a, b) = %v, want %v", got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Fatalf("Overlaps(b, a) = %v, want %v", got, tt.want)
			}
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Fatalf("a.Overlaps(b) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlaps_SymmetricAndReflexiveAcrossGrid(t *testing.T) {
	var windows []Window
	for start := 0; start < 6*60; start += 15 {
		for _, minutes := range []int{15, 30, 45, 60, 90, 120} {
			windows = append(windows, mustWindow(t, at(8, 0).Add(time.Duration(start)*time.Minute), minutes))
		}
	}

	for i, a := range windows {
		if !Overlaps(a, a) {
			t.Fatalf("window %d does not overlap itself", i)
		}
		for _, b := range windows {
			if Overlaps(a, b) != Overlaps(b, a) {
				t.Fatalf("asymmetric overlap for %v and %v", a, b)
			}
		}
	}
}

func TestFormatTime(t *testing.T) {
	if got := FormatTime(at(14, 5)); got != "2026-03-14 02:05 PM" {
		t.Fatalf("FormatTime = %q", got)
	}
	if got := FormatTime(at(9, 0)); got != "2026-03-14 09:00 AM" {
		t.Fatalf("FormatTime = %q", got)
	}
}
