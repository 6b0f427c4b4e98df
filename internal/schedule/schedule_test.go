package schedule

import (
	"testing"
	"time"
)

func TestIsQuietHour(t *testing.T) {
	at := time.Date(2025, 3, 1, 3, 30, 0, 0, time.UTC)
	if !IsQuietHour(at, []int{0, 1, 2, 3, 4, 5}) {
		t.Fatalf("03:30 should be quiet")
	}
	if IsQuietHour(at, []int{12, 13}) {
		t.Fatalf("03:30 should not be quiet")
	}
	if IsQuietHour(at, nil) {
		t.Fatalf("no quiet hours configured")
	}
}

func TestNextWindowSkipsQuietHours(t *testing.T) {
	at := time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC)
	next := NextWindow(at, []int{0, 1, 2, 3, 4, 5})
	if next.Hour() != 6 {
		t.Fatalf("next window hour %d, want 6", next.Hour())
	}
}
