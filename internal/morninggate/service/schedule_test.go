package service

import (
	"testing"
	"time"
)

func TestIsHighPriority(t *testing.T) {
	cases := []struct {
		priority string
		want     bool
	}{
		{"High", true},
		{"high", true},
		{"Emergency", true},
		{"Urgent", true},
		{"Normal", false},
		{"Low", false},
		{"medium", false},
		{"cosmetic", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsHighPriority(tc.priority); got != tc.want {
			t.Errorf("IsHighPriority(%q) = %v, want %v", tc.priority, got, tc.want)
		}
	}
}

func TestRecommendedDateSkipsWeekendForLowPriority(t *testing.T) {
	friday := time.Date(2025, time.March, 7, 9, 0, 0, 0, time.UTC)
	if friday.Weekday() != time.Friday {
		t.Fatal("fixture is not a Friday")
	}

	got := RecommendedDate("Low", friday)
	if got.Weekday() != time.Monday {
		t.Fatalf("Low priority on a Friday recommended %s, want Monday", got.Weekday())
	}
	if got.Day() != 10 {
		t.Fatalf("recommended day %d, want the 10th", got.Day())
	}
}

func TestRecommendedDateMidweekIsTomorrow(t *testing.T) {
	tuesday := time.Date(2025, time.March, 4, 9, 0, 0, 0, time.UTC)
	if tuesday.Weekday() != time.Tuesday {
		t.Fatal("fixture is not a Tuesday")
	}

	got := RecommendedDate("Normal", tuesday)
	if got.Weekday() != time.Wednesday {
		t.Fatalf("Normal priority on a Tuesday recommended %s, want Wednesday", got.Weekday())
	}
}

func TestRecommendedDateHighPriorityIgnoresWeekend(t *testing.T) {
	friday := time.Date(2025, time.March, 7, 9, 0, 0, 0, time.UTC)
	got := RecommendedDate("Emergency", friday)
	if got.Weekday() != time.Saturday {
		t.Fatalf("Emergency on a Friday recommended %s, want Saturday", got.Weekday())
	}
}

func TestRecommendedDateWeekendSkipOnlyForNormalAndLow(t *testing.T) {
	friday := time.Date(2025, time.March, 7, 9, 0, 0, 0, time.UTC)

	for _, priority := range []string{"Medium", "Cosmetic"} {
		got := RecommendedDate(priority, friday)
		if got.Weekday() != time.Saturday {
			t.Errorf("%s on a Friday recommended %s, want Saturday", priority, got.Weekday())
		}
	}
	for _, priority := range []string{"Normal", "Low"} {
		got := RecommendedDate(priority, friday)
		if got.Weekday() != time.Monday {
			t.Errorf("%s on a Friday recommended %s, want Monday", priority, got.Weekday())
		}
	}
}

func TestIsIncompleteReason(t *testing.T) {
	for _, reason := range []string{
		"parts_needed", "access_denied", "tenant_reschedule",
		"equipment_issue", "time_ran_out", "emergency_redirect", "other",
	} {
		if !IsIncompleteReason(reason) {
			t.Errorf("IsIncompleteReason(%q) = false, want true", reason)
		}
	}
	if IsIncompleteReason("overslept") {
		t.Error("unknown reason accepted")
	}
}
