package rental

import (
	"testing"
	"time"
)

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDays_Inclusive(t *testing.T) {
	cases := []struct {
		start, end string
		want       int
	}{
		{"2024-01-01", "2024-01-01", 1},
		{"2024-01-01", "2024-01-03", 3},
		{"2024-02-27", "2024-03-01", 4}, // leap year
		{"2024-01-03", "2024-01-01", 0}, // inverted range
	}

	for _, tc := range cases {
		if got := Days(date(tc.start), date(tc.end)); got != tc.want {
			t.Errorf("Days(%s, %s) = %d, want %d", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestTotalPrice(t *testing.T) {
	if got := TotalPrice(100, date("2024-01-01"), date("2024-01-03")); got != 300 {
		t.Fatalf("TotalPrice = %d, want 300", got)
	}
	if got := TotalPrice(150, date("2024-06-10"), date("2024-06-10")); got != 150 {
		t.Fatalf("single-day TotalPrice = %d, want 150", got)
	}
}
