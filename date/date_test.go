package date

import (
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestAddMonths(t *testing.T) {
	testCases := []struct {
		name string
		in   Date
		n    int
		want Date
	}{
		{"end of january", New(2024, time.January, 31), 1, New(2024, time.February, 1)},
		{"over the year", New(2024, time.November, 15), 3, New(2025, time.February, 1)},
		{"backward", New(2024, time.March, 10), -3, New(2023, time.December, 1)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.AddMonths(tc.n); got != tc.want {
				t.Errorf("AddMonths(%d) = %v, want %v", tc.n, got, tc.want)
			}
		})
	}
}

func TestMonthsUntil(t *testing.T) {
	from := New(2020, time.November, 20)
	if got := from.MonthsUntil(New(2021, time.February, 1)); got != 3 {
		t.Errorf("MonthsUntil() = %d, want 3", got)
	}
	if got := from.MonthsUntil(from); got != 0 {
		t.Errorf("MonthsUntil(self) = %d, want 0", got)
	}
}

func TestMonths(t *testing.T) {
	from, to := New(2024, time.January, 15), New(2024, time.March, 10)
	var got []Range
	for i, r := range Months(from, to) {
		if i != len(got) {
			t.Fatalf("Months() index = %d, want %d", i, len(got))
		}
		got = append(got, r)
	}
	want := []Range{
		{From: New(2024, time.January, 15), To: New(2024, time.January, 31)},
		{From: New(2024, time.February, 1), To: New(2024, time.February, 29)},
		{From: New(2024, time.March, 1), To: New(2024, time.March, 10)},
	}
	if len(got) != len(want) {
		t.Fatalf("Months() yielded %d months, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Months()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMonths_Empty(t *testing.T) {
	for range Months(New(2024, 2, 1), New(2024, 1, 1)) {
		t.Fatal("Months() with reversed bounds must not yield")
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("2025-7-1")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if want := New(2025, time.July, 1); got != want {
		t.Errorf("Parse() = %v, want %v", got, want)
	}
	if _, err := Parse("01/07/2025"); err == nil {
		t.Error("Parse() of a non ISO date should fail")
	}
}

func TestDate_JSON(t *testing.T) {
	d := New(2024, time.February, 29)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2024-02-29"` {
		t.Errorf("MarshalJSON() = %s", b)
	}
	var back Date
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatal(err)
	}
	if back != d {
		t.Errorf("UnmarshalJSON() = %v, want %v", back, d)
	}
}
