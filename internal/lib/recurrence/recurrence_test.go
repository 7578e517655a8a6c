package recurrence

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextPaymentDate_TableTests(t *testing.T) {
	tests := []struct {
		name string
		last time.Time
		freq Frequency
		n    int
		want time.Time
	}{
		{
			name: "daily adds exact days",
			last: date(2024, time.January, 15),
			freq: Daily,
			n:    10,
			want: date(2024, time.January, 25),
		},
		{
			name: "daily crosses month boundary",
			last: date(2024, time.January, 30),
			freq: Daily,
			n:    3,
			want: date(2024, time.February, 2),
		},
		{
			name: "weekly adds seven days per unit",
			last: date(2024, time.January, 15),
			freq: Weekly,
			n:    2,
			want: date(2024, time.January, 29),
		},
		{
			name: "monthly regular day",
			last: date(2024, time.January, 15),
			freq: Monthly,
			n:    1,
			want: date(2024, time.February, 15),
		},
		{
			name: "monthly clamps jan 31 to feb 29 in leap year",
			last: date(2024, time.January, 31),
			freq: Monthly,
			n:    1,
			want: date(2024, time.February, 29),
		},
		{
			name: "monthly clamps jan 31 to feb 28 in common year",
			last: date(2023, time.January, 31),
			freq: Monthly,
			n:    1,
			want: date(2023, time.February, 28),
		},
		{
			name: "monthly clamp does not stick for following months",
			last: date(2024, time.January, 31),
			freq: Monthly,
			n:    3,
			want: date(2024, time.April, 30),
		},
		{
			name: "monthly crosses year boundary",
			last: date(2024, time.November, 20),
			freq: Monthly,
			n:    3,
			want: date(2025, time.February, 20),
		},
		{
			name: "yearly from non-leap feb 28 into leap year",
			last: date(2023, time.February, 28),
			freq: Yearly,
			n:    1,
			want: date(2024, time.February, 28),
		},
		{
			name: "yearly clamps feb 29 to feb 28 in non-leap year",
			last: date(2024, time.February, 29),
			freq: Yearly,
			n:    1,
			want: date(2025, time.February, 28),
		},
		{
			name: "yearly several years",
			last: date(2024, time.June, 1),
			freq: Yearly,
			n:    2,
			want: date(2026, time.June, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextPaymentDate(tt.last, tt.freq, tt.n)
			if !got.Equal(tt.want) {
				t.Errorf("NextPaymentDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Повторный вызов с теми же аргументами обязан давать тот же результат.
func TestNextPaymentDate_Deterministic(t *testing.T) {
	last := date(2024, time.January, 31)
	first := NextPaymentDate(last, Monthly, 1)
	second := NextPaymentDate(last, Monthly, 1)
	if !first.Equal(second) {
		t.Errorf("repeated calls differ: %v vs %v", first, second)
	}
	if !last.Equal(date(2024, time.January, 31)) {
		t.Errorf("input date was mutated: %v", last)
	}
}

func TestParseFrequency(t *testing.T) {
	for _, valid := range []string{"DAILY", "WEEKLY", "MONTHLY", "YEARLY"} {
		if _, err := ParseFrequency(valid); err != nil {
			t.Errorf("ParseFrequency(%q) unexpected error: %v", valid, err)
		}
	}
	if _, err := ParseFrequency("HOURLY"); err == nil {
		t.Error("ParseFrequency(HOURLY) expected error, got nil")
	}
}
