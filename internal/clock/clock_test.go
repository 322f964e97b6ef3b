package clock

import (
	"testing"
	"time"
)

func TestNewFixed_NormalizesToUTC(t *testing.T) {
	t.Parallel()

	seoul := time.FixedZone("KST", 9*3600)
	c := NewFixed(time.Date(2024, 1, 1, 9, 0, 0, 0, seoul))
	if got := c.Now(); got.Location() != time.UTC || got.Hour() != 0 {
		t.Fatalf("expected midnight UTC, got %v", got)
	}
}

func TestNextHour(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "mid hour",
			now:  time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC),
			want: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "on the hour moves forward",
			now:  time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			want: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "crosses midnight",
			now:  time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
			want: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NextHour(NewFixed(tt.now)); !got.Equal(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNowMillis(t *testing.T) {
	t.Parallel()

	c := NewFixed(time.Date(2024, 1, 1, 8, 30, 0, 123456789, time.UTC))
	if got := NowMillis(c).Nanosecond(); got != 123000000 {
		t.Fatalf("expected millisecond precision, got %d ns", got)
	}
}
