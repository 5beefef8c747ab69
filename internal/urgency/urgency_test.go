package urgency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	ptr := func(t time.Time) *time.Time { return &t }

	cases := []struct {
		name      string
		due       *time.Time
		completed bool
		want      Tier
	}{
		{name: "no due date", due: nil, want: TierGreen},
		{name: "overdue yesterday", due: ptr(now.AddDate(0, 0, -1)), want: TierRed},
		{name: "due today", due: ptr(now), want: TierYellow},
		{name: "exactly five days out is yellow", due: ptr(now.AddDate(0, 0, 5)), want: TierYellow},
		{name: "six days out is green", due: ptr(now.AddDate(0, 0, 6)), want: TierGreen},
		{name: "far future", due: ptr(now.AddDate(0, 1, 0)), want: TierGreen},
		{name: "completed ignores due date", due: ptr(now.AddDate(0, 0, -30)), completed: true, want: TierCompleted},
		{name: "completed without due date", due: nil, completed: true, want: TierCompleted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(now, tc.due, tc.completed))
		})
	}
}

func TestClassifyPartialDays(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	// An hour overdue still rounds up to zero days, which is yellow,
	// matching ceil semantics; a full day overdue is red.
	hourAgo := now.Add(-time.Hour)
	require.Equal(t, TierYellow, Classify(now, &hourAgo, false))

	dayAgo := now.Add(-24 * time.Hour)
	require.Equal(t, TierRed, Classify(now, &dayAgo, false))
}
