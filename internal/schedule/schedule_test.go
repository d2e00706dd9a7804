package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestNextRun(t *testing.T) {
	t.Parallel()

	shanghai := time.FixedZone("CST", 8*60*60)
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2024, 1, 15, 10, 0, 0, 0, shanghai),
			want: time.Date(2024, 1, 15, 20, 30, 0, 0, shanghai),
		},
		{
			name: "exactly now rolls to tomorrow",
			now:  time.Date(2024, 1, 15, 20, 30, 0, 0, shanghai),
			want: time.Date(2024, 1, 16, 20, 30, 0, 0, shanghai),
		},
		{
			name: "month end",
			now:  time.Date(2024, 1, 31, 23, 0, 0, 0, shanghai),
			want: time.Date(2024, 2, 1, 20, 30, 0, 0, shanghai),
		},
		{
			name: "utc input converted",
			now:  time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC),
			want: time.Date(2024, 1, 16, 20, 30, 0, 0, shanghai),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NextRun(tt.now, 20, 30, shanghai)
			require.True(t, tt.want.Equal(got), "want %v got %v", tt.want, got)
		})
	}
}

func TestRunInvokesJobUntilCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	var waits []time.Duration
	s := New(Config{Hour: 20, Minute: 30},
		fixedClock{t: time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)},
		func(context.Context) error {
			calls++
			if calls == 3 {
				cancel()
			}
			return errors.New("origin down")
		},
		zap.NewNop(),
	)
	s.after = func(d time.Duration) <-chan time.Time {
		waits = append(waits, d)
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}

	err := s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 3, calls, "job errors must not stop the loop")
	require.Equal(t, 30*time.Minute, waits[0])
}
