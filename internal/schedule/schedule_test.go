package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/daviddao/sheetmail/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunImmediatelyThenEveryInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	var results atomic.Int32
	s := &Scheduler{
		Interval: 10 * time.Millisecond,
		Log:      zerolog.Nop(),
		Pass: func(context.Context) (*types.PassResult, error) {
			if calls.Add(1) == 3 {
				cancel()
			}
			return &types.PassResult{Rows: 1}, nil
		},
		OnPass: func(*types.PassResult) { results.Add(1) },
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
	assert.GreaterOrEqual(t, results.Load(), int32(2))
}

func TestErrorsAndPanicsDoNotStopTheLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	s := &Scheduler{
		Interval: time.Millisecond,
		Log:      zerolog.Nop(),
		Pass: func(context.Context) (*types.PassResult, error) {
			switch calls.Add(1) {
			case 1:
				return nil, errors.New("sheets: 503")
			case 2:
				panic("nil tracker")
			default:
				cancel()
				return &types.PassResult{}, nil
			}
		},
	}

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, int32(3), calls.Load())
}

func TestCancelledBeforeFirstPass(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	s := &Scheduler{
		Interval: time.Hour,
		Log:      zerolog.Nop(),
		Pass: func(context.Context) (*types.PassResult, error) {
			calls.Add(1)
			return nil, nil
		},
	}

	// A closed Done channel and a ready timer race in select; either
	// way Run must return promptly without looping.
	require.NoError(t, s.Run(ctx))
	assert.LessOrEqual(t, calls.Load(), int32(1))
}

func TestCancelDuringPassExitsQuietly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		Interval: time.Hour,
		Log:      zerolog.Nop(),
		Pass: func(ctx context.Context) (*types.PassResult, error) {
			cancel()
			return nil, ctx.Err()
		},
	}
	require.NoError(t, s.Run(ctx))
}

func TestInvalidScheduler(t *testing.T) {
	assert.Error(t, (&Scheduler{Pass: func(context.Context) (*types.PassResult, error) { return nil, nil }}).Run(context.Background()))
	assert.Error(t, (&Scheduler{Interval: time.Second}).Run(context.Background()))
}
