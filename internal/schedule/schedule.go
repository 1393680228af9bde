// Package schedule runs reconciliation passes on a fixed interval.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/daviddao/sheetmail/internal/types"
)

// PassFunc runs one pass.
type PassFunc func(ctx context.Context) (*types.PassResult, error)

// Scheduler invokes a pass immediately and then after every interval.
// Passes never overlap; a failing or panicking pass is logged and the
// loop continues.
type Scheduler struct {
	Interval time.Duration
	Pass     PassFunc
	Log      zerolog.Logger

	// OnPass, if set, receives every completed pass result.
	OnPass func(*types.PassResult)
}

// Run blocks until ctx is cancelled. It returns nil on cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.Interval <= 0 {
		return fmt.Errorf("schedule: interval must be positive, got %s", s.Interval)
	}
	if s.Pass == nil {
		return errors.New("schedule: no pass function")
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		s.Log.Info().Msg("running pass")
		res, err := s.runOnce(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil:
			s.Log.Error().Err(err).Msg("pass failed")
		default:
			s.Log.Info().
				Int("rows", res.Rows).
				Int("sent", res.Sent).
				Int("marked", res.Marked).
				Int("failed", res.Failed).
				Dur("took", res.Duration).
				Msg("pass complete")
			if s.OnPass != nil {
				s.OnPass(res)
			}
		}

		s.Log.Info().Time("next", time.Now().Add(s.Interval)).Msgf("sleeping %s", s.Interval)
		timer.Reset(s.Interval)
	}
}

// runOnce converts a panic in the pass into an error.
func (s *Scheduler) runOnce(ctx context.Context) (res *types.PassResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, fmt.Errorf("pass panicked: %v", p)
		}
	}()
	res, err = s.Pass(ctx)
	if err == nil && res == nil {
		res = &types.PassResult{}
	}
	return res, err
}
