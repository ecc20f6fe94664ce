// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package results

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// Event reports progress of Wait.
type Event struct {
	Phase     Phase
	Remaining int
	Err       error
}

// Wait is the headless poller: count down delay seconds, then fetch every
// interval until a fetch succeeds or ctx ends. onEvent may be nil.
func Wait(ctx context.Context, f *Fetcher, delay int, interval time.Duration, onEvent func(Event)) (*Result, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	emit := func(e Event) {
		if onEvent != nil {
			onEvent(e)
		}
	}

	if delay > 0 {
		remaining := delay
		emit(Event{Phase: Countdown, Remaining: remaining})
		err := wait.PollUntilContextCancel(ctx, time.Second, false, func(context.Context) (bool, error) {
			remaining--
			emit(Event{Phase: Countdown, Remaining: remaining})
			return remaining <= 0, nil
		})
		if err != nil {
			return nil, err
		}
	}

	var (
		result  *Result
		lastErr error
	)
	err := wait.PollUntilContextCancel(ctx, interval, true, func(ctx context.Context) (bool, error) {
		emit(Event{Phase: Fetching})
		r, err := f.Fetch(ctx)
		if err != nil {
			lastErr = err
			emit(Event{Phase: NotReady, Err: err})
			return false, nil
		}
		result = r
		return true, nil
	})
	if err != nil {
		if lastErr != nil {
			return nil, fmt.Errorf("%w (last attempt: %v)", err, lastErr)
		}
		return nil, err
	}
	emit(Event{Phase: Ready})
	return result, nil
}
