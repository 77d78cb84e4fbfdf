package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"slices"
	"time"

	"github.com/go-faster/errors"
)

// Goroutines fails when more than limit goroutines are running.
func Goroutines(limit int) Check {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("%d goroutines running, limit %d", n, limit)
		}
		return nil
	}
}

// GCPause fails when a recent stop-the-world pause exceeded limit.
func GCPause(limit time.Duration) Check {
	return func(context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)
		if len(stats.Pause) == 0 {
			return nil
		}
		if p := slices.Max(stats.Pause); p > limit {
			return errors.Errorf("gc pause %s exceeds %s", p, limit)
		}
		return nil
	}
}
