package engine

import (
	"context"
	"time"

	"scamshield/internal/types"
)

// PlayTimeline replays segments in order, waiting the gap between
// consecutive timestamps before each delivery. Negative gaps (out-of-order
// timestamps) are clamped to zero so every segment is still delivered, in
// input order. Returns nil after the last segment, ctx.Err() if canceled;
// a segment is either delivered whole or not at all.
func PlayTimeline(ctx context.Context, segments []types.Segment, deliver func(types.Segment)) error {
	var prev int64
	for _, seg := range segments {
		wait := seg.TimestampMs - prev
		if wait < 0 {
			wait = 0
		}
		prev = seg.TimestampMs

		if wait > 0 {
			if !sleepCtx(ctx, time.Duration(wait)*time.Millisecond) {
				return ctx.Err()
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		deliver(seg)
	}
	return nil
}

// sleepCtx waits for d or until ctx is done, reporting whether the full
// wait elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
