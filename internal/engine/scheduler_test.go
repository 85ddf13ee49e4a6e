package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamshield/internal/types"
)

func timeline(timestamps ...int64) []types.Segment {
	segs := make([]types.Segment, len(timestamps))
	for i, ts := range timestamps {
		segs[i] = types.Segment{Speaker: types.SpeakerCaller, Text: "seg", TimestampMs: ts}
	}
	return segs
}

func TestPlayTimelineDeliversInOrder(t *testing.T) {
	var got []int64
	err := PlayTimeline(context.Background(), timeline(0, 10, 20), func(s types.Segment) {
		got = append(got, s.TimestampMs)
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 10, 20}, got)
}

func TestPlayTimelineCancelMidway(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Millisecond)
	defer cancel()

	var delivered int
	err := PlayTimeline(ctx, timeline(0, 30, 60, 85), func(types.Segment) {
		delivered++
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, delivered, "only segments due before cancellation are delivered")
}

func TestPlayTimelineClampsOutOfOrderTimestamps(t *testing.T) {
	var got []int64
	start := time.Now()
	err := PlayTimeline(context.Background(), timeline(20, 5, 30), func(s types.Segment) {
		got = append(got, s.TimestampMs)
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{20, 5, 30}, got, "out-of-order segments still delivered in input order")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestPlayTimelineCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := PlayTimeline(ctx, timeline(0, 10), func(types.Segment) {
		t.Fatal("no segment may be delivered on a dead context")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlayTimelineEmpty(t *testing.T) {
	assert.NoError(t, PlayTimeline(context.Background(), nil, func(types.Segment) {
		t.Fatal("unexpected delivery")
	}))
}
