package rollback_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SAE-Geneve/roolback-St0wy/input"
	"github.com/SAE-Geneve/roolback-St0wy/rollback"
)

// TestStartNewFrameShiftLaw pins the input shift law: after
// StartNewFrame(f+k), the slot k frames back holds what was the head,
// and every vacated head slot holds the most recently known input
// (predicted-hold).
func TestStartNewFrameShiftLaw(t *testing.T) {
	b := rollback.NewInputBuffer()
	b.SetInput(input.Left, 0)
	b.SetInput(input.Right, 1)

	b.StartNewFrame(4)

	require.Equal(t, int64(4), b.CurrentFrame())
	for i := int64(0); i <= 3; i++ {
		require.Equal(t, input.Right, b.At(i), "vacated slots and the shifted head must hold the held input")
	}
	require.Equal(t, input.Left, b.At(4), "frame 0's input must have shifted to index 4")
}

func TestStartNewFrameBehindCurrentIsNoOp(t *testing.T) {
	b := rollback.NewInputBuffer()
	b.SetInput(input.Up, 5)

	b.StartNewFrame(3)

	require.Equal(t, int64(5), b.CurrentFrame())
	require.Equal(t, input.Up, b.At(0))
}

// TestSetInputBackfillsPredictedSlots pins the predicted-input policy:
// a newly received input overwrites every ring slot younger than its
// frame, on the assumption the opponent held it since.
func TestSetInputBackfillsPredictedSlots(t *testing.T) {
	b := rollback.NewInputBuffer()
	b.StartNewFrame(5)

	b.SetInput(input.Up, 3)

	require.Equal(t, int64(3), b.LastReceivedFrame())
	require.Equal(t, input.Up, b.At(2), "the received frame itself")
	require.Equal(t, input.Up, b.At(1), "younger slots are backfilled")
	require.Equal(t, input.Up, b.At(0), "up to and including the head")
	require.Equal(t, input.PlayerInput(0), b.At(3), "older slots are untouched")
}

func TestSetInputOlderThanLastReceivedDoesNotBackfill(t *testing.T) {
	b := rollback.NewInputBuffer()
	b.StartNewFrame(5)
	b.SetInput(input.Up, 3)

	b.SetInput(input.Down, 1)

	require.Equal(t, int64(3), b.LastReceivedFrame())
	require.Equal(t, input.Down, b.At(4), "the late frame itself is recorded")
	require.Equal(t, input.PlayerInput(0), b.At(3), "slots between it and lastReceived stay as they were")
	require.Equal(t, input.Up, b.At(2))
}

func TestCopyRecentMatchesPacketLayout(t *testing.T) {
	b := rollback.NewInputBuffer()
	b.SetInput(input.Left, 0)
	b.SetInput(input.Right, 1)
	b.SetInput(input.Up, 2)

	dst := make([]input.PlayerInput, 4)
	b.CopyRecent(dst)

	require.Equal(t, input.Up, dst[0], "dst[0] is currentFrame's input")
	require.Equal(t, input.Right, dst[1])
	require.Equal(t, input.Left, dst[2])
	require.Equal(t, input.PlayerInput(0), dst[3])
}
