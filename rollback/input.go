package rollback

import "github.com/SAE-Geneve/roolback-St0wy/input"

// WindowBufferSize is the ring length: 5s of history at 50Hz.
const WindowBufferSize = 250

// InputBuffer is a single player's input ring. inputs[0] always holds
// currentFrame's input; older frames sit at higher indices.
type InputBuffer struct {
	inputs            [WindowBufferSize]input.PlayerInput
	currentFrame      int64
	lastReceivedFrame int64
}

// NewInputBuffer creates a buffer with everything defaulting to no input
// held and lastReceivedFrame sentineled to -1 (nothing received yet).
func NewInputBuffer() *InputBuffer {
	return &InputBuffer{lastReceivedFrame: -1}
}

// At returns the input recorded frames back from currentFrame (At(0) is
// currentFrame itself). Requesting further back than the window returns
// the oldest retained input.
func (b *InputBuffer) At(framesBack int64) input.PlayerInput {
	if framesBack < 0 {
		framesBack = 0
	}
	if framesBack >= WindowBufferSize {
		framesBack = WindowBufferSize - 1
	}
	return b.inputs[framesBack]
}

// CurrentFrame reports the frame inputs[0] represents.
func (b *InputBuffer) CurrentFrame() int64 { return b.currentFrame }

// LastReceivedFrame reports the highest frame this buffer has ever been
// told an authoritative (non-predicted) input for.
func (b *InputBuffer) LastReceivedFrame() int64 { return b.lastReceivedFrame }

// StartNewFrame advances the ring by newFrame - currentFrame positions,
// extending the most recently known input forward into the vacated head
// slots (predicted-hold). A newFrame at or behind currentFrame is a
// no-op.
func (b *InputBuffer) StartNewFrame(newFrame int64) {
	if newFrame <= b.currentFrame {
		return
	}
	delta := newFrame - b.currentFrame
	if delta >= WindowBufferSize {
		delta = WindowBufferSize
	}

	var shifted [WindowBufferSize]input.PlayerInput
	held := b.inputs[0]
	for i := int64(0); i < WindowBufferSize; i++ {
		if i < delta {
			shifted[i] = held
			continue
		}
		src := i - delta
		shifted[i] = b.inputs[src]
	}
	b.inputs = shifted
	b.currentFrame = newFrame
}

// CopyRecent copies the most recent len(dst) inputs into dst, dst[0]
// holding currentFrame's input and higher indices older frames —
// the same layout an outbound input packet carries on the wire.
func (b *InputBuffer) CopyRecent(dst []input.PlayerInput) {
	n := len(dst)
	if n > WindowBufferSize {
		n = WindowBufferSize
	}
	copy(dst, b.inputs[:n])
}

// SetInput records input for inputFrame. If inputFrame is ahead of
// currentFrame the buffer is advanced first. If inputFrame
// is newer than anything previously received, every ring slot newer than
// inputFrame (indices 0..idx-1) is backfilled with input too, on the
// assumption the opponent held it throughout (predicted-input policy).
func (b *InputBuffer) SetInput(in input.PlayerInput, inputFrame int64) {
	if inputFrame > b.currentFrame {
		b.StartNewFrame(inputFrame)
	}

	idx := b.currentFrame - inputFrame
	if idx < 0 || idx >= WindowBufferSize {
		return
	}
	b.inputs[idx] = in

	if inputFrame > b.lastReceivedFrame {
		b.lastReceivedFrame = inputFrame
		for i := int64(0); i < idx; i++ {
			b.inputs[i] = in
		}
	}
}
