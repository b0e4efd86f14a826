package rollback_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SAE-Geneve/roolback-St0wy/rollback"
)

func TestComputePhysicsStateIsDeterministic(t *testing.T) {
	a := rollback.ComputePhysicsState(1.5, -2.25, 0.001, 400, 3.14159, -0.5)
	b := rollback.ComputePhysicsState(1.5, -2.25, 0.001, 400, 3.14159, -0.5)
	require.Equal(t, a, b)
}

// TestComputePhysicsStateULPSensitivity pins the bijection-sensitivity
// property: perturbing any single field by one ULP must change the
// digest, since it is the bit patterns that are summed, not the values.
func TestComputePhysicsStateULPSensitivity(t *testing.T) {
	fields := [6]float32{1.5, -2.25, 0.001, 400, 3.14159, -0.5}
	base := rollback.ComputePhysicsState(fields[0], fields[1], fields[2], fields[3], fields[4], fields[5])

	for i := range fields {
		perturbed := fields
		perturbed[i] = math.Float32frombits(math.Float32bits(perturbed[i]) + 1)
		got := rollback.ComputePhysicsState(perturbed[0], perturbed[1], perturbed[2], perturbed[3], perturbed[4], perturbed[5])
		require.NotEqual(t, base, got, "a one-ULP change to field %d must change the digest", i)
	}
}

// Negative zero and positive zero compare equal as floats but have
// distinct bit patterns; the digest must tell them apart, or two peers
// could "agree" while holding states that diverge on the next step.
func TestComputePhysicsStateDistinguishesSignedZero(t *testing.T) {
	plus := rollback.ComputePhysicsState(0, 0, 0, 0, 0, 0)
	minus := rollback.ComputePhysicsState(float32(math.Copysign(0, -1)), 0, 0, 0, 0, 0)
	require.NotEqual(t, plus, minus)
}

// The sum wraps modulo 2^32 rather than saturating or erroring: large
// bit patterns must still fold into a well-defined digest.
func TestComputePhysicsStateWrapsAround(t *testing.T) {
	big := float32(math.Inf(-1)) // 0xFF800000, large as a bit pattern
	a := rollback.ComputePhysicsState(big, big, big, big, big, big)
	b := rollback.ComputePhysicsState(big, big, big, big, big, big)
	require.Equal(t, a, b)
	// 6 * 0xFF800000 = 0x5FD000000; modulo 2^32 that is 0xFD000000.
	require.Equal(t, rollback.PhysicsState(0xFD000000), a)
}
