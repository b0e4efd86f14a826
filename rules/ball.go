package rules

// BallFixedUpdate exists to match the replay loop's three-call
// convention (ball, player, physics); a ball has no
// per-frame rule logic of its own: its motion is left to physics.Engine's
// integration and collision resolution. The impulse solver (where the
// restitution set at spawn time applies) acts only on pairs of dynamic
// bodies, so against the static arena walls the ball is pushed out by the
// position solver but its velocity is not reflected.
func BallFixedUpdate(*BallComponent) {}
