package state

// UniformSource is the randomness consumed by the engine: congestion jitter,
// drop draws, reroute draws and packet header fields. *rngstream.RngStream
// satisfies it; tests substitute scripted sequences.
type UniformSource interface {
	// RandU01 returns a uniform draw in [0,1).
	RandU01() float64
	// RandInt returns a uniform draw in [low,high].
	RandInt(low, high int) int
}
