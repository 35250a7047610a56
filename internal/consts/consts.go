package consts

import "math"

const (
	TwoPi   = 2 * math.Pi
	Sqrt2   = math.Sqrt2
	Sqrt3   = 1.7320508075688772 // sqrt(3)
	Deg2Rad = math.Pi / 180.0
	Rad2Deg = 180.0 / math.Pi
	Eps     = 2.220446049250313e-16 // float64 machine epsilon
)

// Topology phase counts
const (
	PhasesB2 = 1
	PhasesB4 = 2
	PhasesB6 = 3
)

// Bytes per simulated sample used for the memory headroom estimate
const (
	BytesSwitching = 20
	BytesCircuit   = 24
	BytesFloat     = 36
	BytesMisc      = 12
)
