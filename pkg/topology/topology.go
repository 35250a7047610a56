package topology

import (
	"fmt"
	"math"
	"strings"

	"github.com/edp1096/toy-pwm/internal/consts"
)

type Topology int

const (
	B2 Topology = iota // half bridge
	B4                 // full bridge
	B6                 // two-level three-phase
)

func Parse(s string) (Topology, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "B2":
		return B2, nil
	case "B4":
		return B4, nil
	case "B6":
		return B6, nil
	}
	return B6, fmt.Errorf("unknown topology %q", s)
}

func (t Topology) String() string {
	switch t {
	case B2:
		return "B2"
	case B4:
		return "B4"
	case B6:
		return "B6"
	}
	return fmt.Sprintf("Topology(%d)", int(t))
}

// Phases is the number of switching legs.
func (t Topology) Phases() int {
	switch t {
	case B2:
		return consts.PhasesB2
	case B4:
		return consts.PhasesB4
	}
	return consts.PhasesB6
}

// PhaseOffsets are the reference phase shifts of each leg in rad.
func (t Topology) PhaseOffsets() []float64 {
	switch t {
	case B2:
		return []float64{0}
	case B4:
		return []float64{0, math.Pi}
	}
	return []float64{0, -consts.TwoPi / 3, consts.TwoPi / 3}
}

// MaxMi is the largest modulation index accepted before clamping.
func (t Topology) MaxMi() float64 {
	if t == B6 {
		return 4 / math.Pi
	}
	return 1
}

// PhaseNames labels the legs.
func (t Topology) PhaseNames() []string {
	return []string{"a", "b", "c"}[:t.Phases()]
}
