package pwm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edp1096/toy-pwm/pkg/topology"
)

var (
	ErrPhaseLength         = errors.New("mismatched phase array lengths")
	ErrUnsupportedTopology = errors.New("strategy not supported for topology")
	ErrReference           = errors.New("invalid reference")
)

type Strategy int

const (
	CarrierBased Strategy = iota
	FundamentalFrequency
	SpaceVector
)

type Update int

const (
	SingleEdge Update = iota
	DoubleEdge
)

type Sampling int

const (
	Regular Sampling = iota
	Natural
)

type Alignment int

const (
	Symmetric Alignment = iota
	RisingEdge
	FallingEdge
	Asymmetric
)

type Params struct {
	Topology  topology.Topology
	Strategy  Strategy
	Zero      ZeroSequence
	Update    Update
	Sampling  Sampling
	Alignment Alignment
	Sequence  Sequence

	Mi  float64
	Fel float64 // fundamental frequency
	Fs  float64 // switching frequency

	MinPulse int // samples
	DeadTime int // samples
}

func (s Strategy) String() string {
	switch s {
	case CarrierBased:
		return "CB"
	case FundamentalFrequency:
		return "FF"
	case SpaceVector:
		return "SV"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToUpper(s) {
	case "CB":
		return CarrierBased, nil
	case "FF":
		return FundamentalFrequency, nil
	case "SV":
		return SpaceVector, nil
	}
	return CarrierBased, fmt.Errorf("unknown PWM strategy %q", s)
}

func (u Update) String() string {
	if u == DoubleEdge {
		return "DE"
	}
	return "SE"
}

func ParseUpdate(s string) (Update, error) {
	switch strings.ToUpper(s) {
	case "SE":
		return SingleEdge, nil
	case "DE":
		return DoubleEdge, nil
	}
	return SingleEdge, fmt.Errorf("unknown update mode %q", s)
}

func (s Sampling) String() string {
	if s == Natural {
		return "NS"
	}
	return "RS"
}

func ParseSampling(s string) (Sampling, error) {
	switch strings.ToUpper(s) {
	case "RS":
		return Regular, nil
	case "NS":
		return Natural, nil
	}
	return Regular, fmt.Errorf("unknown sampling mode %q", s)
}

func (a Alignment) String() string {
	switch a {
	case RisingEdge:
		return "RE"
	case FallingEdge:
		return "FE"
	case Asymmetric:
		return "AM"
	}
	return "SM"
}

func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToUpper(s) {
	case "SM":
		return Symmetric, nil
	case "RE":
		return RisingEdge, nil
	case "FE":
		return FallingEdge, nil
	case "AM":
		return Asymmetric, nil
	}
	return Symmetric, fmt.Errorf("unknown carrier alignment %q", s)
}
