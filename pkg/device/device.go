package device

import (
	"github.com/edp1096/toy-pwm/pkg/lti"
)

// Model is a single-input single-output forced response simulator.
type Model interface {
	Order() int
	Response(u, t, x0 []float64) ([]float64, error)
}

var _ Model = (*lti.StateSpace)(nil)

// Device is a passive circuit element group that can be reduced to a Model.
type Device interface {
	GetName() string
	GetType() string
	Model(method lti.Method) (Model, error)
}

type BaseDevice struct {
	Name string
}

func (b *BaseDevice) GetName() string { return b.Name }
