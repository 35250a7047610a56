package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// SystemMatrix is a real sparse matrix that is stamped once, factored once
// and then solved against many right hand sides.
type SystemMatrix struct {
	Size     int
	matrix   *sparse.Matrix
	rhs      []float64
	solution []float64
	factored bool
}

func NewMatrix(size int) (*SystemMatrix, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid matrix size %d", size)
	}

	config := &sparse.Configuration{
		Real:           true,
		Complex:        false,
		Expandable:     true,
		ModifiedNodal:  false,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("error creating sparse matrix: %w", err)
	}

	return &SystemMatrix{
		Size:     size,
		matrix:   mat,
		rhs:      make([]float64, size+1), // 1-based indexing
		solution: make([]float64, size+1),
	}, nil
}

// AddElement adds value at (i, j), 1-based.
func (m *SystemMatrix) AddElement(i, j int, value float64) error {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		return fmt.Errorf("matrix index out of bounds (i=%d, j=%d, size=%d)", i, j, m.Size)
	}
	if m.factored {
		return fmt.Errorf("matrix already factored")
	}
	m.matrix.GetElement(int64(i), int64(j)).Real += value
	return nil
}

func (m *SystemMatrix) Factor() error {
	if err := m.matrix.Factor(); err != nil {
		return fmt.Errorf("matrix factorization failed: %w", err)
	}
	m.factored = true
	return nil
}

// Solve solves M x = b for a 0-based b, factoring on first use.
// The returned slice is reused by the next call.
func (m *SystemMatrix) Solve(b []float64) ([]float64, error) {
	if len(b) != m.Size {
		return nil, fmt.Errorf("rhs length %d, want %d", len(b), m.Size)
	}
	if !m.factored {
		if err := m.Factor(); err != nil {
			return nil, err
		}
	}

	m.rhs[0] = 0
	copy(m.rhs[1:], b)

	sol, err := m.matrix.Solve(m.rhs)
	if err != nil {
		return nil, fmt.Errorf("matrix solve failed: %w", err)
	}
	m.solution = sol
	return m.solution[1 : m.Size+1], nil
}

func (m *SystemMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
		m.matrix = nil
	}
}
