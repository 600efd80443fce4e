package mat

import "fmt"

// Matrix is a dense row-major float64 buffer with a shape fixed at
// construction. It is the payload type passed across the ensemble
// reduction boundary, so its layout stays flat and contiguous.
type Matrix struct {
	rows int
	cols int
	data []float64
}

func New(rows, cols int) *Matrix {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("mat: invalid shape %dx%d", rows, cols))
	}
	return &Matrix{
		rows: rows,
		cols: cols,
		data: make([]float64, rows*cols),
	}
}

// FromSlice builds a 1×len(values) matrix holding a copy of values.
func FromSlice(values []float64) *Matrix {
	m := New(1, len(values))
	copy(m.data, values)
	return m
}

func (m *Matrix) Rows() int { return m.rows }

func (m *Matrix) Cols() int { return m.cols }

func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.cols+j]
}

func (m *Matrix) Set(i, j int, v float64) {
	m.data[i*m.cols+j] = v
}

// Data returns the backing slice. Mutations write through to the matrix.
func (m *Matrix) Data() []float64 {
	return m.data
}

// Row returns the i-th row as a sub-slice of the backing storage.
func (m *Matrix) Row(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols]
}

func (m *Matrix) Clone() *Matrix {
	out := New(m.rows, m.cols)
	copy(out.data, m.data)
	return out
}

// CopyFrom overwrites m with the contents of src. Shapes must match.
func (m *Matrix) CopyFrom(src *Matrix) error {
	if !m.SameShape(src) {
		return fmt.Errorf("mat: shape mismatch %dx%d vs %dx%d", m.rows, m.cols, src.rows, src.cols)
	}
	copy(m.data, src.data)
	return nil
}

// AddInPlace accumulates other into m element-wise. Shapes must match.
func (m *Matrix) AddInPlace(other *Matrix) error {
	if !m.SameShape(other) {
		return fmt.Errorf("mat: shape mismatch %dx%d vs %dx%d", m.rows, m.cols, other.rows, other.cols)
	}
	for i, v := range other.data {
		m.data[i] += v
	}
	return nil
}

func (m *Matrix) SameShape(other *Matrix) bool {
	return other != nil && m.rows == other.rows && m.cols == other.cols
}

func (m *Matrix) Zero() {
	for i := range m.data {
		m.data[i] = 0
	}
}
