package connectivity

// Matrix is a square success matrix. Cell (i, j) is true when machine i
// downloaded and verified the payload served by machine j.
type Matrix struct {
	cells [][]bool
}

// NewMatrix returns an n×n matrix with every cell false.
func NewMatrix(n int) *Matrix {
	cells := make([][]bool, n)
	for i := range cells {
		cells[i] = make([]bool, n)
	}
	return &Matrix{cells: cells}
}

// Size returns n.
func (m *Matrix) Size() int {
	return len(m.cells)
}

// Set records the result of probing j from i.
func (m *Matrix) Set(i, j int, ok bool) {
	m.cells[i][j] = ok
}

// Get returns the result of probing j from i.
func (m *Matrix) Get(i, j int) bool {
	return m.cells[i][j]
}

// AllTrue reports whether every cell succeeded. An empty matrix is all true.
func (m *Matrix) AllTrue() bool {
	return m.Failures() == 0
}

// Failures returns the number of false cells.
func (m *Matrix) Failures() int {
	n := 0
	for _, row := range m.cells {
		for _, ok := range row {
			if !ok {
				n++
			}
		}
	}
	return n
}
