package data

// Vector is a sparse numeric vector with a fixed logical length.
// Indices are strictly increasing and always smaller than Length.
type Vector struct {
	Indices []int
	Values  []float64
	Length  int
}

// NNZ returns the number of stored entries.
func (v Vector) NNZ() int {
	return len(v.Indices)
}

// Dot returns the inner product of v with the dense vector w.
func (v Vector) Dot(w []float64) float64 {
	var sum float64
	for i, idx := range v.Indices {
		sum += w[idx] * v.Values[i]
	}
	return sum
}

// AddScaledTo performs w += scale * v.
func (v Vector) AddScaledTo(w []float64, scale float64) {
	for i, idx := range v.Indices {
		w[idx] += scale * v.Values[i]
	}
}

// NormSquared returns the squared Euclidean norm of v.
func (v Vector) NormSquared() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return sum
}

// Dense expands v into a dense slice of length v.Length.
func (v Vector) Dense() []float64 {
	out := make([]float64, v.Length)
	for i, idx := range v.Indices {
		out[idx] = v.Values[i]
	}
	return out
}

// Concat joins vectors end to end, offsetting the indices of each part by
// the total length of the parts before it.
func Concat(parts ...Vector) Vector {
	var nnz, length int
	for _, p := range parts {
		nnz += p.NNZ()
	}

	out := Vector{
		Indices: make([]int, 0, nnz),
		Values:  make([]float64, 0, nnz),
	}
	for _, p := range parts {
		for i, idx := range p.Indices {
			out.Indices = append(out.Indices, idx+length)
			out.Values = append(out.Values, p.Values[i])
		}
		length += p.Length
	}
	out.Length = length
	return out
}
