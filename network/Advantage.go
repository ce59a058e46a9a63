package network

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
	"gonum.org/v1/gonum/mat"
)

// qValue adds Q(s, a) = A(s, a) + V(s) to the graph of lRaw, where
//
//	A(s, a) = -½ (a - μ)ᵀ L Lᵀ (a - μ)
//
// and L is the m×m lower triangular matrix whose strictly lower entries
// are taken from lRaw, whose diagonal is the exponential of the
// diagonal of lRaw, and whose upper triangle is zero. Each row of lRaw
// holds the m² entries of one matrix in row major order.
//
// The quadratic form is computed as ‖Lᵀu‖² with u = a - μ. Since the
// graph works on batches of flattened matrices, Lᵀu is formed with two
// constant matrices: expand repeats each component uᵢ across the m
// entries of row i, and gather sums the products Lᵢⱼuᵢ over i for each
// column j.
func qValue(lRaw, mu, actions, v *G.Node, batch, m int) (*G.Node, error) {
	g := lRaw.Graph()

	lower, diag := triangularMasks(batch, m)
	lowerMask := constMatrix(g, "lowerMask", lower, batch, m*m)
	diagMask := constMatrix(g, "diagMask", diag, batch, m*m)

	// Only the masked diagonal is exponentiated, so large off-diagonal
	// entries cannot overflow
	strict := G.Must(G.HadamardProd(lRaw, lowerMask))
	expDiag := G.Must(G.Exp(G.Must(G.HadamardProd(lRaw, diagMask))))
	expDiag = G.Must(G.HadamardProd(expDiag, diagMask))
	l := G.Must(G.Add(strict, expDiag))

	expand, gather := expandGather(m)
	expandNode := constMatrix(g, "expand", expand, m, m*m)
	gatherNode := constMatrix(g, "gather", gather, m*m, m)

	u, err := G.Sub(actions, mu)
	if err != nil {
		return nil, fmt.Errorf("qValue: could not compute a - μ: %v", err)
	}
	uExp := G.Must(G.Mul(u, expandNode))
	lu := G.Must(G.Mul(G.Must(G.HadamardProd(l, uExp)), gatherNode))

	quad := G.Must(G.Sum(G.Must(G.Square(lu)), 1))
	adv := G.Must(G.Mul(quad, G.NewConstant(-0.5, G.WithName("negHalf"))))

	return G.Add(adv, G.Must(G.Reshape(v, tensor.Shape{batch})))
}

// constMatrix adds a constant matrix input to g
func constMatrix(g *G.ExprGraph, name string, data []float64, rows,
	cols int) *G.Node {
	value := tensor.New(tensor.WithShape(rows, cols),
		tensor.WithBacking(data))
	return G.NewMatrix(g, tensor.Float64, G.WithShape(rows, cols),
		G.WithName(name), G.WithValue(value))
}

// triangularMasks returns batch copies of the flattened m×m masks
// selecting the strictly lower triangle and the diagonal
func triangularMasks(batch, m int) ([]float64, []float64) {
	lower := make([]float64, batch*m*m)
	diag := make([]float64, batch*m*m)
	for b := 0; b < batch; b++ {
		for i := 0; i < m; i++ {
			for j := 0; j <= i; j++ {
				idx := b*m*m + i*m + j
				if i == j {
					diag[idx] = 1
				} else {
					lower[idx] = 1
				}
			}
		}
	}
	return lower, diag
}

// expandGather returns the m×m² matrix E with E[i, i·m+j] = 1 and the
// m²×m matrix S with S[i·m+j, j] = 1
func expandGather(m int) ([]float64, []float64) {
	expand := make([]float64, m*m*m)
	gather := make([]float64, m*m*m)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			expand[i*m*m+i*m+j] = 1
			gather[(i*m+j)*m+j] = 1
		}
	}
	return expand, gather
}

// LowerFactor builds the lower triangular factor L of a single
// advantage matrix from the m² raw outputs of the L head, in row major
// order
func LowerFactor(raw []float64, m int) *mat.TriDense {
	if len(raw) != m*m {
		panic(fmt.Sprintf("lowerFactor: invalid number of entries "+
			"\n\twant(%v) \n\thave(%v)", m*m, len(raw)))
	}

	l := mat.NewTriDense(m, mat.Lower, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < i; j++ {
			l.SetTri(i, j, raw[i*m+j])
		}
		l.SetTri(i, i, math.Exp(raw[i*m+i]))
	}
	return l
}

// Precision returns P = L·Lᵀ for the lower triangular factor built from
// raw
func Precision(raw []float64, m int) *mat.SymDense {
	l := LowerFactor(raw, m)
	var p mat.SymDense
	p.SymOuterK(1, l)
	return &p
}

// Advantage returns -½ (a - μ)ᵀ P (a - μ) for the advantage matrix
// built from raw
func Advantage(raw, mu, action []float64) float64 {
	m := len(mu)
	if len(action) != m {
		panic(fmt.Sprintf("advantage: invalid action size \n\twant(%v) "+
			"\n\thave(%v)", m, len(action)))
	}

	u := mat.NewVecDense(m, nil)
	u.SubVec(mat.NewVecDense(m, action), mat.NewVecDense(m, mu))
	return -0.5 * mat.Inner(u, Precision(raw, m), u)
}
