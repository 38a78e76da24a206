package solver

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/gospod/spod/internal/spoderr"
)

// eigHermitian computes the Hermitian eigendecomposition of the n x n
// complex matrix M (row-major, M[i*n+j]), returning eigenvalues sorted
// descending and eigenvectors orthonormal in the Euclidean sense on
// C^n (spec.md §3, "Eigenpairs at f").
//
// gonum's mat package has no complex matrix type, so M is embedded as
// the 2n x 2n real symmetric matrix [[Re(M), -Im(M)], [Im(M), Re(M)]]:
// every eigenvalue of M appears twice in the embedding, with paired
// eigenvectors (x,y) and (-y,x) reconstructing the complex eigenvector
// x+iy up to a unit-modulus phase. This is the standard reduction of a
// Hermitian eigenproblem to a real symmetric one; gonum.org/v1/gonum/mat.EigenSym
// does the actual factorization.
//
// theta is returned row-major: theta[i*n+j] is Theta[i,j], the i-th
// component of the j-th eigenvector.
func eigHermitian(m []complex128, n int) (lambdaDesc []float64, theta []complex128, err error) {
	dim := 2 * n
	data := make([]float64, dim*dim)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := m[i*n+j]
			re, im := real(v), imag(v)
			data[i*dim+j] = re
			data[i*dim+(n+j)] = -im
			data[(n+i)*dim+j] = im
			data[(n+i)*dim+(n+j)] = re
		}
	}
	sym := mat.NewSymDense(dim, data)

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return nil, nil, spoderr.NewIOError(nil, "Hermitian eigendecomposition failed to converge")
	}
	values := eig.Values(nil) // ascending
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	type ranked struct {
		val float64
		idx int
	}
	ranks := make([]ranked, dim)
	for i, v := range values {
		ranks[i] = ranked{val: v, idx: i}
	}
	sort.SliceStable(ranks, func(a, b int) bool { return ranks[a].val < ranks[b].val })

	// Each distinct eigenvalue of M occupies an adjacent pair in the
	// ascending-sorted embedding spectrum; take one representative per
	// pair (either works, per the phase argument in the doc comment).
	lambdaAsc := make([]float64, n)
	thetaAsc := make([]complex128, n*n)
	for k := 0; k < n; k++ {
		r := ranks[2*k]
		lambdaAsc[k] = r.val
		for i := 0; i < n; i++ {
			re := vectors.At(i, r.idx)
			im := vectors.At(n+i, r.idx)
			thetaAsc[i*n+k] = complex(re, im)
		}
	}

	lambdaDesc = make([]float64, n)
	theta = make([]complex128, n*n)
	for k := 0; k < n; k++ {
		src := n - 1 - k
		lambdaDesc[k] = lambdaAsc[src]
		for i := 0; i < n; i++ {
			theta[i*n+k] = thetaAsc[i*n+src]
		}
	}
	return lambdaDesc, theta, nil
}
