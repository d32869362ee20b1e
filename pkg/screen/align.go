package screen

// Global pairwise alignment with affine gap penalties (Gotoh). Scores match
// the screening defaults used for design/template residue mapping: match 1,
// mismatch 0, gap open -10, gap extend -0.5.
const (
	matchScore    = 1.0
	mismatchScore = 0.0
	gapOpen       = -10.0
	gapExtend     = -0.5
)

const negInf = -1e18

// AlignGlobal aligns a against b and returns both sequences padded with '-'
// at gap positions.
func AlignGlobal(a, b string) (string, string) {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return pad(a, m), pad(b, n)
	}

	// M: a[i] aligned to b[j]; X: gap in b; Y: gap in a.
	M := newMatrix(n+1, m+1)
	X := newMatrix(n+1, m+1)
	Y := newMatrix(n+1, m+1)

	M[0][0] = 0
	for i := 1; i <= n; i++ {
		M[i][0] = negInf
		Y[i][0] = negInf
		X[i][0] = gapOpen + float64(i-1)*gapExtend
	}
	for j := 1; j <= m; j++ {
		M[0][j] = negInf
		X[0][j] = negInf
		Y[0][j] = gapOpen + float64(j-1)*gapExtend
	}
	X[0][0], Y[0][0] = negInf, negInf

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			s := mismatchScore
			if a[i-1] == b[j-1] {
				s = matchScore
			}
			M[i][j] = max3(M[i-1][j-1], X[i-1][j-1], Y[i-1][j-1]) + s
			X[i][j] = max2(M[i-1][j]+gapOpen, X[i-1][j]+gapExtend)
			Y[i][j] = max2(M[i][j-1]+gapOpen, Y[i][j-1]+gapExtend)
		}
	}

	// Traceback from the best terminal state.
	var alignedA, alignedB []byte
	i, j := n, m
	state := bestState(M[n][m], X[n][m], Y[n][m])
	for i > 0 || j > 0 {
		switch {
		case state == 'M' && i > 0 && j > 0:
			alignedA = append(alignedA, a[i-1])
			alignedB = append(alignedB, b[j-1])
			s := mismatchScore
			if a[i-1] == b[j-1] {
				s = matchScore
			}
			prev := M[i][j] - s
			state = bestState(eq(prev, M[i-1][j-1]), eq(prev, X[i-1][j-1]), eq(prev, Y[i-1][j-1]))
			i--
			j--
		case state == 'X' && i > 0:
			alignedA = append(alignedA, a[i-1])
			alignedB = append(alignedB, '-')
			if approx(X[i][j], M[i-1][j]+gapOpen) {
				state = 'M'
			}
			i--
		case state == 'Y' && j > 0:
			alignedA = append(alignedA, '-')
			alignedB = append(alignedB, b[j-1])
			if approx(Y[i][j], M[i][j-1]+gapOpen) {
				state = 'M'
			}
			j--
		case i > 0:
			alignedA = append(alignedA, a[i-1])
			alignedB = append(alignedB, '-')
			i--
		default:
			alignedA = append(alignedA, '-')
			alignedB = append(alignedB, b[j-1])
			j--
		}
	}
	reverse(alignedA)
	reverse(alignedB)
	return string(alignedA), string(alignedB)
}

// MapResidues aligns the two sequences and maps residue numbers of a to
// residue numbers of b at every aligned (non-gap) column.
func MapResidues(seqA string, numsA []int, seqB string, numsB []int) map[int]int {
	alignedA, alignedB := AlignGlobal(seqA, seqB)
	mapping := make(map[int]int)
	ai, bi := 0, 0
	for k := 0; k < len(alignedA); k++ {
		da, db := alignedA[k], alignedB[k]
		if da != '-' && db != '-' {
			mapping[numsA[ai]] = numsB[bi]
		}
		if da != '-' {
			ai++
		}
		if db != '-' {
			bi++
		}
	}
	return mapping
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func max3(a, b, c float64) float64 { return max2(a, max2(b, c)) }

func bestState(m, x, y float64) byte {
	switch {
	case m >= x && m >= y:
		return 'M'
	case x >= y:
		return 'X'
	default:
		return 'Y'
	}
}

func eq(target, v float64) float64 {
	if approx(target, v) {
		return v
	}
	return negInf
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}

func pad(s string, gaps int) string {
	if len(s) > 0 {
		return s
	}
	out := make([]byte, gaps)
	for i := range out {
		out[i] = '-'
	}
	return string(out)
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
