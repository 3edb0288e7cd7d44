package ring

// Poly is the structure that contains the coefficients of a polynomial in
// RNS form. Coeffs[i][j] is the j-th coefficient reduced mod the i-th prime
// of the modulus chain.
type Poly struct {
	Coeffs [][]uint64
}

// NewPoly creates a new polynomial of degree N with level+1 RNS rows, all
// coefficients set to 0. The backing array is allocated in one block.
func NewPoly(N, level int) *Poly {
	p := new(Poly)
	buf := make([]uint64, (level+1)*N)
	p.Coeffs = make([][]uint64, level+1)
	for i := range p.Coeffs {
		p.Coeffs[i] = buf[i*N : (i+1)*N]
	}
	return p
}

// Level returns the current number of RNS rows minus one.
func (p *Poly) Level() int {
	return len(p.Coeffs) - 1
}

// Degree returns the number of coefficients per row.
func (p *Poly) Degree() int {
	if len(p.Coeffs) == 0 {
		return 0
	}
	return len(p.Coeffs[0])
}

// Zero sets all coefficients of the polynomial to 0.
func (p *Poly) Zero() {
	for i := range p.Coeffs {
		row := p.Coeffs[i]
		for j := range row {
			row[j] = 0
		}
	}
}

// Copy copies the coefficients of p1 on the target polynomial. The operation
// is done for the smallest of the two levels.
func (p *Poly) Copy(p1 *Poly) {
	for i := 0; i < len(p.Coeffs) && i < len(p1.Coeffs); i++ {
		copy(p.Coeffs[i], p1.Coeffs[i])
	}
}

// CopyNew creates an exact copy of the target polynomial.
func (p *Poly) CopyNew() *Poly {
	cp := NewPoly(p.Degree(), p.Level())
	for i := range p.Coeffs {
		copy(cp.Coeffs[i], p.Coeffs[i])
	}
	return cp
}

// CopyLvl copies the coefficients of p1 on p2 for the rows 0 to level.
func CopyLvl(level int, p1, p2 *Poly) {
	for i := 0; i <= level; i++ {
		copy(p2.Coeffs[i], p1.Coeffs[i])
	}
}

// Equal returns true if the two polynomials have the same number of rows and
// identical coefficients.
func (p *Poly) Equal(other *Poly) bool {
	if p == other {
		return true
	}
	if len(p.Coeffs) != len(other.Coeffs) {
		return false
	}
	for i := range p.Coeffs {
		if len(p.Coeffs[i]) != len(other.Coeffs[i]) {
			return false
		}
		for j := range p.Coeffs[i] {
			if p.Coeffs[i][j] != other.Coeffs[i][j] {
				return false
			}
		}
	}
	return true
}

// Resize truncates or extends the polynomial to level+1 rows. Added rows are
// zeroed.
func (p *Poly) Resize(level int) {
	N := p.Degree()
	if p.Level() > level {
		p.Coeffs = p.Coeffs[:level+1]
	} else if p.Level() < level {
		for p.Level() < level {
			p.Coeffs = append(p.Coeffs, make([]uint64, N))
		}
	}
}
