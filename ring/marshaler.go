package ring

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// The canonical polynomial encoding is a 2 byte header (number of RNS rows,
// log2 of the degree) followed by the little-endian uint64 coefficients of
// each row in order. There is exactly one valid encoding per polynomial.

// GetDataLen returns the number of bytes of the canonical encoding of p.
func (p *Poly) GetDataLen() int {
	return 2 + len(p.Coeffs)*p.Degree()*8
}

// WriteTo encodes p on data and returns the number of bytes written.
func (p *Poly) WriteTo(data []byte) (int, error) {

	if len(data) < p.GetDataLen() {
		return 0, fmt.Errorf("ring: encoding buffer too small: need %d bytes, have %d", p.GetDataLen(), len(data))
	}

	N := p.Degree()
	data[0] = uint8(len(p.Coeffs))
	data[1] = uint8(bits.Len64(uint64(N)) - 1)

	ptr := 2
	for _, row := range p.Coeffs {
		for _, c := range row {
			binary.LittleEndian.PutUint64(data[ptr:], c)
			ptr += 8
		}
	}
	return ptr, nil
}

// DecodeFrom decodes a canonical polynomial encoding from data, resizing the
// receiver as needed, and returns the number of bytes read.
func (p *Poly) DecodeFrom(data []byte) (int, error) {

	if len(data) < 2 {
		return 0, fmt.Errorf("ring: invalid polynomial encoding: missing header")
	}

	rows := int(data[0])
	N := 1 << int(data[1])

	if rows == 0 {
		return 0, fmt.Errorf("ring: invalid polynomial encoding: zero rows")
	}

	if len(data) < 2+rows*N*8 {
		return 0, fmt.Errorf("ring: invalid polynomial encoding: need %d bytes, have %d", 2+rows*N*8, len(data))
	}

	if p.Degree() != N || p.Level() != rows-1 {
		*p = *NewPoly(N, rows-1)
	}

	ptr := 2
	for _, row := range p.Coeffs {
		for j := range row {
			row[j] = binary.LittleEndian.Uint64(data[ptr:])
			ptr += 8
		}
	}
	return ptr, nil
}

// MarshalBinary encodes p in its canonical form.
func (p *Poly) MarshalBinary() ([]byte, error) {
	data := make([]byte, p.GetDataLen())
	if _, err := p.WriteTo(data); err != nil {
		return nil, err
	}
	return data, nil
}

// UnmarshalBinary decodes a polynomial marshalled with MarshalBinary.
func (p *Poly) UnmarshalBinary(data []byte) error {
	_, err := p.DecodeFrom(data)
	return err
}
