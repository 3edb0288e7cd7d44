package ckks

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/exp/slices"

	"github.com/fedshield/lattice/ring"
)

// The scheme objects have exactly one canonical binary encoding, composed
// from the canonical ring.Poly encoding (2 byte header plus little-endian
// coefficient rows) and little-endian scalar metadata. Two equal objects
// always serialize to identical bytes.

// MarshalBinary encodes the plaintext as its scale followed by its value.
func (pt *Plaintext) MarshalBinary() ([]byte, error) {

	data := make([]byte, 8+pt.Value.GetDataLen())
	binary.LittleEndian.PutUint64(data, math.Float64bits(pt.Scale))
	if _, err := pt.Value.WriteTo(data[8:]); err != nil {
		return nil, err
	}
	return data, nil
}

// UnmarshalBinary decodes a plaintext marshalled with MarshalBinary.
func (pt *Plaintext) UnmarshalBinary(data []byte) error {

	if len(data) < 8 {
		return fmt.Errorf("ckks: invalid plaintext encoding")
	}
	pt.Scale = math.Float64frombits(binary.LittleEndian.Uint64(data))
	if pt.Value == nil {
		pt.Value = new(ring.Poly)
	}
	_, err := pt.Value.DecodeFrom(data[8:])
	return err
}

// MarshalBinary encodes the ciphertext as its degree and scale followed by
// its polynomials.
func (ct *Ciphertext) MarshalBinary() ([]byte, error) {

	dataLen := 9
	for _, p := range ct.Value {
		dataLen += p.GetDataLen()
	}

	data := make([]byte, dataLen)
	data[0] = uint8(ct.Degree())
	binary.LittleEndian.PutUint64(data[1:], math.Float64bits(ct.Scale))

	ptr := 9
	for _, p := range ct.Value {
		n, err := p.WriteTo(data[ptr:])
		if err != nil {
			return nil, err
		}
		ptr += n
	}
	return data, nil
}

// UnmarshalBinary decodes a ciphertext marshalled with MarshalBinary.
func (ct *Ciphertext) UnmarshalBinary(data []byte) error {

	if len(data) < 9 {
		return fmt.Errorf("ckks: invalid ciphertext encoding")
	}

	degree := int(data[0])
	ct.Scale = math.Float64frombits(binary.LittleEndian.Uint64(data[1:]))

	ct.Value = make([]*ring.Poly, degree+1)
	ptr := 9
	for i := range ct.Value {
		ct.Value[i] = new(ring.Poly)
		n, err := ct.Value[i].DecodeFrom(data[ptr:])
		if err != nil {
			return err
		}
		ptr += n
	}
	return nil
}

// MarshalBinary encodes the secret key.
func (sk *SecretKey) MarshalBinary() ([]byte, error) {
	return sk.Value.MarshalBinary()
}

// UnmarshalBinary decodes a secret key marshalled with MarshalBinary.
func (sk *SecretKey) UnmarshalBinary(data []byte) error {
	if sk.Value == nil {
		sk.Value = new(ring.Poly)
	}
	return sk.Value.UnmarshalBinary(data)
}

// MarshalBinary encodes the public key as its two polynomials.
func (pk *PublicKey) MarshalBinary() ([]byte, error) {

	data := make([]byte, pk.Value[0].GetDataLen()+pk.Value[1].GetDataLen())
	ptr, err := pk.Value[0].WriteTo(data)
	if err != nil {
		return nil, err
	}
	if _, err = pk.Value[1].WriteTo(data[ptr:]); err != nil {
		return nil, err
	}
	return data, nil
}

// UnmarshalBinary decodes a public key marshalled with MarshalBinary.
func (pk *PublicKey) UnmarshalBinary(data []byte) error {

	for i := range pk.Value {
		if pk.Value[i] == nil {
			pk.Value[i] = new(ring.Poly)
		}
	}
	ptr, err := pk.Value[0].DecodeFrom(data)
	if err != nil {
		return err
	}
	_, err = pk.Value[1].DecodeFrom(data[ptr:])
	return err
}

// MarshalBinary encodes the switching key as its number of gadget entries
// followed by the entry polynomial pairs.
func (swk *SwitchingKey) MarshalBinary() ([]byte, error) {

	dataLen := 1
	for _, pair := range swk.Value {
		dataLen += pair[0].GetDataLen() + pair[1].GetDataLen()
	}

	data := make([]byte, dataLen)
	data[0] = uint8(len(swk.Value))

	ptr := 1
	for _, pair := range swk.Value {
		for _, p := range pair {
			n, err := p.WriteTo(data[ptr:])
			if err != nil {
				return nil, err
			}
			ptr += n
		}
	}
	return data, nil
}

// UnmarshalBinary decodes a switching key marshalled with MarshalBinary.
func (swk *SwitchingKey) UnmarshalBinary(data []byte) error {

	if len(data) < 1 {
		return fmt.Errorf("ckks: invalid switching key encoding")
	}

	swk.Value = make([][2]*ring.Poly, int(data[0]))
	ptr := 1
	for i := range swk.Value {
		for j := 0; j < 2; j++ {
			swk.Value[i][j] = new(ring.Poly)
			n, err := swk.Value[i][j].DecodeFrom(data[ptr:])
			if err != nil {
				return err
			}
			ptr += n
		}
	}
	return nil
}

// MarshalBinary encodes the relinearization key.
func (rlk *RelinearizationKey) MarshalBinary() ([]byte, error) {
	return rlk.Value.MarshalBinary()
}

// UnmarshalBinary decodes a relinearization key marshalled with
// MarshalBinary.
func (rlk *RelinearizationKey) UnmarshalBinary(data []byte) error {
	if rlk.Value == nil {
		rlk.Value = new(SwitchingKey)
	}
	return rlk.Value.UnmarshalBinary(data)
}

// MarshalBinary encodes the rotation key set as the number of keys followed
// by (galois element, switching key) pairs, sorted by galois element.
func (rtks *RotationKeySet) MarshalBinary() ([]byte, error) {

	galEls := make([]uint64, 0, len(rtks.Keys))
	for galEl := range rtks.Keys {
		galEls = append(galEls, galEl)
	}
	// Sort for a canonical encoding.
	slices.Sort(galEls)

	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, uint32(len(galEls)))

	for _, galEl := range galEls {
		keyData, err := rtks.Keys[galEl].MarshalBinary()
		if err != nil {
			return nil, err
		}
		galElBytes := make([]byte, 8)
		binary.LittleEndian.PutUint64(galElBytes, galEl)
		data = append(data, galElBytes...)
		data = append(data, keyData...)
	}
	return data, nil
}

// UnmarshalBinary decodes a rotation key set marshalled with MarshalBinary.
func (rtks *RotationKeySet) UnmarshalBinary(data []byte) error {

	if len(data) < 4 {
		return fmt.Errorf("ckks: invalid rotation key set encoding")
	}

	count := int(binary.LittleEndian.Uint32(data))
	rtks.Keys = make(map[uint64]*SwitchingKey, count)

	ptr := 4
	for i := 0; i < count; i++ {
		if len(data) < ptr+8 {
			return fmt.Errorf("ckks: invalid rotation key set encoding")
		}
		galEl := binary.LittleEndian.Uint64(data[ptr:])
		ptr += 8

		swk := new(SwitchingKey)
		if err := swk.UnmarshalBinary(data[ptr:]); err != nil {
			return err
		}
		ptr += swkDataLen(swk)
		rtks.Keys[galEl] = swk
	}
	return nil
}

func swkDataLen(swk *SwitchingKey) int {
	dataLen := 1
	for _, pair := range swk.Value {
		dataLen += pair[0].GetDataLen() + pair[1].GetDataLen()
	}
	return dataLen
}
