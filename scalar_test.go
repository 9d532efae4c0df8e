package p521

import (
	"bytes"
	"testing"
)

var scalarTestA = [fieldByteLen]byte{
	0x00, 0x00, 0x00, 0x1F, 0x3A, 0x45, 0xB2, 0x1C,
	0x87, 0xD6, 0xE5, 0xF4, 0xA3, 0xB2, 0xC1, 0xD0,
	0xE9, 0xF8, 0xA7, 0xB6, 0xC5, 0xD4, 0xE3, 0xF2,
	0xA1, 0xB0, 0xC9, 0xD8, 0xE7, 0xF6, 0xA5, 0xB4,
	0xC3, 0xD2, 0xE1, 0xF0, 0xA9, 0xB8, 0xC7, 0xD6,
	0xE5, 0xF4, 0xA3, 0xB2, 0xC1, 0xD0, 0xE9, 0xF8,
	0xA7, 0xB6, 0xC5, 0xD4, 0xE3, 0xF2, 0xA1, 0xB0,
	0xC9, 0xD8, 0xE7, 0xF6, 0xA5, 0xB4, 0xC3, 0xD2,
	0xE1, 0xF0,
}

var scalarTestB = [fieldByteLen]byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0xFE, 0xDC, 0xBA, 0x98, 0x76, 0x54,
	0x32, 0x10,
}

// a * b mod n
var scalarTestProd = [fieldByteLen]byte{
	0x01, 0x37, 0xCA, 0xC5, 0xFC, 0x72, 0xA6, 0xEF,
	0x98, 0xB4, 0xE9, 0x62, 0x18, 0x45, 0xEB, 0x07,
	0x3C, 0x6B, 0x36, 0xB9, 0xB4, 0x25, 0xAF, 0x7D,
	0x89, 0x0C, 0x07, 0x2F, 0x26, 0x42, 0x47, 0xE6,
	0x4C, 0x2D, 0x4A, 0xFD, 0x34, 0x94, 0x67, 0x36,
	0xF0, 0xB7, 0x26, 0x3B, 0xEF, 0x08, 0x61, 0x1A,
	0xAD, 0xA9, 0x4D, 0x01, 0x13, 0xF2, 0x91, 0xD5,
	0x6E, 0x3E, 0x4B, 0x2C, 0x3B, 0x9D, 0x91, 0x76,
	0x10, 0x53,
}

// a + b mod n
var scalarTestSum = [fieldByteLen]byte{
	0x00, 0x00, 0x00, 0x1F, 0x3A, 0x45, 0xB2, 0x1C,
	0x87, 0xD6, 0xE5, 0xF4, 0xA3, 0xB2, 0xC1, 0xD0,
	0xE9, 0xF8, 0xA7, 0xB6, 0xC5, 0xD4, 0xE3, 0xF2,
	0xA1, 0xB0, 0xC9, 0xD8, 0xE7, 0xF6, 0xA5, 0xB4,
	0xC3, 0xD2, 0xE1, 0xF0, 0xA9, 0xB8, 0xC7, 0xD6,
	0xE5, 0xF4, 0xA3, 0xB2, 0xC1, 0xD0, 0xE9, 0xF8,
	0xA7, 0xB6, 0xC5, 0xD4, 0xE3, 0xF2, 0xA1, 0xB0,
	0xC9, 0xD9, 0xE6, 0xD3, 0x60, 0x4D, 0x3A, 0x27,
	0x14, 0x00,
}

// a^-1 mod n
var scalarTestAInv = [fieldByteLen]byte{
	0x00, 0x35, 0x2D, 0xCC, 0x08, 0x6E, 0xF1, 0x82,
	0x7C, 0x15, 0x62, 0x8C, 0x19, 0x04, 0x42, 0xD5,
	0x39, 0x01, 0xA8, 0x64, 0x34, 0x99, 0x48, 0x44,
	0xC8, 0x1C, 0x43, 0xA3, 0x93, 0x14, 0x50, 0x96,
	0xCE, 0xF6, 0xF3, 0xE9, 0xF1, 0x67, 0xDF, 0x43,
	0x48, 0xB2, 0xC1, 0xE0, 0x34, 0x58, 0x8E, 0xC1,
	0xFE, 0xE6, 0xB9, 0x06, 0xC2, 0xB6, 0x89, 0x63,
	0x5C, 0xA0, 0x80, 0x4F, 0xDE, 0x3F, 0x5F, 0xD2,
	0x45, 0xF2,
}

var orderBytes = [fieldByteLen]byte{
	0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFA, 0x51, 0x86, 0x87, 0x83, 0xBF, 0x2F,
	0x96, 0x6B, 0x7F, 0xCC, 0x01, 0x48, 0xF7, 0x09,
	0xA5, 0xD0, 0x3B, 0xB5, 0xC9, 0xB8, 0x89, 0x9C,
	0x47, 0xAE, 0xBB, 0x6F, 0xB7, 0x1E, 0x91, 0x38,
	0x64, 0x09,
}

func TestScalarBasics(t *testing.T) {
	var zero, one Scalar
	zero.setInt(0)
	if !zero.isZero() {
		t.Error("zero scalar should be zero")
	}
	one.setInt(1)
	if !one.isOne() {
		t.Error("one scalar should be one")
	}
	if one.isZero() {
		t.Error("one should not be zero")
	}
	if one.isEven() {
		t.Error("one should be odd")
	}
	if zero.isZeroMask() != ^uint64(0) {
		t.Error("zero mask should be all ones for zero")
	}
	if one.isZeroMask() != 0 {
		t.Error("zero mask should be zero for one")
	}
}

func TestScalarSetB66Overflow(t *testing.T) {
	// The group order reduces to zero with overflow set
	var s Scalar
	if !s.setB66(orderBytes[:]) {
		t.Error("setting the group order should report overflow")
	}
	if !s.isZero() {
		t.Error("group order should reduce to zero")
	}

	// n - 1 is canonical
	nm1 := orderBytes
	nm1[fieldByteLen-1] = 0x08
	if s.setB66(nm1[:]) {
		t.Error("n - 1 should not overflow")
	}
	if s.isZero() {
		t.Error("n - 1 should not be zero")
	}

	// n - 1 is not a valid secret key range violation, but n is
	if !s.setB66Seckey(nm1[:]) {
		t.Error("n - 1 should be a valid secret key")
	}
	if s.setB66Seckey(orderBytes[:]) {
		t.Error("the group order should not be a valid secret key")
	}
}

func TestScalarMulVector(t *testing.T) {
	var a, b, prod, want Scalar
	a.setB66(scalarTestA[:])
	b.setB66(scalarTestB[:])
	prod.mul(&a, &b)
	want.setB66(scalarTestProd[:])
	if !prod.equal(&want) {
		t.Error("scalar multiplication vector mismatch")
	}
}

func TestScalarAddVector(t *testing.T) {
	var a, b, sum, want Scalar
	a.setB66(scalarTestA[:])
	b.setB66(scalarTestB[:])
	sum.add(&a, &b)
	want.setB66(scalarTestSum[:])
	if !sum.equal(&want) {
		t.Error("scalar addition vector mismatch")
	}

	// a + (n - a) wraps to zero with overflow
	var negA, wrap Scalar
	negA.negate(&a)
	overflow := wrap.add(&a, &negA)
	if !overflow {
		t.Error("a + (n - a) should overflow")
	}
	if !wrap.isZero() {
		t.Error("a + (n - a) should be zero")
	}
}

func TestScalarSubRoundTrip(t *testing.T) {
	var a, b, d, back Scalar
	a.setB66(scalarTestA[:])
	b.setB66(scalarTestB[:])
	d.sub(&a, &b)
	back.add(&d, &b)
	if !back.equal(&a) {
		t.Error("(a - b) + b should equal a")
	}
}

func TestScalarInverseVector(t *testing.T) {
	var a, aInv, want, prod, one Scalar
	a.setB66(scalarTestA[:])
	aInv.inverse(&a)
	want.setB66(scalarTestAInv[:])
	if !aInv.equal(&want) {
		t.Error("scalar inverse vector mismatch")
	}

	prod.mul(&a, &aInv)
	one.setInt(1)
	if !prod.equal(&one) {
		t.Error("a * a^-1 should equal 1")
	}

	// inverse(1) = 1
	var oneInv Scalar
	oneInv.inverse(&one)
	if !oneInv.isOne() {
		t.Error("inverse of one should be one")
	}
}

func TestScalarSetWide(t *testing.T) {
	var wide [2 * fieldByteLen]byte
	for i := range wide {
		wide[i] = 0xAB
	}

	want := [fieldByteLen]byte{
		0x01, 0xBB, 0x0B, 0x6D, 0xB5, 0xFE, 0x19, 0x1E,
		0x63, 0xCB, 0xD3, 0x85, 0x16, 0xA7, 0x84, 0xF2,
		0xCF, 0x5C, 0x28, 0x09, 0x20, 0xFE, 0x52, 0xA4,
		0x31, 0x41, 0x7D, 0x4E, 0x8A, 0xD5, 0xF4, 0xDC,
		0xB9, 0x7C, 0x27, 0x06, 0x7C, 0xAC, 0x3A, 0xEB,
		0x48, 0x85, 0x54, 0xDD, 0xDB, 0x22, 0xDF, 0xE4,
		0xF5, 0x51, 0xD8, 0x7F, 0xB3, 0x2B, 0x30, 0x56,
		0x83, 0x08, 0x50, 0x86, 0x52, 0x39, 0x99, 0xE2,
		0x58, 0xC2,
	}

	var s Scalar
	s.setWide(wide[:])

	var got [fieldByteLen]byte
	s.getB66(got[:])
	if !bytes.Equal(got[:], want[:]) {
		t.Error("wide reduction vector mismatch")
	}
}

func TestScalarNegate(t *testing.T) {
	var a, negA, sum Scalar
	a.setB66(scalarTestA[:])
	negA.negate(&a)
	sum.add(&a, &negA)
	if !sum.isZero() {
		t.Error("a + (-a) should be zero")
	}

	// Negation preserves zero
	var zero, negZero Scalar
	zero.setInt(0)
	negZero.negate(&zero)
	if !negZero.isZero() {
		t.Error("-0 should be zero")
	}
}

func TestScalarHalf(t *testing.T) {
	var a, h, doubled Scalar
	a.setB66(scalarTestA[:])
	h.half(&a)
	doubled.add(&h, &h)
	if !doubled.equal(&a) {
		t.Error("half(a) + half(a) should equal a")
	}

	// Odd scalar exercises the (x + n) / 2 path
	var one, oneHalf, two Scalar
	one.setInt(1)
	oneHalf.half(&one)
	two.add(&oneHalf, &oneHalf)
	if !two.isOne() {
		t.Error("2 * half(1) should equal 1")
	}
}

func TestScalarIsHigh(t *testing.T) {
	var one Scalar
	one.setInt(1)
	if one.isHigh() {
		t.Error("one is not above the half order")
	}

	// n - 1 is above the half order
	var negOne Scalar
	negOne.negate(&one)
	if !negOne.isHigh() {
		t.Error("n - 1 is above the half order")
	}
}

func TestScalarCondNegate(t *testing.T) {
	var a, b Scalar
	a.setB66(scalarTestA[:])
	b = a
	if b.condNegate(0) != 1 {
		t.Error("condNegate(0) should return 1")
	}
	if !b.equal(&a) {
		t.Error("condNegate(0) should not change the scalar")
	}

	if b.condNegate(1) != -1 {
		t.Error("condNegate(1) should return -1")
	}
	var sum Scalar
	sum.add(&a, &b)
	if !sum.isZero() {
		t.Error("condNegate(1) should negate the scalar")
	}
}

func TestScalarGetBits(t *testing.T) {
	var s Scalar
	s.setInt(0b101101)
	if s.getBits(0, 4) != 0b1101 {
		t.Error("low bits mismatch")
	}
	if s.getBits(4, 2) != 0b10 {
		t.Error("high bits mismatch")
	}
	if s.getBits(520, 1) != 0 {
		t.Error("bits beyond the value should be zero")
	}
}

func TestNewScalar(t *testing.T) {
	nm1 := orderBytes
	nm1[fieldByteLen-1] = 0x08
	s, err := NewScalar(nm1[:])
	if err != nil {
		t.Fatalf("n - 1 should be accepted: %v", err)
	}
	var got [fieldByteLen]byte
	s.getB66(got[:])
	if !bytes.Equal(got[:], nm1[:]) {
		t.Error("accepted scalar should round-trip its encoding")
	}

	// Non-canonical encodings are rejected, never reduced
	if _, err := NewScalar(orderBytes[:]); err != ErrInvalidScalar {
		t.Error("the group order should be rejected as non-canonical")
	}
	if _, err := NewScalar(make([]byte, 32)); err != ErrInvalidLength {
		t.Error("a short encoding should be rejected")
	}
}

func TestScalarCswap(t *testing.T) {
	var a, b Scalar
	a.setInt(111)
	b.setInt(222)

	x, y := a, b
	cswapScalar(&x, &y, 0)
	if !x.equal(&a) || !y.equal(&b) {
		t.Error("cswap with flag 0 should not exchange")
	}
	cswapScalar(&x, &y, 1)
	if !x.equal(&b) || !y.equal(&a) {
		t.Error("cswap with flag 1 should exchange")
	}
}

func TestScalarCmov(t *testing.T) {
	var a, b Scalar
	a.setInt(111)
	b.setInt(222)

	r := a
	r.cmov(&b, 0)
	if !r.equal(&a) {
		t.Error("cmov with flag 0 should keep the destination")
	}
	r.cmov(&b, 1)
	if !r.equal(&b) {
		t.Error("cmov with flag 1 should copy the source")
	}
}
