package p521

import (
	"crypto/subtle"
	"errors"
	"unsafe"
)

// ErrInvalidScalar is returned for encodings at or above the group order
var ErrInvalidScalar = errors.New("scalar not in canonical range")

// Scalar represents a scalar modulo the group order of the P-521 curve.
// This implementation uses 9 uint64 limbs in base 2^58, matching the
// field element radix. A Scalar is always kept fully reduced.
type Scalar struct {
	d [9]uint64
}

// Group order constants (P-521 curve order n)
var (
	// Limbs of the P-521 order, base 2^58 little-endian
	scalarN = [9]uint64{
		0x36FB71E91386409,
		0x1726E226711EBAE,
		0x148F709A5D03BB,
		0x20EFCBE59ADFF30,
		0x3FFFFFFFA518687,
		0x3FFFFFFFFFFFFFF,
		0x3FFFFFFFFFFFFFF,
		0x3FFFFFFFFFFFFFF,
		0x1FFFFFFFFFFFFFF,
	}

	// Limbs of 2*(2^521 - n). The complement 2^521 - n is 259 bits, so
	// folding the high half of a wide product against this constant
	// shrinks it quickly.
	scalarTwoC = [5]uint64{
		0x12091C2DD8F37EE,
		0x11B23BB31DC28A2,
		0x3D6E11ECB45F889,
		0x3E206834CA4019F,
		0x0000000B5CF2F0,
	}

	// Limbs of (n-1)/2, the threshold for the high-S check
	scalarNHalf = [9]uint64{
		0x1B7DB8F489C3204,
		0x2B937113388F5D7,
		0x0A47B84D2E81DD,
		0x3077E5F2CD6FF98,
		0x3FFFFFFFD28C343,
		0x3FFFFFFFFFFFFFF,
		0x3FFFFFFFFFFFFFF,
		0x3FFFFFFFFFFFFFF,
		0xFFFFFFFFFFFFFF,
	}

	// n-2, the exponent for Fermat inversion, big-endian
	scalarNMinus2 = [fieldByteLen]byte{
		0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFA, 0x51, 0x86, 0x87, 0x83, 0xBF, 0x2F,
		0x96, 0x6B, 0x7F, 0xCC, 0x01, 0x48, 0xF7, 0x09,
		0xA5, 0xD0, 0x3B, 0xB5, 0xC9, 0xB8, 0x89, 0x9C,
		0x47, 0xAE, 0xBB, 0x6F, 0xB7, 0x1E, 0x91, 0x38,
		0x64, 0x07,
	}

	// ScalarZero represents the scalar 0
	ScalarZero = Scalar{}

	// ScalarOne represents the scalar 1
	ScalarOne = Scalar{d: [9]uint64{1, 0, 0, 0, 0, 0, 0, 0, 0}}
)

// NewScalar creates a scalar from a 66-byte big-endian array. Encodings
// at or above the group order are rejected, never reduced.
func NewScalar(b66 []byte) (*Scalar, error) {
	if len(b66) != fieldByteLen {
		return nil, ErrInvalidLength
	}

	s := &Scalar{}
	if s.setB66(b66) {
		return nil, ErrInvalidScalar
	}
	return s, nil
}

// condSubOrder conditionally subtracts n from a 10-limb value in
// constant time, leaving the value unchanged when it is below n.
func condSubOrder(d *[10]uint64) {
	var t [10]uint64
	var borrow uint64
	for i := 0; i < 9; i++ {
		v := d[i] - (scalarN[i] & limbMask) - borrow
		borrow = v >> 63
		t[i] = v & limbMask
	}
	v := d[9] - borrow
	borrow = v >> 63
	t[9] = v & limbMask

	// Keep the subtracted value unless it went negative
	mask := borrow - 1
	for i := 0; i < 10; i++ {
		d[i] ^= mask & (d[i] ^ t[i])
	}
}

// reduce10 brings a 10-limb value below n. The input must be smaller
// than 2^580. Limb 9 sits above the 2^522 boundary, and
// 2^522 == 2*(2^521 - n) (mod n), so one fold plus three conditional
// subtractions suffice.
func (r *Scalar) reduce10(l *[10]uint64) {
	hi := l[9]

	var c [9]uint128
	for j := 0; j < 5; j++ {
		c[j] = addMulU128(uint128{low: l[j]}, scalarTwoC[j], hi)
	}
	for j := 5; j < 9; j++ {
		c[j] = uint128{low: l[j]}
	}

	var d [10]uint64
	for j := 0; j < 9; j++ {
		d[j] = c[j].lo() & limbMask
		if j+1 < 9 {
			c[j+1] = addU128U128(c[j+1], c[j].rshift(58))
		} else {
			d[9] = c[j].rshift(58).lo()
		}
	}

	condSubOrder(&d)
	condSubOrder(&d)
	condSubOrder(&d)

	copy(r.d[:], d[:9])
}

// foldWide performs one fold of a wide base-2^58 limb vector against
// 2*(2^521 - n), shrinking it by three limbs per pass until it fits
// the 10-limb reduction. The iteration counts depend only on lengths.
func foldWide(l []uint64) []uint64 {
	hi := l[9:]
	cols := len(hi) + 4
	if cols < 9 {
		cols = 9
	}
	c := make([]uint128, cols)
	for i := 0; i < len(hi); i++ {
		for j := 0; j < 5; j++ {
			c[i+j] = addMulU128(c[i+j], hi[i], scalarTwoC[j])
		}
	}
	for j := 0; j < 9; j++ {
		c[j] = addU128(c[j], l[j])
	}

	out := make([]uint64, cols+1)
	for j := 0; j < cols; j++ {
		out[j] = c[j].lo() & limbMask
		if j+1 < cols {
			c[j+1] = addU128U128(c[j+1], c[j].rshift(58))
		} else {
			out[cols] = c[j].rshift(58).lo()
		}
	}
	return out
}

// reduceWide reduces a wide base-2^58 limb vector modulo the group order
func (r *Scalar) reduceWide(l []uint64) {
	for len(l) > 10 {
		l = foldWide(l)
	}
	var d [10]uint64
	copy(d[:], l)
	r.reduce10(&d)
}

// checkOverflow returns true if the 10-limb value is >= the group order
func checkOverflow10(d *[10]uint64) bool {
	var borrow uint64
	for i := 0; i < 9; i++ {
		v := d[i] - scalarN[i] - borrow
		borrow = v >> 63
	}
	v := d[9] - borrow
	borrow = v >> 63
	return borrow == 0
}

// setB66 sets a scalar from a 66-byte big-endian array, reducing modulo
// the group order. Returns whether the input was >= the order.
func (r *Scalar) setB66(bin []byte) (overflow bool) {
	w := beBytesToWords(bin)

	// A 66-byte value is up to 528 bits, one limb above the order
	var d [10]uint64
	l := wordsToLimbs(w)
	copy(d[:], l[:])
	d[8] = ((w[7] >> 16) | (w[8] << 48)) & limbMask
	d[9] = w[8] >> 10

	overflow = checkOverflow10(&d)
	r.reduce10(&d)
	return overflow
}

// setB66Seckey sets a scalar from a 66-byte array and returns true if
// it is a valid secret key (canonical and nonzero)
func (r *Scalar) setB66Seckey(bin []byte) bool {
	overflow := r.setB66(bin)
	return !overflow && !r.isZero()
}

// getB66 converts a scalar to a 66-byte big-endian array
func (r *Scalar) getB66(bin []byte) {
	if len(bin) != fieldByteLen {
		panic("output buffer must be 66 bytes")
	}
	wordsToBEBytes(bin, limbsToWords(r.d))
}

// setWide sets a scalar from a 132-byte big-endian array, reducing the
// full 1056-bit value modulo the group order. Used to derive scalars
// from wide uniform input without bias.
func (r *Scalar) setWide(bin []byte) {
	if len(bin) != 2*fieldByteLen {
		panic("input must be 132 bytes")
	}

	// 1056 bits as 17 little-endian 64-bit words
	var w [17]uint64
	for i := 0; i < 16; i++ {
		off := 2*fieldByteLen - 1 - 8*i
		w[i] = uint64(bin[off]) | uint64(bin[off-1])<<8 | uint64(bin[off-2])<<16 | uint64(bin[off-3])<<24 |
			uint64(bin[off-4])<<32 | uint64(bin[off-5])<<40 | uint64(bin[off-6])<<48 | uint64(bin[off-7])<<56
	}
	w[16] = uint64(bin[3]) | uint64(bin[2])<<8 | uint64(bin[1])<<16 | uint64(bin[0])<<24

	// Repack into 19 base-2^58 limbs
	var l [19]uint64
	for i := 0; i < 19; i++ {
		bit := uint(58 * i)
		word := bit / 64
		off := bit % 64
		v := w[word] >> off
		if word+1 < 17 {
			v |= w[word+1] << (64 - off)
		}
		l[i] = v & limbMask
	}

	r.reduceWide(l[:])
}

// setInt sets a scalar to an unsigned integer value
func (r *Scalar) setInt(v uint) {
	r.d = [9]uint64{uint64(v) & limbMask, uint64(v) >> 58, 0, 0, 0, 0, 0, 0, 0}
}

// add adds two scalars: r = a + b, returns whether reduction occurred
func (r *Scalar) add(a, b *Scalar) bool {
	var d [10]uint64
	var carry uint64
	for i := 0; i < 9; i++ {
		v := a.d[i] + b.d[i] + carry
		d[i] = v & limbMask
		carry = v >> 58
	}
	d[9] = carry

	overflow := checkOverflow10(&d)
	condSubOrder(&d)
	copy(r.d[:], d[:9])
	return overflow
}

// sub subtracts two scalars: r = a - b
func (r *Scalar) sub(a, b *Scalar) {
	var negB Scalar
	negB.negate(b)
	r.add(a, &negB)
}

// mul multiplies two scalars: r = a * b
func (r *Scalar) mul(a, b *Scalar) {
	// Full 1042-bit product in 17 base-2^58 columns
	var c [17]uint128
	for i := 0; i < 9; i++ {
		for j := 0; j < 9; j++ {
			c[i+j] = addMulU128(c[i+j], a.d[i], b.d[j])
		}
	}

	var l [18]uint64
	for k := 0; k < 17; k++ {
		l[k] = c[k].lo() & limbMask
		if k+1 < 17 {
			c[k+1] = addU128U128(c[k+1], c[k].rshift(58))
		} else {
			l[17] = c[k].rshift(58).lo()
		}
	}

	r.reduceWide(l[:])
}

// negate negates a scalar: r = -a mod n, with -0 = 0
func (r *Scalar) negate(a *Scalar) {
	// n - a cannot borrow since a < n
	zmask := a.isZeroMask()
	var borrow uint64
	for i := 0; i < 9; i++ {
		v := scalarN[i] - a.d[i] - borrow
		borrow = v >> 63
		r.d[i] = v & limbMask &^ zmask
	}
}

// inverse computes the modular inverse of a scalar using Fermat's
// little theorem: a^(n-2) mod n. The exponent is fixed and public, so
// plain square-and-multiply runs in constant time for the base.
func (r *Scalar) inverse(a *Scalar) {
	result := ScalarOne
	base := *a

	for _, by := range scalarNMinus2 {
		for bit := 7; bit >= 0; bit-- {
			result.mul(&result, &result)
			if (by>>uint(bit))&1 == 1 {
				result.mul(&result, &base)
			}
		}
	}

	*r = result
}

// half computes r = a/2 mod n
func (r *Scalar) half(a *Scalar) {
	// If a is odd, add n before shifting. n is odd, so exactly one of
	// a, a+n is even.
	mask := 0 - (a.d[0] & 1)

	var t [9]uint64
	var carry uint64
	for i := 0; i < 9; i++ {
		v := a.d[i] + (scalarN[i] & mask) + carry
		t[i] = v & limbMask
		carry = v >> 58
	}
	top := carry

	for i := 0; i < 8; i++ {
		r.d[i] = ((t[i] >> 1) | (t[i+1] << 57)) & limbMask
	}
	r.d[8] = (t[8] >> 1) | (top << 57)
}

// isZero returns true if the scalar is zero
func (r *Scalar) isZero() bool {
	return (r.d[0] | r.d[1] | r.d[2] | r.d[3] | r.d[4] | r.d[5] | r.d[6] | r.d[7] | r.d[8]) == 0
}

// isZeroMask returns an all-ones mask if the scalar is zero, in constant time
func (r *Scalar) isZeroMask() uint64 {
	acc := r.d[0] | r.d[1] | r.d[2] | r.d[3] | r.d[4] | r.d[5] | r.d[6] | r.d[7] | r.d[8]
	nz := (acc | (0 - acc)) >> 63
	return 0 - (nz ^ 1)
}

// isOne returns true if the scalar is one
func (r *Scalar) isOne() bool {
	return r.d[0] == 1 && (r.d[1]|r.d[2]|r.d[3]|r.d[4]|r.d[5]|r.d[6]|r.d[7]|r.d[8]) == 0
}

// isEven returns true if the scalar is even
func (r *Scalar) isEven() bool {
	return r.d[0]&1 == 0
}

// isHigh returns true if the scalar is > (n-1)/2
func (r *Scalar) isHigh() bool {
	// Compute (n-1)/2 - r; a borrow means r is in the high half
	var borrow uint64
	for i := 0; i < 9; i++ {
		v := scalarNHalf[i] - r.d[i] - borrow
		borrow = v >> 63
	}
	return borrow == 1
}

// condNegate conditionally negates the scalar in constant time.
// Returns -1 if negated, 1 otherwise.
func (r *Scalar) condNegate(flag int) int {
	var neg Scalar
	neg.negate(r)
	r.cmov(&neg, flag)
	return 1 - 2*(flag&1)
}

// equal returns true if two scalars are equal
func (r *Scalar) equal(a *Scalar) bool {
	return subtle.ConstantTimeCompare(
		(*[72]byte)(unsafe.Pointer(&r.d[0]))[:72],
		(*[72]byte)(unsafe.Pointer(&a.d[0]))[:72],
	) == 1
}

// getBits extracts count bits starting at offset. Offsets past the top
// limb read as zero so fixed-window loops can run over the full width.
func (r *Scalar) getBits(offset, count uint) uint32 {
	if count == 0 || count > 32 {
		panic("invalid bit range")
	}

	limbIdx := offset / 58
	bitIdx := offset % 58

	var low, high uint64
	if limbIdx < 9 {
		low = r.d[limbIdx]
	}
	if limbIdx+1 < 9 {
		high = r.d[limbIdx+1]
	}

	v := (low >> bitIdx) | (high << (58 - bitIdx))
	return uint32(v & ((1 << count) - 1))
}

// cmov conditionally moves a scalar. If flag is 1, r = a; otherwise r is unchanged.
func (r *Scalar) cmov(a *Scalar, flag int) {
	mask := uint64(-(int64(flag) & 1))
	for i := 0; i < 9; i++ {
		r.d[i] ^= mask & (r.d[i] ^ a.d[i])
	}
}

// cswapScalar exchanges two scalars when flag is 1, in constant time.
func cswapScalar(a, b *Scalar, flag int) {
	mask := uint64(-(int64(flag) & 1))
	for i := 0; i < 9; i++ {
		t := mask & (a.d[i] ^ b.d[i])
		a.d[i] ^= t
		b.d[i] ^= t
	}
}

// clear clears a scalar to prevent leaking sensitive information
func (r *Scalar) clear() {
	memclear(unsafe.Pointer(&r.d[0]), unsafe.Sizeof(r.d))
}
