package p521

import (
	"crypto/subtle"
	"errors"
	"unsafe"
)

// FieldElement represents a field element modulo the P-521 field prime (2^521 - 1).
// This implementation uses 9 uint64 limbs in base 2^58.
type FieldElement struct {
	// n represents the sum(i=0..8, n[i] << (i*58)) mod p
	// where p is the field modulus, 2^521 - 1
	n [9]uint64

	// Verification fields for debug builds
	magnitude  int  // magnitude of the field element
	normalized bool // whether the field element is normalized
}

// Field constants
const (
	// Maximum value of limbs 0..7
	limbMask = 0x3FFFFFFFFFFFFFF // 2^58 - 1
	// Maximum value of limb 8
	topMask = 0x1FFFFFFFFFFFFFF // 2^57 - 1

	// Number of bytes in a serialized field element or scalar
	fieldByteLen = 66
)

// Field element constants
var (
	// FieldElementOne represents the field element 1
	FieldElementOne = FieldElement{
		n:          [9]uint64{1, 0, 0, 0, 0, 0, 0, 0, 0},
		magnitude:  1,
		normalized: true,
	}

	// FieldElementZero represents the field element 0
	FieldElementZero = FieldElement{
		n:          [9]uint64{0, 0, 0, 0, 0, 0, 0, 0, 0},
		magnitude:  0,
		normalized: true,
	}
)

func NewFieldElement() *FieldElement {
	return &FieldElement{
		n:          [9]uint64{0, 0, 0, 0, 0, 0, 0, 0, 0},
		magnitude:  0,
		normalized: true,
	}
}

// beBytesToWords converts a 66-byte big-endian array to 9 little-endian
// 64-bit words. The top word holds the leading 2 bytes (at most 9 bits).
func beBytesToWords(b []byte) [9]uint64 {
	var d [9]uint64
	for i := 0; i < 8; i++ {
		off := 65 - 8*i
		d[i] = uint64(b[off]) | uint64(b[off-1])<<8 | uint64(b[off-2])<<16 | uint64(b[off-3])<<24 |
			uint64(b[off-4])<<32 | uint64(b[off-5])<<40 | uint64(b[off-6])<<48 | uint64(b[off-7])<<56
	}
	d[8] = uint64(b[1]) | uint64(b[0])<<8
	return d
}

// wordsToBEBytes converts 9 little-endian 64-bit words back to a 66-byte
// big-endian array.
func wordsToBEBytes(b []byte, d [9]uint64) {
	for i := 0; i < 8; i++ {
		off := 65 - 8*i
		b[off] = byte(d[i])
		b[off-1] = byte(d[i] >> 8)
		b[off-2] = byte(d[i] >> 16)
		b[off-3] = byte(d[i] >> 24)
		b[off-4] = byte(d[i] >> 32)
		b[off-5] = byte(d[i] >> 40)
		b[off-6] = byte(d[i] >> 48)
		b[off-7] = byte(d[i] >> 56)
	}
	b[1] = byte(d[8])
	b[0] = byte(d[8] >> 8)
}

// wordsToLimbs repacks 9x64 words (521 bits used) into 9x58 limbs.
func wordsToLimbs(d [9]uint64) [9]uint64 {
	var n [9]uint64
	n[0] = d[0] & limbMask
	n[1] = ((d[0] >> 58) | (d[1] << 6)) & limbMask
	n[2] = ((d[1] >> 52) | (d[2] << 12)) & limbMask
	n[3] = ((d[2] >> 46) | (d[3] << 18)) & limbMask
	n[4] = ((d[3] >> 40) | (d[4] << 24)) & limbMask
	n[5] = ((d[4] >> 34) | (d[5] << 30)) & limbMask
	n[6] = ((d[5] >> 28) | (d[6] << 36)) & limbMask
	n[7] = ((d[6] >> 22) | (d[7] << 42)) & limbMask
	n[8] = ((d[7] >> 16) | (d[8] << 48)) & topMask
	return n
}

// limbsToWords repacks 9x58 limbs (assumed normalized) into 9x64 words.
func limbsToWords(n [9]uint64) [9]uint64 {
	var d [9]uint64
	d[0] = n[0] | (n[1] << 58)
	d[1] = (n[1] >> 6) | (n[2] << 52)
	d[2] = (n[2] >> 12) | (n[3] << 46)
	d[3] = (n[3] >> 18) | (n[4] << 40)
	d[4] = (n[4] >> 24) | (n[5] << 34)
	d[5] = (n[5] >> 30) | (n[6] << 28)
	d[6] = (n[6] >> 36) | (n[7] << 22)
	d[7] = (n[7] >> 42) | (n[8] << 16)
	d[8] = n[8] >> 48
	return d
}

// setB66 sets a field element from a 66-byte big-endian array.
// Values greater than or equal to the field modulus are rejected.
func (r *FieldElement) setB66(b []byte) error {
	if len(b) != fieldByteLen {
		return errors.New("field element byte array must be 66 bytes")
	}

	d := beBytesToWords(b)
	r.n = wordsToLimbs(d)
	r.magnitude = 1
	r.normalized = true

	// Reject anything above 521 bits, and the single non-canonical
	// value p itself (all 521 bits set).
	if b[0] > 1 {
		return errors.New("field element overflow")
	}
	m := r.n[0] & r.n[1] & r.n[2] & r.n[3] & r.n[4] & r.n[5] & r.n[6] & r.n[7]
	if m == limbMask && r.n[8] == topMask {
		return errors.New("field element overflow")
	}
	return nil
}

// getB66 converts a field element to a 66-byte big-endian array
func (r *FieldElement) getB66(b []byte) {
	if len(b) != fieldByteLen {
		panic("field element byte array must be 66 bytes")
	}

	// Normalize first
	var normalized FieldElement
	normalized = *r
	normalized.normalize()

	wordsToBEBytes(b, limbsToWords(normalized.n))
}

// normalize normalizes a field element to its canonical representation
func (r *FieldElement) normalize() {
	t0, t1, t2, t3, t4 := r.n[0], r.n[1], r.n[2], r.n[3], r.n[4]
	t5, t6, t7, t8 := r.n[5], r.n[6], r.n[7], r.n[8]

	// Reduce t8 at the start so there will be at most a single carry from
	// the first pass. 2^521 == 1 mod p, so the overflow x folds into t0.
	x := t8 >> 57
	t8 &= topMask

	// First pass ensures magnitude is 1
	t0 += x
	t1 += t0 >> 58
	t0 &= limbMask
	t2 += t1 >> 58
	t1 &= limbMask
	m := t1
	t3 += t2 >> 58
	t2 &= limbMask
	m &= t2
	t4 += t3 >> 58
	t3 &= limbMask
	m &= t3
	t5 += t4 >> 58
	t4 &= limbMask
	m &= t4
	t6 += t5 >> 58
	t5 &= limbMask
	m &= t5
	t7 += t6 >> 58
	t6 &= limbMask
	m &= t6
	t8 += t7 >> 58
	t7 &= limbMask
	m &= t7
	m &= t0

	// The only value in [0, 2^521) that still needs reduction is p itself,
	// where every limb is all-ones. Detect it without branching.
	eq := (m ^ limbMask) | (t8 ^ topMask)
	nz := (eq | (0 - eq)) >> 63
	x = (t8 >> 57) | (nz ^ 1)

	// Final reduction pass
	t0 += x
	t1 += t0 >> 58
	t0 &= limbMask
	t2 += t1 >> 58
	t1 &= limbMask
	t3 += t2 >> 58
	t2 &= limbMask
	t4 += t3 >> 58
	t3 &= limbMask
	t5 += t4 >> 58
	t4 &= limbMask
	t6 += t5 >> 58
	t5 &= limbMask
	t7 += t6 >> 58
	t6 &= limbMask
	t8 += t7 >> 58
	t7 &= limbMask

	// Mask off the possible multiple of 2^521 from the final reduction
	t8 &= topMask

	r.n[0], r.n[1], r.n[2], r.n[3], r.n[4] = t0, t1, t2, t3, t4
	r.n[5], r.n[6], r.n[7], r.n[8] = t5, t6, t7, t8
	r.magnitude = 1
	r.normalized = true
}

// normalizeWeak gives a field element magnitude 1 without full normalization
func (r *FieldElement) normalizeWeak() {
	t0, t1, t2, t3, t4 := r.n[0], r.n[1], r.n[2], r.n[3], r.n[4]
	t5, t6, t7, t8 := r.n[5], r.n[6], r.n[7], r.n[8]

	x := t8 >> 57
	t8 &= topMask

	t0 += x
	t1 += t0 >> 58
	t0 &= limbMask
	t2 += t1 >> 58
	t1 &= limbMask
	t3 += t2 >> 58
	t2 &= limbMask
	t4 += t3 >> 58
	t3 &= limbMask
	t5 += t4 >> 58
	t4 &= limbMask
	t6 += t5 >> 58
	t5 &= limbMask
	t7 += t6 >> 58
	t6 &= limbMask
	t8 += t7 >> 58
	t7 &= limbMask

	r.n[0], r.n[1], r.n[2], r.n[3], r.n[4] = t0, t1, t2, t3, t4
	r.n[5], r.n[6], r.n[7], r.n[8] = t5, t6, t7, t8
	r.magnitude = 1
	r.normalized = false
}

// isZero returns true if the field element represents zero
func (r *FieldElement) isZero() bool {
	if !r.normalized {
		panic("field element must be normalized")
	}
	return (r.n[0] | r.n[1] | r.n[2] | r.n[3] | r.n[4] | r.n[5] | r.n[6] | r.n[7] | r.n[8]) == 0
}

// isOdd returns true if the field element is odd
func (r *FieldElement) isOdd() bool {
	if !r.normalized {
		panic("field element must be normalized")
	}
	return r.n[0]&1 == 1
}

// normalizesToZeroVar checks if the field element normalizes to zero.
// This is a variable-time check (not constant-time).
func (r *FieldElement) normalizesToZeroVar() bool {
	var t FieldElement
	t = *r
	t.normalize()
	return t.isZero()
}

// normalizesToZeroMask returns an all-ones mask if the field element
// normalizes to zero and zero otherwise, in constant time.
func (r *FieldElement) normalizesToZeroMask() uint64 {
	var t FieldElement
	t = *r
	t.normalize()
	acc := t.n[0] | t.n[1] | t.n[2] | t.n[3] | t.n[4] | t.n[5] | t.n[6] | t.n[7] | t.n[8]
	nz := (acc | (0 - acc)) >> 63
	return 0 - (nz ^ 1)
}

// equal returns true if two field elements are equal
func (r *FieldElement) equal(a *FieldElement) bool {
	// Both must be normalized for comparison
	if !r.normalized || !a.normalized {
		panic("field elements must be normalized for comparison")
	}

	return subtle.ConstantTimeCompare(
		(*[72]byte)(unsafe.Pointer(&r.n[0]))[:72],
		(*[72]byte)(unsafe.Pointer(&a.n[0]))[:72],
	) == 1
}

// setInt sets a field element to a small integer value
func (r *FieldElement) setInt(a int) {
	if a < 0 || a > 0x7FFF {
		panic("value out of range")
	}

	r.n = [9]uint64{uint64(a), 0, 0, 0, 0, 0, 0, 0, 0}
	if a == 0 {
		r.magnitude = 0
	} else {
		r.magnitude = 1
	}
	r.normalized = true
}

// clear clears a field element to prevent leaking sensitive information
func (r *FieldElement) clear() {
	memclear(unsafe.Pointer(&r.n[0]), unsafe.Sizeof(r.n))
	r.magnitude = 0
	r.normalized = true
}

// negate negates a field element: r = -a. The magnitude m must be an upper
// bound on the magnitude of a.
func (r *FieldElement) negate(a *FieldElement, m int) {
	if m < 0 || m > 30 {
		panic("magnitude out of range")
	}

	// r = 2*(m+1)*p - a: every limb of p is all-ones, so the limbwise
	// subtraction cannot borrow.
	k := 2 * (uint64(m) + 1)
	r.n[0] = k*limbMask - a.n[0]
	r.n[1] = k*limbMask - a.n[1]
	r.n[2] = k*limbMask - a.n[2]
	r.n[3] = k*limbMask - a.n[3]
	r.n[4] = k*limbMask - a.n[4]
	r.n[5] = k*limbMask - a.n[5]
	r.n[6] = k*limbMask - a.n[6]
	r.n[7] = k*limbMask - a.n[7]
	r.n[8] = k*topMask - a.n[8]

	r.magnitude = m + 1
	r.normalized = false
}

// add adds two field elements: r += a
func (r *FieldElement) add(a *FieldElement) {
	r.n[0] += a.n[0]
	r.n[1] += a.n[1]
	r.n[2] += a.n[2]
	r.n[3] += a.n[3]
	r.n[4] += a.n[4]
	r.n[5] += a.n[5]
	r.n[6] += a.n[6]
	r.n[7] += a.n[7]
	r.n[8] += a.n[8]

	r.magnitude += a.magnitude
	r.normalized = false
}

// sub subtracts a field element: r -= a
func (r *FieldElement) sub(a *FieldElement) {
	// To subtract, we add the negation
	var negA FieldElement
	negA.negate(a, a.magnitude)
	r.add(&negA)
}

// mulInt multiplies a field element by a small integer
func (r *FieldElement) mulInt(a int) {
	if a < 0 || a > 32 {
		panic("multiplier out of range")
	}

	ua := uint64(a)
	r.n[0] *= ua
	r.n[1] *= ua
	r.n[2] *= ua
	r.n[3] *= ua
	r.n[4] *= ua
	r.n[5] *= ua
	r.n[6] *= ua
	r.n[7] *= ua
	r.n[8] *= ua

	r.magnitude *= a
	r.normalized = false
}

// half sets r to r/2 mod p. The input must be normalized.
func (r *FieldElement) half() {
	if !r.normalized {
		panic("field element must be normalized")
	}

	// If r is odd, add p (all-ones limbs) before shifting. p is odd, so
	// exactly one of r, r+p is even.
	mask := 0 - (r.n[0] & 1)

	t0 := r.n[0] + (mask & limbMask)
	t1 := r.n[1] + (mask & limbMask)
	t2 := r.n[2] + (mask & limbMask)
	t3 := r.n[3] + (mask & limbMask)
	t4 := r.n[4] + (mask & limbMask)
	t5 := r.n[5] + (mask & limbMask)
	t6 := r.n[6] + (mask & limbMask)
	t7 := r.n[7] + (mask & limbMask)
	t8 := r.n[8] + (mask & topMask)

	// Propagate carries from the addition, then shift right by one.
	t1 += t0 >> 58
	t0 &= limbMask
	t2 += t1 >> 58
	t1 &= limbMask
	t3 += t2 >> 58
	t2 &= limbMask
	t4 += t3 >> 58
	t3 &= limbMask
	t5 += t4 >> 58
	t4 &= limbMask
	t6 += t5 >> 58
	t5 &= limbMask
	t7 += t6 >> 58
	t6 &= limbMask
	t8 += t7 >> 58
	t7 &= limbMask

	r.n[0] = ((t0 >> 1) | (t1 << 57)) & limbMask
	r.n[1] = ((t1 >> 1) | (t2 << 57)) & limbMask
	r.n[2] = ((t2 >> 1) | (t3 << 57)) & limbMask
	r.n[3] = ((t3 >> 1) | (t4 << 57)) & limbMask
	r.n[4] = ((t4 >> 1) | (t5 << 57)) & limbMask
	r.n[5] = ((t5 >> 1) | (t6 << 57)) & limbMask
	r.n[6] = ((t6 >> 1) | (t7 << 57)) & limbMask
	r.n[7] = ((t7 >> 1) | (t8 << 57)) & limbMask
	r.n[8] = t8 >> 1

	r.magnitude = 1
	r.normalized = false
}

// cmov conditionally moves a field element. If flag is true, r = a; otherwise r is unchanged.
func (r *FieldElement) cmov(a *FieldElement, flag int) {
	mask := uint64(-(int64(flag) & 1))
	r.n[0] ^= mask & (r.n[0] ^ a.n[0])
	r.n[1] ^= mask & (r.n[1] ^ a.n[1])
	r.n[2] ^= mask & (r.n[2] ^ a.n[2])
	r.n[3] ^= mask & (r.n[3] ^ a.n[3])
	r.n[4] ^= mask & (r.n[4] ^ a.n[4])
	r.n[5] ^= mask & (r.n[5] ^ a.n[5])
	r.n[6] ^= mask & (r.n[6] ^ a.n[6])
	r.n[7] ^= mask & (r.n[7] ^ a.n[7])
	r.n[8] ^= mask & (r.n[8] ^ a.n[8])

	f := int(mask) & 1
	r.magnitude ^= (r.magnitude ^ a.magnitude) & -f
	r.normalized = (boolToInt(r.normalized) ^ ((boolToInt(r.normalized) ^ boolToInt(a.normalized)) & f)) == 1
}

// cswap exchanges two field elements when flag is 1, in constant time.
func cswap(a, b *FieldElement, flag int) {
	mask := uint64(-(int64(flag) & 1))
	for i := 0; i < 9; i++ {
		t := mask & (a.n[i] ^ b.n[i])
		a.n[i] ^= t
		b.n[i] ^= t
	}

	f := -(int(mask) & 1)
	m := f & (a.magnitude ^ b.magnitude)
	a.magnitude ^= m
	b.magnitude ^= m

	na := boolToInt(a.normalized)
	nb := boolToInt(b.normalized)
	nt := f & (na ^ nb)
	a.normalized = na^nt == 1
	b.normalized = nb^nt == 1
}

// memclear clears memory to prevent leaking sensitive information
func memclear(ptr unsafe.Pointer, n uintptr) {
	// Use a volatile write to prevent the compiler from optimizing away the clear
	for i := uintptr(0); i < n; i++ {
		*(*byte)(unsafe.Pointer(uintptr(ptr) + i)) = 0
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ctEq returns 1 if a == b and 0 otherwise, in constant time.
func ctEq(a, b uint32) int {
	m := uint64(a ^ b)
	return int(1 ^ (((m | (0 - m)) >> 63) & 1))
}

// batchInverse computes the inverses of a slice of FieldElements.
func batchInverse(out []FieldElement, a []FieldElement) {
	n := len(a)
	if n == 0 {
		return
	}

	// Montgomery's trick performs a batch inversion with only a single
	// field inversion.
	s := make([]FieldElement, n)

	// s_i = a_0 * a_1 * ... * a_{i-1}
	s[0].setInt(1)
	for i := 1; i < n; i++ {
		s[i].mul(&s[i-1], &a[i-1])
	}

	// u = (a_0 * a_1 * ... * a_{n-1})^-1
	var u FieldElement
	u.mul(&s[n-1], &a[n-1])
	u.inv(&u)

	// out_i = (a_0 * ... * a_{i-1}) * (a_0 * ... * a_i)^-1
	//
	// Loop backwards to make it an in-place algorithm.
	for i := n - 1; i >= 0; i-- {
		out[i].mul(&u, &s[i])
		u.mul(&u, &a[i])
	}
}
