package p521

import "math/bits"

// uint128 represents a 128-bit unsigned integer for field arithmetic
type uint128 struct {
	high, low uint64
}

// mulU64ToU128 multiplies two uint64 values and returns a uint128
func mulU64ToU128(a, b uint64) uint128 {
	hi, lo := bits.Mul64(a, b)
	return uint128{high: hi, low: lo}
}

// addMulU128 computes c + a*b and returns the result as uint128
func addMulU128(c uint128, a, b uint64) uint128 {
	hi, lo := bits.Mul64(a, b)

	// Add lo to c.low
	newLo, carry := bits.Add64(c.low, lo, 0)

	// Add hi and carry to c.high
	newHi, _ := bits.Add64(c.high, hi, carry)

	return uint128{high: newHi, low: newLo}
}

// addU128 adds a uint64 to a uint128
func addU128(c uint128, a uint64) uint128 {
	newLo, carry := bits.Add64(c.low, a, 0)
	newHi, _ := bits.Add64(c.high, 0, carry)
	return uint128{high: newHi, low: newLo}
}

// addU128U128 adds two uint128 values
func addU128U128(c, a uint128) uint128 {
	newLo, carry := bits.Add64(c.low, a.low, 0)
	newHi, _ := bits.Add64(c.high, a.high, carry)
	return uint128{high: newHi, low: newLo}
}

// lshift1 shifts the uint128 left by one bit
func (u uint128) lshift1() uint128 {
	return uint128{high: (u.high << 1) | (u.low >> 63), low: u.low << 1}
}

// lo returns the lower 64 bits
func (u uint128) lo() uint64 {
	return u.low
}

// hi returns the upper 64 bits
func (u uint128) hi() uint64 {
	return u.high
}

// rshift shifts the uint128 right by n bits
func (u uint128) rshift(n uint) uint128 {
	if n >= 64 {
		return uint128{high: 0, low: u.high >> (n - 64)}
	}
	return uint128{
		high: u.high >> n,
		low:  (u.low >> n) | (u.high << (64 - n)),
	}
}

// mul multiplies two field elements: r = a * b
//
// The product is accumulated in 17 base-2^58 columns, then the high
// columns are folded down using 2^522 == 2 (mod p).
func (r *FieldElement) mul(a, b *FieldElement) {
	// The column accumulators hold at most 9 products of two 58-bit
	// limbs plus a folded high column, so inputs are brought down to
	// magnitude 1 first.
	var aNorm, bNorm *FieldElement
	var aTemp, bTemp FieldElement

	if a.magnitude > 1 {
		aTemp = *a
		aTemp.normalizeWeak()
		aNorm = &aTemp
	} else {
		aNorm = a
	}

	if b.magnitude > 1 {
		bTemp = *b
		bTemp.normalizeWeak()
		bNorm = &bTemp
	} else {
		bNorm = b
	}

	var c [17]uint128
	for i := 0; i < 9; i++ {
		ai := aNorm.n[i]
		for j := 0; j < 9; j++ {
			c[i+j] = addMulU128(c[i+j], ai, bNorm.n[j])
		}
	}

	r.reduceColumns(&c)
}

// sqr squares a field element: r = a^2
func (r *FieldElement) sqr(a *FieldElement) {
	var aNorm *FieldElement
	var aTemp FieldElement

	if a.magnitude > 1 {
		aTemp = *a
		aTemp.normalizeWeak()
		aNorm = &aTemp
	} else {
		aNorm = a
	}

	var c [17]uint128
	for i := 0; i < 9; i++ {
		ai := aNorm.n[i]
		c[2*i] = addMulU128(c[2*i], ai, ai)
		for j := i + 1; j < 9; j++ {
			// Cross terms appear twice
			c[i+j] = addMulU128(c[i+j], ai*2, aNorm.n[j])
		}
	}

	r.reduceColumns(&c)
}

// reduceColumns folds 17 base-2^58 product columns into 9 limbs of
// magnitude 1. Columns 9..16 sit above the 2^522 boundary, and
// 2^522 == 2 (mod p), so each folds into its low counterpart doubled.
func (r *FieldElement) reduceColumns(c *[17]uint128) {
	for j := 0; j < 8; j++ {
		c[j] = addU128U128(c[j], c[j+9].lshift1())
	}

	// Carry pass over the 128-bit columns
	var t [9]uint64
	for j := 0; j < 8; j++ {
		t[j] = c[j].lo() & limbMask
		c[j+1] = addU128U128(c[j+1], c[j].rshift(58))
	}

	// The prime boundary falls at bit 57 of the top limb. The overflow
	// above 2^521 folds in at the bottom since 2^521 == 1 (mod p).
	t[8] = c[8].lo() & topMask
	x := c[8].rshift(57).lo()

	t[0] += x
	t[1] += t[0] >> 58
	t[0] &= limbMask
	t[2] += t[1] >> 58
	t[1] &= limbMask
	t[3] += t[2] >> 58
	t[2] &= limbMask
	t[4] += t[3] >> 58
	t[3] &= limbMask
	t[5] += t[4] >> 58
	t[4] &= limbMask
	t[6] += t[5] >> 58
	t[5] &= limbMask
	t[7] += t[6] >> 58
	t[6] &= limbMask
	t[8] += t[7] >> 58
	t[7] &= limbMask

	r.n = t
	r.magnitude = 1
	r.normalized = false
}

// sqrN squares the field element n times in place.
func (r *FieldElement) sqrN(n int) {
	for i := 0; i < n; i++ {
		r.sqr(r)
	}
}

// inv computes the modular inverse of a field element using Fermat's
// little theorem: a^(p-2) mod p. The inverse of zero is zero.
//
// The exponent p-2 = 2^521 - 3 is all ones except bit 1, which an
// addition chain over blocks of ones covers with 12 multiplies beyond
// the squarings.
func (r *FieldElement) inv(a *FieldElement) {
	var aNorm FieldElement
	aNorm = *a
	aNorm.normalize()

	// xK = a^(2^K - 1)
	var x2, x4, x6, x7, x8, x16, x32, x64, x128, x256, x512, t1 FieldElement

	x2.sqr(&aNorm)
	x2.mul(&x2, &aNorm)

	x4 = x2
	x4.sqrN(2)
	x4.mul(&x4, &x2)

	x6 = x4
	x6.sqrN(2)
	x6.mul(&x6, &x2)

	x7.sqr(&x6)
	x7.mul(&x7, &aNorm)

	x8.sqr(&x7)
	x8.mul(&x8, &aNorm)

	x16 = x8
	x16.sqrN(8)
	x16.mul(&x16, &x8)

	x32 = x16
	x32.sqrN(16)
	x32.mul(&x32, &x16)

	x64 = x32
	x64.sqrN(32)
	x64.mul(&x64, &x32)

	x128 = x64
	x128.sqrN(64)
	x128.mul(&x128, &x64)

	x256 = x128
	x256.sqrN(128)
	x256.mul(&x256, &x128)

	x512 = x256
	x512.sqrN(256)
	x512.mul(&x512, &x256)

	// t1 = a^(2^519 - 1)
	t1 = x512
	t1.sqrN(7)
	t1.mul(&t1, &x7)

	// r = a^(2^521 - 3)
	t1.sqrN(2)
	r.mul(&t1, &aNorm)
	r.normalize()
}

// sqrt computes the square root of a field element if it exists.
//
// p == 3 (mod 4), so the candidate root is a^((p+1)/4) = a^(2^519),
// which is just 519 squarings. The result is checked by squaring, as
// the same exponentiation maps non-residues to the root of -a.
func (r *FieldElement) sqrt(a *FieldElement) bool {
	var aNorm FieldElement
	aNorm = *a
	aNorm.normalize()

	var t FieldElement
	t = aNorm
	t.sqrN(519)
	*r = t

	var check FieldElement
	check.sqr(r)
	check.normalize()
	r.normalize()

	return check.equal(&aNorm)
}

// isSquare checks if a field element is a quadratic residue using the
// Euler criterion: a^((p-1)/2) == 1. Zero counts as a square.
func (a *FieldElement) isSquare() bool {
	var aNorm FieldElement
	aNorm = *a
	aNorm.normalize()
	if aNorm.isZero() {
		return true
	}

	// (p-1)/2 = 2^520 - 1, reached by extending a^(2^519 - 1)
	var x2, x4, x6, x7, x8, x16, x32, x64, x128, x256, x512, t1 FieldElement

	x2.sqr(&aNorm)
	x2.mul(&x2, &aNorm)

	x4 = x2
	x4.sqrN(2)
	x4.mul(&x4, &x2)

	x6 = x4
	x6.sqrN(2)
	x6.mul(&x6, &x2)

	x7.sqr(&x6)
	x7.mul(&x7, &aNorm)

	x8.sqr(&x7)
	x8.mul(&x8, &aNorm)

	x16 = x8
	x16.sqrN(8)
	x16.mul(&x16, &x8)

	x32 = x16
	x32.sqrN(16)
	x32.mul(&x32, &x16)

	x64 = x32
	x64.sqrN(32)
	x64.mul(&x64, &x32)

	x128 = x64
	x128.sqrN(64)
	x128.mul(&x128, &x64)

	x256 = x128
	x256.sqrN(128)
	x256.mul(&x256, &x128)

	x512 = x256
	x512.sqrN(256)
	x512.mul(&x512, &x256)

	t1 = x512
	t1.sqrN(7)
	t1.mul(&t1, &x7)

	// t1 = a^(2^520 - 1)
	t1.sqr(&t1)
	t1.mul(&t1, &aNorm)

	t1.normalize()
	return t1.equal(&FieldElementOne)
}
