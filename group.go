package p521

// GroupElementAffine represents a point on the P-521 curve in affine coordinates (x, y)
type GroupElementAffine struct {
	x, y     FieldElement
	infinity bool
}

// GroupElementJacobian represents a point on the P-521 curve in Jacobian
// coordinates (x, y, z) where the affine coordinates are (x/z^2, y/z^3).
// The point at infinity is any representation with z == 0, so the group
// law never branches on an identity flag.
type GroupElementJacobian struct {
	x, y, z FieldElement
}

// Curve constants for y^2 = x^3 - 3x + b
var (
	// CurveB is the P-521 curve parameter b
	CurveB FieldElement

	// Generator point in affine coordinates
	GeneratorX FieldElement
	GeneratorY FieldElement
	Generator  GroupElementAffine
)

// Initialize curve constants
func init() {
	bBytes := []byte{
		0x00, 0x51, 0x95, 0x3E, 0xB9, 0x61, 0x8E, 0x1C,
		0x9A, 0x1F, 0x92, 0x9A, 0x21, 0xA0, 0xB6, 0x85,
		0x40, 0xEE, 0xA2, 0xDA, 0x72, 0x5B, 0x99, 0xB3,
		0x15, 0xF3, 0xB8, 0xB4, 0x89, 0x91, 0x8E, 0xF1,
		0x09, 0xE1, 0x56, 0x19, 0x39, 0x51, 0xEC, 0x7E,
		0x93, 0x7B, 0x16, 0x52, 0xC0, 0xBD, 0x3B, 0xB1,
		0xBF, 0x07, 0x35, 0x73, 0xDF, 0x88, 0x3D, 0x2C,
		0x34, 0xF1, 0xEF, 0x45, 0x1F, 0xD4, 0x6B, 0x50,
		0x3F, 0x00,
	}

	gxBytes := []byte{
		0x00, 0xC6, 0x85, 0x8E, 0x06, 0xB7, 0x04, 0x04,
		0xE9, 0xCD, 0x9E, 0x3E, 0xCB, 0x66, 0x23, 0x95,
		0xB4, 0x42, 0x9C, 0x64, 0x81, 0x39, 0x05, 0x3F,
		0xB5, 0x21, 0xF8, 0x28, 0xAF, 0x60, 0x6B, 0x4D,
		0x3D, 0xBA, 0xA1, 0x4B, 0x5E, 0x77, 0xEF, 0xE7,
		0x59, 0x28, 0xFE, 0x1D, 0xC1, 0x27, 0xA2, 0xFF,
		0xA8, 0xDE, 0x33, 0x48, 0xB3, 0xC1, 0x85, 0x6A,
		0x42, 0x9B, 0xF9, 0x7E, 0x7E, 0x31, 0xC2, 0xE5,
		0xBD, 0x66,
	}

	gyBytes := []byte{
		0x01, 0x18, 0x39, 0x29, 0x6A, 0x78, 0x9A, 0x3B,
		0xC0, 0x04, 0x5C, 0x8A, 0x5F, 0xB4, 0x2C, 0x7D,
		0x1B, 0xD9, 0x98, 0xF5, 0x44, 0x49, 0x57, 0x9B,
		0x44, 0x68, 0x17, 0xAF, 0xBD, 0x17, 0x27, 0x3E,
		0x66, 0x2C, 0x97, 0xEE, 0x72, 0x99, 0x5E, 0xF4,
		0x26, 0x40, 0xC5, 0x50, 0xB9, 0x01, 0x3F, 0xAD,
		0x07, 0x61, 0x35, 0x3C, 0x70, 0x86, 0xA2, 0x72,
		0xC2, 0x40, 0x88, 0xBE, 0x94, 0x76, 0x9F, 0xD1,
		0x66, 0x50,
	}

	CurveB.setB66(bBytes)
	GeneratorX.setB66(gxBytes)
	GeneratorY.setB66(gyBytes)

	Generator = GroupElementAffine{
		x:        GeneratorX,
		y:        GeneratorY,
		infinity: false,
	}
}

// NewGroupElementAffine creates a new affine group element
func NewGroupElementAffine() *GroupElementAffine {
	return &GroupElementAffine{
		x:        FieldElementZero,
		y:        FieldElementZero,
		infinity: true,
	}
}

// NewGroupElementJacobian creates a new Jacobian group element set to infinity
func NewGroupElementJacobian() *GroupElementJacobian {
	r := &GroupElementJacobian{}
	r.setInfinity()
	return r
}

// curveRHS computes x^3 - 3x + b
func curveRHS(rhs, x *FieldElement) {
	var x2, t FieldElement
	x2.sqr(x)
	rhs.mul(&x2, x)

	// -3x
	t = *x
	t.mulInt(3)
	rhs.sub(&t)

	rhs.add(&CurveB)
}

// setXY sets a group element to the point with given coordinates
func (r *GroupElementAffine) setXY(x, y *FieldElement) {
	r.x = *x
	r.y = *y
	r.infinity = false
}

// setXOVar sets a group element to the point with given X coordinate and Y oddness.
// Returns false if x is not the abscissa of a curve point.
func (r *GroupElementAffine) setXOVar(x *FieldElement, odd bool) bool {
	var y2, y FieldElement
	curveRHS(&y2, x)

	if !y.sqrt(&y2) {
		return false
	}

	// Parity fix as a select between the root and its negation
	y.normalize()
	var yn FieldElement
	yn.negate(&y, 1)
	yn.normalize()
	y.cmov(&yn, boolToInt(y.isOdd() != odd))

	r.setXY(x, &y)
	return true
}

// isInfinity returns true if the group element is the point at infinity
func (r *GroupElementAffine) isInfinity() bool {
	return r.infinity
}

// isValid checks if the group element satisfies the curve equation
func (r *GroupElementAffine) isValid() bool {
	if r.infinity {
		return true
	}

	var xNorm, yNorm FieldElement
	xNorm = r.x
	yNorm = r.y
	xNorm.normalize()
	yNorm.normalize()

	var lhs, rhs FieldElement
	lhs.sqr(&yNorm)
	curveRHS(&rhs, &xNorm)

	lhs.normalize()
	rhs.normalize()

	return lhs.equal(&rhs)
}

// negate sets r to the negation of a (mirror around the X axis)
func (r *GroupElementAffine) negate(a *GroupElementAffine) {
	r.x = a.x
	r.y.negate(&a.y, a.y.magnitude)
	r.infinity = a.infinity
}

// setInfinity sets the group element to the point at infinity
func (r *GroupElementAffine) setInfinity() {
	r.x = FieldElementZero
	r.y = FieldElementZero
	r.infinity = true
}

// equal returns true if two group elements are equal
func (r *GroupElementAffine) equal(a *GroupElementAffine) bool {
	if r.infinity && a.infinity {
		return true
	}
	if r.infinity || a.infinity {
		return false
	}

	var rNorm, aNorm GroupElementAffine
	rNorm = *r
	aNorm = *a
	rNorm.x.normalize()
	rNorm.y.normalize()
	aNorm.x.normalize()
	aNorm.y.normalize()

	return rNorm.x.equal(&aNorm.x) && rNorm.y.equal(&aNorm.y)
}

// cmov conditionally moves a group element. If flag is 1, r = a.
func (r *GroupElementAffine) cmov(a *GroupElementAffine, flag int) {
	r.x.cmov(&a.x, flag)
	r.y.cmov(&a.y, flag)
	rInf := boolToInt(r.infinity)
	aInf := boolToInt(a.infinity)
	r.infinity = (rInf ^ ((rInf ^ aInf) & (flag & 1))) == 1
}

// clear clears a group element to prevent leaking sensitive information
func (r *GroupElementAffine) clear() {
	r.x.clear()
	r.y.clear()
	r.infinity = true
}

// Jacobian coordinate operations

// setInfinity sets the Jacobian group element to the point at infinity
func (r *GroupElementJacobian) setInfinity() {
	r.x = FieldElementZero
	r.y = FieldElementOne
	r.z = FieldElementZero
}

// isInfinityVar returns true if the point is the point at infinity.
// Variable time: only use with public points.
func (r *GroupElementJacobian) isInfinityVar() bool {
	return r.z.normalizesToZeroVar()
}

// infinityMask returns an all-ones mask if the point is at infinity,
// in constant time.
func (r *GroupElementJacobian) infinityMask() uint64 {
	return r.z.normalizesToZeroMask()
}

// setGE sets a Jacobian element from an affine element
func (r *GroupElementJacobian) setGE(a *GroupElementAffine) {
	r.x = a.x
	r.y = a.y
	r.z = FieldElementOne

	// An affine infinity maps to z = 0 without branching
	mask := 0 - uint64(boolToInt(a.infinity))
	var inf GroupElementJacobian
	inf.setInfinity()
	r.cmov(&inf, int(mask&1))
}

// setGEJ sets an affine element from a Jacobian element. The inversion
// runs even when z == 0, where inv yields zero, and the infinity result
// is selected by mask so conversion time does not depend on the point.
func (r *GroupElementAffine) setGEJ(a *GroupElementJacobian) {
	mask := a.infinityMask()

	var zi, zi2, zi3 FieldElement
	zi.inv(&a.z)
	zi2.sqr(&zi)
	zi3.mul(&zi, &zi2)

	r.x.mul(&a.x, &zi2)
	r.y.mul(&a.y, &zi3)
	r.infinity = false

	var inf GroupElementAffine
	inf.setInfinity()
	r.cmov(&inf, int(mask&1))
}

// negate sets r to the negation of a Jacobian point
func (r *GroupElementJacobian) negate(a *GroupElementJacobian) {
	r.x = a.x
	r.y.negate(&a.y, a.y.magnitude)
	r.z = a.z
}

// cmov conditionally moves a Jacobian element. If flag is 1, r = a.
func (r *GroupElementJacobian) cmov(a *GroupElementJacobian, flag int) {
	r.x.cmov(&a.x, flag)
	r.y.cmov(&a.y, flag)
	r.z.cmov(&a.z, flag)
}

// double sets r = 2*a (point doubling in Jacobian coordinates)
//
// Uses the doubling formulas for a = -3:
//
//	delta = Z1^2, gamma = Y1^2, beta = X1*gamma
//	alpha = 3*(X1 - delta)*(X1 + delta)
//	X3 = alpha^2 - 8*beta
//	Z3 = (Y1 + Z1)^2 - gamma - delta
//	Y3 = alpha*(4*beta - X3) - 8*gamma^2
//
// A z == 0 input yields z == 0 output, so the identity needs no branch.
// The group order is prime, so no curve point has y == 0 and doubling a
// finite point never produces infinity.
func (r *GroupElementJacobian) double(a *GroupElementJacobian) {
	var delta, gamma, beta, alpha, t1, t2, t3 FieldElement

	delta.sqr(&a.z)
	gamma.sqr(&a.y)
	beta.mul(&a.x, &gamma)

	// alpha = 3*(X1 - delta)*(X1 + delta)
	t1 = a.x
	t1.sub(&delta)
	t2 = a.x
	t2.add(&delta)
	alpha.mul(&t1, &t2)
	alpha.mulInt(3)

	// Z3 = (Y1 + Z1)^2 - gamma - delta; computed before X3/Y3 clobber
	// anything in case r aliases a
	t1 = a.y
	t1.add(&a.z)
	var z3 FieldElement
	z3.sqr(&t1)
	z3.sub(&gamma)
	z3.sub(&delta)

	// X3 = alpha^2 - 8*beta
	var x3 FieldElement
	x3.sqr(&alpha)
	t3 = beta
	t3.mulInt(8)
	x3.sub(&t3)

	// Y3 = alpha*(4*beta - X3) - 8*gamma^2
	t2 = beta
	t2.mulInt(4)
	t2.sub(&x3)
	r.y.mul(&alpha, &t2)
	t3.sqr(&gamma)
	t3.mulInt(8)
	r.y.sub(&t3)

	r.x = x3
	r.z = z3
}

// addUnified sets r = a + b in constant time. The general addition
// formulas fail when a == b, so the doubling of a is computed alongside
// and selected when both H and R vanish. Input identities (z == 0) are
// handled by selecting the other operand.
func (r *GroupElementJacobian) addUnified(a, b *GroupElementJacobian) {
	var z11, z22, u1, u2, s1, s2, h, rr FieldElement

	z11.sqr(&a.z)
	z22.sqr(&b.z)

	u1.mul(&a.x, &z22)
	u2.mul(&b.x, &z11)

	s1.mul(&a.y, &z22)
	s1.mul(&s1, &b.z)
	s2.mul(&b.y, &z11)
	s2.mul(&s2, &a.z)

	// h = u2 - u1, rr = s2 - s1
	h.negate(&u1, 1)
	h.add(&u2)
	rr.negate(&s1, 1)
	rr.add(&s2)

	hZero := h.normalizesToZeroMask()
	rZero := rr.normalizesToZeroMask()
	aInf := a.infinityMask()
	bInf := b.infinityMask()

	// General case. When h == 0 and rr != 0 (a == -b) the z below
	// vanishes, which is the correct identity result.
	var res GroupElementJacobian
	var hh, hhh, u1hh FieldElement
	hh.sqr(&h)
	hhh.mul(&hh, &h)
	u1hh.mul(&u1, &hh)

	res.z.mul(&a.z, &b.z)
	res.z.mul(&res.z, &h)

	// X3 = rr^2 - hhh - 2*u1hh
	res.x.sqr(&rr)
	var neg FieldElement
	neg.negate(&hhh, 1)
	res.x.add(&neg)
	neg.negate(&u1hh, 1)
	res.x.add(&neg)
	res.x.add(&neg)

	// Y3 = rr*(u1hh - X3) - s1*hhh
	var ty FieldElement
	ty = u1hh
	ty.sub(&res.x)
	res.y.mul(&rr, &ty)
	ty.mul(&s1, &hhh)
	res.y.sub(&ty)

	// Doubling result, selected when a == b
	var dbl GroupElementJacobian
	dbl.double(a)

	sameMask := hZero & rZero &^ aInf &^ bInf
	res.cmov(&dbl, int(sameMask&1))

	// Identity operands
	res.cmov(a, int(bInf&1))
	var bb GroupElementJacobian
	bb = *b
	res.cmov(&bb, int(aInf&1))

	*r = res
}

// addGE sets r = a + b where b is affine, in constant time. This is the
// mixed-coordinate variant of addUnified with z2 == 1.
func (r *GroupElementJacobian) addGE(a *GroupElementJacobian, b *GroupElementAffine) {
	var z11, u2, s2, h, rr FieldElement

	z11.sqr(&a.z)

	u2.mul(&b.x, &z11)
	s2.mul(&b.y, &z11)
	s2.mul(&s2, &a.z)

	// h = u2 - x1, rr = s2 - y1
	h.negate(&a.x, a.x.magnitude)
	h.add(&u2)
	rr.negate(&a.y, a.y.magnitude)
	rr.add(&s2)

	hZero := h.normalizesToZeroMask()
	rZero := rr.normalizesToZeroMask()
	aInf := a.infinityMask()
	bInf := 0 - uint64(boolToInt(b.infinity))

	var res GroupElementJacobian
	var hh, hhh, u1hh FieldElement
	hh.sqr(&h)
	hhh.mul(&hh, &h)
	u1hh.mul(&a.x, &hh)

	res.z.mul(&a.z, &h)

	res.x.sqr(&rr)
	var neg FieldElement
	neg.negate(&hhh, 1)
	res.x.add(&neg)
	neg.negate(&u1hh, 1)
	res.x.add(&neg)
	res.x.add(&neg)

	var ty FieldElement
	ty = u1hh
	ty.sub(&res.x)
	res.y.mul(&rr, &ty)
	ty.mul(&hhh, &a.y)
	res.y.sub(&ty)

	var dbl GroupElementJacobian
	dbl.double(a)

	sameMask := hZero & rZero &^ aInf &^ bInf
	res.cmov(&dbl, int(sameMask&1))

	res.cmov(a, int(bInf&1))
	var bj GroupElementJacobian
	bj.setGE(b)
	res.cmov(&bj, int(aInf&1))

	*r = res
}

// addVar sets r = a + b (variable-time point addition in Jacobian
// coordinates). Only use with public points.
func (r *GroupElementJacobian) addVar(a, b *GroupElementJacobian) {
	if a.isInfinityVar() {
		*r = *b
		return
	}
	if b.isInfinityVar() {
		*r = *a
		return
	}

	var z22, z12, u1, u2, s1, s2, h, i, h2, h3, t FieldElement

	z22.sqr(&b.z)
	z12.sqr(&a.z)

	u1.mul(&a.x, &z22)
	u2.mul(&b.x, &z12)

	s1.mul(&a.y, &z22)
	s1.mul(&s1, &b.z)
	s2.mul(&b.y, &z12)
	s2.mul(&s2, &a.z)

	// h = u2 - u1, i = s1 - s2
	h.negate(&u1, 1)
	h.add(&u2)
	i.negate(&s2, 1)
	i.add(&s1)

	if h.normalizesToZeroVar() {
		if i.normalizesToZeroVar() {
			r.double(a)
		} else {
			r.setInfinity()
		}
		return
	}

	t.mul(&h, &b.z)
	r.z.mul(&a.z, &t)

	h2.sqr(&h)
	h2.negate(&h2, 1)
	h3.mul(&h2, &h)
	t.mul(&u1, &h2)

	r.x.sqr(&i)
	r.x.add(&h3)
	r.x.add(&t)
	r.x.add(&t)

	t.add(&r.x)
	r.y.mul(&t, &i)
	h3.mul(&h3, &s1)
	r.y.add(&h3)
}

// addGEVar sets r = a + b where b is affine, in variable time
func (r *GroupElementJacobian) addGEVar(a *GroupElementJacobian, b *GroupElementAffine) {
	if b.infinity {
		*r = *a
		return
	}
	if a.isInfinityVar() {
		r.setGE(b)
		return
	}

	var z12, u1, u2, s1, s2, h, i, h2, h3, t FieldElement

	z12.sqr(&a.z)

	u1 = a.x
	u2.mul(&b.x, &z12)

	s1 = a.y
	s2.mul(&b.y, &z12)
	s2.mul(&s2, &a.z)

	h.negate(&u1, a.x.magnitude)
	h.add(&u2)
	i.negate(&s2, 1)
	i.add(&s1)

	if h.normalizesToZeroVar() {
		if i.normalizesToZeroVar() {
			r.double(a)
		} else {
			r.setInfinity()
		}
		return
	}

	r.z.mul(&a.z, &h)

	h2.sqr(&h)
	h2.negate(&h2, 1)
	h3.mul(&h2, &h)
	t.mul(&u1, &h2)

	r.x.sqr(&i)
	r.x.add(&h3)
	r.x.add(&t)
	r.x.add(&t)

	t.add(&r.x)
	r.y.mul(&t, &i)
	h3.mul(&h3, &s1)
	r.y.add(&h3)
}

// equalVar returns true if two Jacobian points represent the same group
// element, comparing cross-multiplied coordinates. Variable time.
func (r *GroupElementJacobian) equalVar(a *GroupElementJacobian) bool {
	rInf := r.isInfinityVar()
	aInf := a.isInfinityVar()
	if rInf || aInf {
		return rInf == aInf
	}

	// x1*z2^2 == x2*z1^2 and y1*z2^3 == y2*z1^3
	var z12, z22, l, m FieldElement
	z12.sqr(&r.z)
	z22.sqr(&a.z)

	l.mul(&r.x, &z22)
	m.mul(&a.x, &z12)
	l.normalize()
	m.normalize()
	if !l.equal(&m) {
		return false
	}

	l.mul(&r.y, &z22)
	l.mul(&l, &a.z)
	m.mul(&a.y, &z12)
	m.mul(&m, &r.z)
	l.normalize()
	m.normalize()
	return l.equal(&m)
}

// clear clears a Jacobian group element
func (r *GroupElementJacobian) clear() {
	r.x.clear()
	r.y.clear()
	r.z.clear()
}
