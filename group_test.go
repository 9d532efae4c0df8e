package p521

import (
	"testing"
)

func TestGeneratorIsValid(t *testing.T) {
	if !Generator.isValid() {
		t.Fatal("generator should be on the curve")
	}
	if Generator.isInfinity() {
		t.Fatal("generator should not be infinity")
	}

	// y^2 == x^3 - 3x + b at the generator
	var rhs, y2 FieldElement
	curveRHS(&rhs, &GeneratorX)
	rhs.normalize()
	y2.sqr(&GeneratorY)
	y2.normalize()
	if !rhs.equal(&y2) {
		t.Error("curve equation should hold at the generator")
	}
}

func TestGroupDouble(t *testing.T) {
	var gj, d1, d2 GroupElementJacobian
	gj.setGE(&Generator)

	// double must agree with addition of a point to itself
	d1.double(&gj)
	d2.addUnified(&gj, &gj)
	if !d1.equalVar(&d2) {
		t.Error("double should agree with unified self-addition")
	}

	var d3 GroupElementJacobian
	d3.addGE(&gj, &Generator)
	if !d1.equalVar(&d3) {
		t.Error("double should agree with mixed self-addition")
	}

	// Doubling infinity stays at infinity
	var inf, dInf GroupElementJacobian
	inf.setInfinity()
	dInf.double(&inf)
	if !dInf.isInfinityVar() {
		t.Error("doubling infinity should yield infinity")
	}
}

func TestGroupAddIdentity(t *testing.T) {
	var gj, inf, r GroupElementJacobian
	gj.setGE(&Generator)
	inf.setInfinity()

	r.addUnified(&gj, &inf)
	if !r.equalVar(&gj) {
		t.Error("P + 0 should equal P")
	}
	r.addUnified(&inf, &gj)
	if !r.equalVar(&gj) {
		t.Error("0 + P should equal P")
	}
	r.addUnified(&inf, &inf)
	if !r.isInfinityVar() {
		t.Error("0 + 0 should be infinity")
	}

	r.addVar(&gj, &inf)
	if !r.equalVar(&gj) {
		t.Error("variable-time P + 0 should equal P")
	}
	r.addVar(&inf, &gj)
	if !r.equalVar(&gj) {
		t.Error("variable-time 0 + P should equal P")
	}
}

func TestGroupAddInverse(t *testing.T) {
	var gj, negGj, r GroupElementJacobian
	gj.setGE(&Generator)
	negGj.negate(&gj)

	r.addUnified(&gj, &negGj)
	if !r.isInfinityVar() {
		t.Error("P + (-P) should be infinity")
	}

	r.addVar(&gj, &negGj)
	if !r.isInfinityVar() {
		t.Error("variable-time P + (-P) should be infinity")
	}

	var negAff GroupElementAffine
	negAff.negate(&Generator)
	r.addGE(&gj, &negAff)
	if !r.isInfinityVar() {
		t.Error("mixed P + (-P) should be infinity")
	}
	r.addGEVar(&gj, &negAff)
	if !r.isInfinityVar() {
		t.Error("variable-time mixed P + (-P) should be infinity")
	}
}

func TestGroupAddConsistency(t *testing.T) {
	// G + 2G computed four ways must agree
	var gj, g2, want GroupElementJacobian
	gj.setGE(&Generator)
	g2.double(&gj)
	want.addVar(&gj, &g2)

	var r GroupElementJacobian
	r.addUnified(&gj, &g2)
	if !r.equalVar(&want) {
		t.Error("unified addition disagrees with variable-time addition")
	}

	var g2Aff GroupElementAffine
	g2Aff.setGEJ(&g2)
	r.addGE(&gj, &g2Aff)
	if !r.equalVar(&want) {
		t.Error("mixed addition disagrees with variable-time addition")
	}
	r.addGEVar(&gj, &g2Aff)
	if !r.equalVar(&want) {
		t.Error("variable-time mixed addition disagrees")
	}
}

func TestGroupLaws(t *testing.T) {
	// P = G, Q = 2G, R = 3G
	var p, q, r GroupElementJacobian
	p.setGE(&Generator)
	q.double(&p)
	r.addVar(&p, &q)

	// Commutativity
	var pq, qp GroupElementJacobian
	pq.addUnified(&p, &q)
	qp.addUnified(&q, &p)
	if !pq.equalVar(&qp) {
		t.Error("addition should be commutative")
	}

	// Associativity
	var left, right, t1, t2 GroupElementJacobian
	t1.addUnified(&p, &q)
	left.addUnified(&t1, &r)
	t2.addUnified(&q, &r)
	right.addUnified(&p, &t2)
	if !left.equalVar(&right) {
		t.Error("addition should be associative")
	}
}

func TestGroupSetXOVar(t *testing.T) {
	// Recovering the generator from its x coordinate and y parity
	GeneratorY.normalize()
	odd := GeneratorY.isOdd()

	var pt GroupElementAffine
	if !pt.setXOVar(&GeneratorX, odd) {
		t.Fatal("x-recovery of the generator should succeed")
	}
	if !pt.equal(&Generator) {
		t.Error("recovered point should equal the generator")
	}

	// The opposite parity gives the negation
	var neg, wantNeg GroupElementAffine
	if !neg.setXOVar(&GeneratorX, !odd) {
		t.Fatal("x-recovery with flipped parity should succeed")
	}
	wantNeg.negate(&Generator)
	if !neg.equal(&wantNeg) {
		t.Error("flipped parity should give the negated point")
	}

	// x = 3 has a non-square right-hand side
	var badX FieldElement
	badX.setInt(3)
	badX.normalize()
	if pt.setXOVar(&badX, false) {
		t.Error("x-recovery should fail for x = 3")
	}
}

func TestGroupJacobianRoundTrip(t *testing.T) {
	var gj GroupElementJacobian
	gj.setGE(&Generator)

	// Rescale by an arbitrary z and convert back
	var z, z2, z3 FieldElement
	z.setInt(97531)
	z2.sqr(&z)
	z3.mul(&z2, &z)

	var scaled GroupElementJacobian
	scaled.x.mul(&gj.x, &z2)
	scaled.y.mul(&gj.y, &z3)
	scaled.z.mul(&gj.z, &z)

	var back GroupElementAffine
	back.setGEJ(&scaled)
	back.x.normalize()
	back.y.normalize()
	if !back.equal(&Generator) {
		t.Error("rescaled Jacobian point should convert back to the generator")
	}

	if !gj.equalVar(&scaled) {
		t.Error("rescaled Jacobian point should compare equal")
	}
}

func TestGroupInfinityMapping(t *testing.T) {
	aff := NewGroupElementAffine()
	if !aff.isInfinity() {
		t.Error("a fresh affine element should start at infinity")
	}

	j := NewGroupElementJacobian()
	j.setGE(aff)
	if !j.isInfinityVar() {
		t.Error("affine infinity should map to Jacobian infinity")
	}
	if j.infinityMask() != ^uint64(0) {
		t.Error("infinity mask should be all ones at infinity")
	}

	var back GroupElementAffine
	back.setGEJ(j)
	if !back.isInfinity() {
		t.Error("Jacobian infinity should map back to affine infinity")
	}
	back.x.normalize()
	back.y.normalize()
	if !back.x.isZero() || !back.y.isZero() {
		t.Error("the selected infinity result should carry zero coordinates")
	}

	var gj GroupElementJacobian
	gj.setGE(&Generator)
	if gj.infinityMask() != 0 {
		t.Error("infinity mask should be zero for a finite point")
	}
}

func TestGroupAffineCmov(t *testing.T) {
	var a GroupElementAffine
	a.setInfinity()

	r := a
	r.cmov(&Generator, 0)
	if !r.isInfinity() {
		t.Error("cmov with flag 0 should keep the destination")
	}
	r.cmov(&Generator, 1)
	if !r.equal(&Generator) {
		t.Error("cmov with flag 1 should copy the source")
	}
}
