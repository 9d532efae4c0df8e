package p521

import "sync"

// Precomputed table configuration
const (
	// Window size for scalar multiplication (4 bits = 16 entries per window)
	EcmultWindowSize = 4
	EcmultTableSize  = 1 << EcmultWindowSize // 16

	// Number of windows covering a 521-bit scalar
	EcmultWindows = (521 + EcmultWindowSize - 1) / EcmultWindowSize // 131
)

// ecmultGenTable holds the precomputed comb table for generator
// multiplication: prec[i][j] = j * 16^i * G. Built once on first use.
var (
	ecmultGenPrec [EcmultWindows][EcmultTableSize]GroupElementAffine
	ecmultGenOnce sync.Once
)

func ecmultGenBuildTable() {
	current := Generator

	for i := 0; i < EcmultWindows; i++ {
		ecmultGenPrec[i][0].setInfinity()
		ecmultGenPrec[i][1] = current

		var temp GroupElementJacobian
		temp.setGE(&current)
		for j := 2; j < EcmultTableSize; j++ {
			temp.addGEVar(&temp, &current)
			ecmultGenPrec[i][j].setGEJ(&temp)
		}

		// current = 16 * current
		temp.setGE(&current)
		for k := 0; k < EcmultWindowSize; k++ {
			temp.double(&temp)
		}
		current.setGEJ(&temp)
	}
}

// lookupAffine scans a table and selects entry idx in constant time
func lookupAffine(r *GroupElementAffine, table []GroupElementAffine, idx uint32) {
	r.setInfinity()
	for j := range table {
		r.cmov(&table[j], ctEq(idx, uint32(j)))
	}
}

// EcmultGen performs constant-time generator multiplication: r = a*G.
//
// The scalar is split into 4-bit windows and each window selects from a
// precomputed comb table, so no doublings are needed and every table
// access touches all entries.
func EcmultGen(r *GroupElementJacobian, a *Scalar) {
	ecmultGenOnce.Do(ecmultGenBuildTable)

	r.setInfinity()

	var entry GroupElementAffine
	for i := 0; i < EcmultWindows; i++ {
		bits := a.getBits(uint(i*EcmultWindowSize), EcmultWindowSize)
		lookupAffine(&entry, ecmultGenPrec[i][:], bits)
		r.addGE(r, &entry)
	}
}

// EcmultConst performs constant-time scalar multiplication: r = k*P.
//
// A per-call table of 0P..15P is built with the unified group law,
// normalized to affine with one batched inversion, and scanned in full
// on every window lookup. The running time depends only on whether P is
// the point at infinity, never on k.
func EcmultConst(r *GroupElementJacobian, k *Scalar, p *GroupElementAffine) {
	if p.infinity {
		r.setInfinity()
		return
	}

	// Jacobian multiples 1P..15P
	var tj [EcmultTableSize]GroupElementJacobian
	tj[1].setGE(p)
	tj[2].double(&tj[1])
	for i := 3; i < EcmultTableSize; i++ {
		tj[i].addGE(&tj[i-1], p)
	}

	// Batch-normalize to affine. P has prime order so none of the
	// multiples 1P..15P is the identity and every z is invertible.
	var zs, zinvs [EcmultTableSize - 1]FieldElement
	for i := 1; i < EcmultTableSize; i++ {
		zs[i-1] = tj[i].z
	}
	batchInverse(zinvs[:], zs[:])

	var table [EcmultTableSize]GroupElementAffine
	table[0].setInfinity()
	for i := 1; i < EcmultTableSize; i++ {
		var zi2, zi3 FieldElement
		zi2.sqr(&zinvs[i-1])
		zi3.mul(&zi2, &zinvs[i-1])
		table[i].x.mul(&tj[i].x, &zi2)
		table[i].y.mul(&tj[i].y, &zi3)
		table[i].infinity = false
	}

	// Fixed-window scan from the top. The loop shape is identical for
	// every scalar.
	r.setInfinity()

	var entry GroupElementAffine
	for i := EcmultWindows - 1; i >= 0; i-- {
		for j := 0; j < EcmultWindowSize; j++ {
			r.double(r)
		}

		bits := k.getBits(uint(i*EcmultWindowSize), EcmultWindowSize)
		lookupAffine(&entry, table[:], bits)
		r.addGE(r, &entry)
	}
}

// ecmultWindowedVar performs variable-time scalar multiplication:
// r = k*P. Only use with public scalars and points, such as signature
// verification.
func ecmultWindowedVar(r *GroupElementJacobian, k *Scalar, p *GroupElementAffine) {
	if k.isZero() || p.infinity {
		r.setInfinity()
		return
	}

	// Direct-indexed multiples 1P..15P
	var table [EcmultTableSize]GroupElementAffine
	var tj [EcmultTableSize]GroupElementJacobian
	tj[1].setGE(p)
	tj[2].double(&tj[1])
	for i := 3; i < EcmultTableSize; i++ {
		tj[i].addGEVar(&tj[i-1], p)
	}
	table[0].setInfinity()
	for i := 1; i < EcmultTableSize; i++ {
		table[i].setGEJ(&tj[i])
	}

	r.setInfinity()
	started := false

	for i := EcmultWindows - 1; i >= 0; i-- {
		if started {
			for j := 0; j < EcmultWindowSize; j++ {
				r.double(r)
			}
		}

		bits := k.getBits(uint(i*EcmultWindowSize), EcmultWindowSize)
		if bits != 0 {
			r.addGEVar(r, &table[bits])
			started = true
		}
	}
}

// Ecmult computes r = a*G + b*P in variable time. This is the shape of
// the verification equation, where all inputs are public.
func Ecmult(r *GroupElementJacobian, a *Scalar, b *Scalar, p *GroupElementAffine) {
	var aG, bP GroupElementJacobian

	if a.isZero() {
		aG.setInfinity()
	} else {
		ecmultWindowedVar(&aG, a, &Generator)
	}

	if b.isZero() || p.infinity {
		bP.setInfinity()
	} else {
		ecmultWindowedVar(&bP, b, p)
	}

	r.addVar(&aG, &bP)
}
