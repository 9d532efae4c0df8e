package p521

import (
	"errors"
	"unsafe"
)

// ECDSASignature represents an ECDSA signature
type ECDSASignature struct {
	r, s Scalar
}

// Signature errors
var (
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrInvalidRecoveryID = errors.New("invalid recovery id")
)

// ecdsaSignInner signs a message scalar and reports the recovery id of
// the resulting signature. seckey must be a valid 66-byte secret key.
func ecdsaSignInner(sig *ECDSASignature, recid *int, msg *Scalar, sec *Scalar, seckey []byte) error {
	// RFC6979 key material: secret key || digest scalar, the
	// int2octets(x) || bits2octets(h) ordering of the RFC
	var nonceKey [2 * fieldByteLen]byte
	copy(nonceKey[:fieldByteLen], seckey)
	msg.getB66(nonceKey[fieldByteLen:])

	rng := NewRFC6979HMACSHA256(nonceKey[:])
	memclear(unsafe.Pointer(&nonceKey), unsafe.Sizeof(nonceKey))

	var nonceBytes [fieldByteLen]byte
	var nonce Scalar
	var rp GroupElementJacobian
	var r GroupElementAffine
	var rBytes [fieldByteLen]byte

	for {
		// Candidates carry 528 bits; reject instead of reducing so the
		// nonce stays uniform over [1, n)
		rng.Generate(nonceBytes[:])
		if nonceBytes[0] > 1 || !nonce.setB66Seckey(nonceBytes[:]) {
			continue
		}

		// R = nonce * G
		EcmultGen(&rp, &nonce)
		r.setGEJ(&rp)
		r.x.normalize()
		r.y.normalize()

		// r = X(R) mod n
		r.x.getB66(rBytes[:])
		overflow := sig.r.setB66(rBytes[:])
		if sig.r.isZero() {
			continue
		}

		// s = nonce^-1 * (msg + r * sec) mod n
		var t, nonceInv Scalar
		t.mul(&sig.r, sec)
		t.add(&t, msg)
		nonceInv.inverse(&nonce)
		sig.s.mul(&nonceInv, &t)
		t.clear()
		nonceInv.clear()
		if sig.s.isZero() {
			continue
		}

		id := boolToInt(r.y.isOdd()) | boolToInt(overflow)<<1

		// Normalize to low-S; negating s mirrors R about the x axis
		high := boolToInt(sig.s.isHigh())
		sig.s.condNegate(high)
		id ^= high

		if recid != nil {
			*recid = id
		}
		break
	}

	rng.Finalize()
	rng.Clear()
	nonce.clear()
	rp.clear()
	r.clear()
	memclear(unsafe.Pointer(&nonceBytes), unsafe.Sizeof(nonceBytes))
	memclear(unsafe.Pointer(&rBytes), unsafe.Sizeof(rBytes))

	return nil
}

// ECDSASign creates an ECDSA signature for a message digest using a
// 66-byte private key. The digest may be any length; digests longer than
// 521 bits contribute their leftmost 521 bits. Nonces are deterministic
// per RFC 6979 and signatures are low-S normalized.
func ECDSASign(sig *ECDSASignature, msghash []byte, seckey []byte) error {
	if len(seckey) != fieldByteLen {
		return ErrInvalidSeckey
	}

	var sec Scalar
	if !sec.setB66Seckey(seckey) {
		return ErrInvalidSeckey
	}

	var msg Scalar
	HashToScalar(&msg, msghash)

	err := ecdsaSignInner(sig, nil, &msg, &sec, seckey)

	sec.clear()
	msg.clear()
	return err
}

// ECDSASignRecoverable creates an ECDSA signature together with a
// recovery id in [0, 3] from which the signing public key can be
// reconstructed with ECDSARecover.
func ECDSASignRecoverable(sig *ECDSASignature, recid *int, msghash []byte, seckey []byte) error {
	if len(seckey) != fieldByteLen {
		return ErrInvalidSeckey
	}

	var sec Scalar
	if !sec.setB66Seckey(seckey) {
		return ErrInvalidSeckey
	}

	var msg Scalar
	HashToScalar(&msg, msghash)

	err := ecdsaSignInner(sig, recid, &msg, &sec, seckey)

	sec.clear()
	msg.clear()
	return err
}

// ECDSAVerify verifies an ECDSA signature against a message digest and
// public key. Both low-S and high-S signatures are accepted.
func ECDSAVerify(sig *ECDSASignature, msghash []byte, pubkey *PublicKey) bool {
	if sig.r.isZero() || sig.s.isZero() {
		return false
	}

	var msg Scalar
	HashToScalar(&msg, msghash)

	var pubkeyPoint GroupElementAffine
	pubkeyLoad(&pubkeyPoint, pubkey)
	if pubkeyPoint.isInfinity() {
		return false
	}

	// u1 = msg * s^-1, u2 = r * s^-1
	var sInv, u1, u2 Scalar
	sInv.inverse(&sig.s)
	u1.mul(&msg, &sInv)
	u2.mul(&sig.r, &sInv)

	// R = u1*G + u2*P
	var res GroupElementJacobian
	Ecmult(&res, &u1, &u2, &pubkeyPoint)
	if res.isInfinityVar() {
		return false
	}

	var resAff GroupElementAffine
	resAff.setGEJ(&res)
	resAff.x.normalize()

	var rBytes [fieldByteLen]byte
	resAff.x.getB66(rBytes[:])

	var computedR Scalar
	computedR.setB66(rBytes[:])

	return sig.r.equal(&computedR)
}

// ECDSARecover reconstructs the public key that produced an ECDSA
// signature over the given message digest. recid is the recovery id
// returned by ECDSASignRecoverable: bit 0 selects the parity of the
// ephemeral point's y coordinate, bit 1 is set when its x coordinate
// overflowed the group order.
func ECDSARecover(pubkey *PublicKey, sig *ECDSASignature, recid int, msghash []byte) error {
	if recid < 0 || recid > 3 {
		return ErrInvalidRecoveryID
	}
	if sig.r.isZero() || sig.s.isZero() {
		return ErrInvalidSignature
	}

	// Reconstruct the x coordinate of the ephemeral point: r, or r + n
	// when the overflow bit is set
	var xBytes [fieldByteLen]byte
	sig.r.getB66(xBytes[:])
	if recid&2 != 0 {
		carry := uint(0)
		for i := fieldByteLen - 1; i >= 0; i-- {
			v := uint(xBytes[i]) + uint(scalarNMinus2[i]) + carry
			if i == fieldByteLen-1 {
				v += 2
			}
			xBytes[i] = byte(v)
			carry = v >> 8
		}
		if carry != 0 {
			return ErrInvalidSignature
		}
	}

	var x FieldElement
	if err := x.setB66(xBytes[:]); err != nil {
		return ErrInvalidSignature
	}

	var rPoint GroupElementAffine
	if !rPoint.setXOVar(&x, recid&1 == 1) {
		return ErrInvalidSignature
	}

	var msg Scalar
	HashToScalar(&msg, msghash)

	// Q = r^-1 * (s*R - msg*G)
	var rInv, u1, u2 Scalar
	rInv.inverse(&sig.r)
	u2.mul(&sig.s, &rInv)
	u1.mul(&msg, &rInv)
	u1.negate(&u1)

	var qj GroupElementJacobian
	Ecmult(&qj, &u1, &u2, &rPoint)
	if qj.isInfinityVar() {
		return ErrInvalidSignature
	}

	var q GroupElementAffine
	q.setGEJ(&qj)
	pubkeySave(pubkey, &q)
	return nil
}

// ECDSASignatureCompact represents a compact 132-byte signature (r || s)
type ECDSASignatureCompact [2 * fieldByteLen]byte

// ToCompact converts an ECDSA signature to compact format
func (sig *ECDSASignature) ToCompact() *ECDSASignatureCompact {
	var compact ECDSASignatureCompact
	sig.r.getB66(compact[:fieldByteLen])
	sig.s.getB66(compact[fieldByteLen:])
	return &compact
}

// FromCompact converts a compact signature to ECDSA signature format.
// Components that are zero or not below the group order are rejected.
func (sig *ECDSASignature) FromCompact(compact *ECDSASignatureCompact) error {
	overflow := sig.r.setB66(compact[:fieldByteLen])
	overflow = sig.s.setB66(compact[fieldByteLen:]) || overflow

	if overflow || sig.r.isZero() || sig.s.isZero() {
		return ErrInvalidSignature
	}
	return nil
}

// ECDSAVerifyCompact verifies a compact signature
func ECDSAVerifyCompact(compact *ECDSASignatureCompact, msghash []byte, pubkey *PublicKey) bool {
	var sig ECDSASignature
	if err := sig.FromCompact(compact); err != nil {
		return false
	}
	return ECDSAVerify(&sig, msghash, pubkey)
}

// ECDSASignCompact creates a compact signature
func ECDSASignCompact(compact *ECDSASignatureCompact, msghash []byte, seckey []byte) error {
	var sig ECDSASignature
	if err := ECDSASign(&sig, msghash, seckey); err != nil {
		return err
	}
	*compact = *sig.ToCompact()
	return nil
}
