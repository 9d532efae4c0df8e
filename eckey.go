package p521

import (
	"crypto/rand"
	"errors"
	"io"
)

// Key errors
var (
	ErrInvalidSeckey = errors.New("invalid secret key")
	ErrInvalidTweak  = errors.New("invalid tweak")
)

// ECSeckeyVerify verifies that a 66-byte array is a valid secret key
func ECSeckeyVerify(seckey []byte) bool {
	if len(seckey) != fieldByteLen {
		return false
	}

	var scalar Scalar
	ok := scalar.setB66Seckey(seckey)
	scalar.clear()
	return ok
}

// ECSeckeyNegate negates a secret key in place
func ECSeckeyNegate(seckey []byte) bool {
	if len(seckey) != fieldByteLen {
		return false
	}

	var scalar Scalar
	if !scalar.setB66Seckey(seckey) {
		return false
	}

	scalar.negate(&scalar)
	scalar.getB66(seckey)
	scalar.clear()
	return true
}

// ECSeckeyGenerate generates a new random secret key from the given
// entropy source, retrying on the negligible chance the candidate falls
// outside [1, n-1]. Pass nil to use crypto/rand.
func ECSeckeyGenerate(rng io.Reader) ([]byte, error) {
	if rng == nil {
		rng = rand.Reader
	}

	seckey := make([]byte, fieldByteLen)
	for {
		if _, err := io.ReadFull(rng, seckey); err != nil {
			return nil, err
		}
		// Trim to 521 bits so nearly every candidate is below the order
		seckey[0] &= 0x01

		if ECSeckeyVerify(seckey) {
			return seckey, nil
		}
	}
}

// ECKeyPairGenerate generates a new key pair (private key and public key)
func ECKeyPairGenerate(rng io.Reader) (seckey []byte, pubkey *PublicKey, err error) {
	seckey, err = ECSeckeyGenerate(rng)
	if err != nil {
		return nil, nil, err
	}

	pubkey = &PublicKey{}
	if err := ECPubkeyCreate(pubkey, seckey); err != nil {
		return nil, nil, err
	}

	return seckey, pubkey, nil
}

// ECSeckeyTweakAdd adds a tweak to a secret key: seckey = seckey + tweak mod n
func ECSeckeyTweakAdd(seckey []byte, tweak []byte) error {
	if len(seckey) != fieldByteLen || len(tweak) != fieldByteLen {
		return ErrInvalidLength
	}

	var sec, tw Scalar
	if !sec.setB66Seckey(seckey) {
		return ErrInvalidSeckey
	}
	if !tw.setB66Seckey(tweak) {
		return ErrInvalidTweak
	}

	sec.add(&sec, &tw)

	if sec.isZero() {
		sec.clear()
		tw.clear()
		return errors.New("resulting secret key is zero")
	}

	sec.getB66(seckey)
	sec.clear()
	tw.clear()
	return nil
}

// ECSeckeyTweakMul multiplies a secret key by a tweak: seckey = seckey * tweak mod n
func ECSeckeyTweakMul(seckey []byte, tweak []byte) error {
	if len(seckey) != fieldByteLen || len(tweak) != fieldByteLen {
		return ErrInvalidLength
	}

	var sec, tw Scalar
	if !sec.setB66Seckey(seckey) {
		return ErrInvalidSeckey
	}
	if !tw.setB66Seckey(tweak) {
		return ErrInvalidTweak
	}

	sec.mul(&sec, &tw)

	sec.getB66(seckey)
	sec.clear()
	tw.clear()
	return nil
}

// ECPubkeyTweakAdd adds a tweak to a public key: pubkey = pubkey + tweak*G
func ECPubkeyTweakAdd(pubkey *PublicKey, tweak []byte) error {
	if len(tweak) != fieldByteLen {
		return ErrInvalidLength
	}

	var tw Scalar
	if !tw.setB66Seckey(tweak) {
		return ErrInvalidTweak
	}

	var pubkeyPoint GroupElementAffine
	pubkeyLoad(&pubkeyPoint, pubkey)
	if pubkeyPoint.isInfinity() {
		return errors.New("invalid public key")
	}

	var tweakG GroupElementJacobian
	EcmultGen(&tweakG, &tw)

	var result GroupElementJacobian
	result.addGEVar(&tweakG, &pubkeyPoint)

	if result.isInfinityVar() {
		return errors.New("resulting public key is infinity")
	}

	var resultAff GroupElementAffine
	resultAff.setGEJ(&result)
	pubkeySave(pubkey, &resultAff)

	return nil
}

// ECPubkeyTweakMul multiplies a public key by a tweak: pubkey = pubkey * tweak
func ECPubkeyTweakMul(pubkey *PublicKey, tweak []byte) error {
	if len(tweak) != fieldByteLen {
		return ErrInvalidLength
	}

	var tw Scalar
	if !tw.setB66Seckey(tweak) {
		return ErrInvalidTweak
	}

	var pubkeyPoint GroupElementAffine
	pubkeyLoad(&pubkeyPoint, pubkey)
	if pubkeyPoint.isInfinity() {
		return errors.New("invalid public key")
	}

	var result GroupElementJacobian
	EcmultConst(&result, &tw, &pubkeyPoint)

	if result.isInfinityVar() {
		return errors.New("resulting public key is infinity")
	}

	var resultAff GroupElementAffine
	resultAff.setGEJ(&result)
	pubkeySave(pubkey, &resultAff)

	return nil
}
